package signals

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/internal/marketdata"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

const (
	shortWindow = 50
	longWindow  = 200
	betaWindow  = 250

	// |z| beyond which a valuation signal counts as breached.
	valuationBreach = 2.0

	// Deviation from strategic beta that flags the portfolio signal.
	betaTolerance = 0.10

	// Minimum peers carrying a P/E for a meaningful z-score.
	minPeerGroup = 3

	// Concurrent per-symbol history fetches.
	maxFetchers = 4
)

// HistorySource serves daily bars for momentum and beta computation.
type HistorySource interface {
	History(ctx context.Context, symbol string, days int) ([]marketdata.Bar, error)
}

// FundamentalsSource serves stored valuation rows.
type FundamentalsSource interface {
	Fundamentals(ctx context.Context, symbols []string) (map[string]marketdata.Fundamental, error)
}

// Engine computes the deterministic signal set for a run: portfolio
// drift, per-sector drift, valuation z-scores, per-holding momentum,
// portfolio beta and the macro regime. Missing inputs degrade the
// affected signal, they never fail the build.
type Engine struct {
	history      HistorySource
	fundamentals FundamentalsSource
	log          *logger.Logger
}

func NewEngine(history HistorySource, fundamentals FundamentalsSource, log *logger.Logger) *Engine {
	return &Engine{
		history:      history,
		fundamentals: fundamentals,
		log:          log.WithField("component", "signals"),
	}
}

// Build implements contracts.SignalEngine.
func (e *Engine) Build(ctx context.Context, snapshot *contracts.PortfolioSnapshot, market *contracts.MarketContext, cfg *contracts.RiskConfig) (*contracts.SignalSet, error) {
	set := &contracts.SignalSet{Signals: make([]contracts.Signal, 0)}

	set.Signals = append(set.Signals, e.driftSignals(snapshot, cfg)...)
	set.Signals = append(set.Signals, e.valuationSignals(ctx, snapshot)...)

	series := e.fetchHistories(ctx, snapshot, market)
	set.Signals = append(set.Signals, e.momentumSignals(snapshot, series)...)
	if sig, ok := e.betaSignal(snapshot, series, cfg); ok {
		set.Signals = append(set.Signals, sig)
	}
	set.Signals = append(set.Signals, e.regimeSignal(market))

	e.log.WithFields(map[string]interface{}{
		"signals":  len(set.Signals),
		"breached": len(set.Breached()),
	}).Info("signal set built")

	return set, nil
}

// relativeDrift returns the drift of a current weight against its
// target, as a percentage of the target. NaN for a zero target.
func relativeDrift(current, target float64) float64 {
	if target == 0 {
		return math.NaN()
	}
	return (current - target) / target * 100
}

// driftSignals flags allocation drift at three levels: the whole equity
// sleeve against the target weight, each sector against its target, and
// each symbol against an even split. Drift is relative to the target
// and expressed in percent, so a 8% weight against a 5% target is a 60%
// drift. Sector targets fall back to the equity weight split evenly
// across held sectors when no explicit map is configured.
func (e *Engine) driftSignals(snapshot *contracts.PortfolioSnapshot, cfg *contracts.RiskConfig) []contracts.Signal {
	signals := make([]contracts.Signal, 0)

	nav := snapshot.NAV()
	if nav <= 0 {
		return signals
	}

	appendDrift := func(subject string, current, target float64) {
		drift := relativeDrift(current, target)
		if math.IsNaN(drift) {
			return
		}
		signals = append(signals, contracts.Signal{
			Subject:           subject,
			Kind:              contracts.SignalDrift,
			Value:             drift,
			ThresholdBreached: math.Abs(drift) >= cfg.RebalThreshold,
		})
	}

	eqWeight := snapshot.TotalValue() / nav * 100
	targetEq := cfg.TargetEqWeight * 100
	appendDrift(contracts.SubjectPortfolio, eqWeight, targetEq)

	sectorValues := snapshot.SectorValues()
	if len(sectorValues) > 0 {
		sectors := make([]contracts.Sector, 0, len(sectorValues))
		for s := range sectorValues {
			sectors = append(sectors, s)
		}
		sort.Slice(sectors, func(i, j int) bool { return sectors[i] < sectors[j] })

		evenTarget := targetEq / float64(len(sectors))
		for _, sector := range sectors {
			target := evenTarget
			if t, ok := cfg.SectorTargets[sector]; ok {
				target = t
			}
			appendDrift(string(sector), sectorValues[sector]/nav*100, target)
		}
	}

	if n := len(snapshot.Holdings); n > 0 {
		symbolTarget := targetEq / float64(n)
		for _, h := range snapshot.Holdings {
			appendDrift(h.Symbol, h.Value()/nav*100, symbolTarget)
		}
	}

	return signals
}

// valuationSignals computes cross-sectional P/E z-scores over the
// holdings that carry fundamentals. Symbols without a P/E are excluded
// from the peer group rather than treated as zero; a degenerate group
// yields no signals at all.
func (e *Engine) valuationSignals(ctx context.Context, snapshot *contracts.PortfolioSnapshot) []contracts.Signal {
	if e.fundamentals == nil || len(snapshot.Holdings) == 0 {
		return nil
	}

	symbols := make([]string, 0, len(snapshot.Holdings))
	for _, h := range snapshot.Holdings {
		symbols = append(symbols, h.Symbol)
	}

	rows, err := e.fundamentals.Fundamentals(ctx, symbols)
	if err != nil {
		e.log.WithError(err).Warn("fundamentals unavailable, skipping valuation signals")
		return nil
	}

	type peer struct {
		symbol string
		per    float64
	}
	peers := make([]peer, 0, len(rows))
	for _, symbol := range symbols {
		f, ok := rows[symbol]
		if !ok || f.PER == nil || math.IsNaN(*f.PER) || *f.PER <= 0 {
			continue
		}
		peers = append(peers, peer{symbol: symbol, per: *f.PER})
	}
	if len(peers) < minPeerGroup {
		e.log.WithField("peers", len(peers)).Debug("peer group too small for valuation z-scores")
		return nil
	}

	pes := make([]float64, len(peers))
	for i, p := range peers {
		pes[i] = p.per
	}
	med, sd := median(pes), stddev(pes)
	if sd == 0 {
		// Degenerate peer group, the z-score is undefined. Absence of
		// the signal is meaningful downstream; zero would not be.
		return nil
	}

	signals := make([]contracts.Signal, 0, len(peers))
	for _, p := range peers {
		z := (p.per - med) / sd
		signals = append(signals, contracts.Signal{
			Subject:           p.symbol,
			Kind:              contracts.SignalValuationZ,
			Value:             z,
			ThresholdBreached: math.Abs(z) > valuationBreach,
		})
	}
	return signals
}

// fetchHistories pulls close series for every holding plus the domestic
// index with a bounded worker pool.
func (e *Engine) fetchHistories(ctx context.Context, snapshot *contracts.PortfolioSnapshot, market *contracts.MarketContext) map[string][]float64 {
	if e.history == nil {
		return nil
	}

	symbols := make([]string, 0, len(snapshot.Holdings)+1)
	for _, h := range snapshot.Holdings {
		symbols = append(symbols, h.Symbol)
	}
	if market != nil && market.DomesticIndex != nil {
		symbols = append(symbols, marketdata.SymbolNifty)
	}

	var mu sync.Mutex
	series := make(map[string][]float64, len(symbols))

	sem := make(chan struct{}, maxFetchers)
	var wg sync.WaitGroup
	for _, symbol := range symbols {
		wg.Add(1)
		sem <- struct{}{}
		go func(symbol string) {
			defer wg.Done()
			defer func() { <-sem }()

			bars, err := e.history.History(ctx, symbol, betaWindow+longWindow)
			if err != nil {
				e.log.WithError(err).WithField("symbol", symbol).Warn("history unavailable")
				return
			}
			closes := make([]float64, len(bars))
			for i, b := range bars {
				closes[i] = b.Close
			}
			mu.Lock()
			series[symbol] = closes
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()

	return series
}

// momentumSignals classifies each holding by its 50d/200d moving
// averages. Holdings with too little history stay neutral and emit no
// signal.
func (e *Engine) momentumSignals(snapshot *contracts.PortfolioSnapshot, series map[string][]float64) []contracts.Signal {
	signals := make([]contracts.Signal, 0, len(snapshot.Holdings))

	for _, h := range snapshot.Holdings {
		closes := series[h.Symbol]
		ma50 := movingAverage(closes, shortWindow)
		ma200 := movingAverage(closes, longWindow)
		if math.IsNaN(ma50) || math.IsNaN(ma200) || ma200 == 0 {
			continue
		}

		last := closes[len(closes)-1]
		class := contracts.MomentumNeutral
		switch {
		case ma50 > ma200 && last > ma50:
			class = contracts.MomentumBullish
		case ma50 < ma200 && last < ma50:
			class = contracts.MomentumBearish
		}

		spread := (ma50/ma200 - 1) * 100
		signals = append(signals, contracts.Signal{
			Subject:           h.Symbol,
			Kind:              contracts.SignalMomentum,
			Value:             spread,
			ThresholdBreached: class != contracts.MomentumNeutral,
			Class:             string(class),
		})
	}

	return signals
}

// betaSignal computes the value-weighted portfolio beta against the
// domestic index and flags deviation from the strategic target.
func (e *Engine) betaSignal(snapshot *contracts.PortfolioSnapshot, series map[string][]float64, cfg *contracts.RiskConfig) (contracts.Signal, bool) {
	indexCloses := series[marketdata.SymbolNifty]
	if len(indexCloses) < 2 {
		return contracts.Signal{}, false
	}
	indexReturns := dailyReturns(indexCloses)

	total := snapshot.TotalValue()
	if total <= 0 {
		return contracts.Signal{}, false
	}

	var weighted, covered float64
	for _, h := range snapshot.Holdings {
		closes := series[h.Symbol]
		b := beta(dailyReturns(closes), indexReturns)
		if math.IsNaN(b) {
			continue
		}
		w := h.Value() / total
		weighted += w * b
		covered += w
	}
	if covered < 0.5 {
		// Less than half the book has usable history; the estimate
		// would mislead more than inform.
		return contracts.Signal{}, false
	}

	portfolioBeta := weighted / covered
	return contracts.Signal{
		Subject:           contracts.SubjectPortfolio,
		Kind:              contracts.SignalBeta,
		Value:             portfolioBeta,
		ThresholdBreached: math.Abs(portfolioBeta-cfg.StrategicBeta) > betaTolerance,
	}, true
}

// regimeSignal buckets market conditions into a coarse categorical. A
// degraded market context stays neutral.
func (e *Engine) regimeSignal(market *contracts.MarketContext) contracts.Signal {
	regime := contracts.RegimeNeutral
	var value float64

	if market != nil && market.Volatility != nil && market.DomesticIndex != nil {
		vix := market.Volatility.Level
		change := market.DomesticIndex.ChangePct
		value = vix
		switch {
		case vix >= 20 || change <= -1.5:
			regime = contracts.RegimeRiskOff
		case vix < 14 && change >= 0:
			regime = contracts.RegimeRiskOn
		}
	}

	return contracts.Signal{
		Subject:           contracts.SubjectPortfolio,
		Kind:              contracts.SignalMacro,
		Value:             value,
		ThresholdBreached: regime == contracts.RegimeRiskOff,
		Class:             string(regime),
	}
}

var _ contracts.SignalEngine = (*Engine)(nil)
