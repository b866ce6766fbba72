package marketdata

import (
	"context"
	"time"

	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

// Vendor symbols for the context fields.
const (
	SymbolNifty  = "^NSEI"
	SymbolSensex = "^BSESN"
	SymbolVIX    = "^INDIAVIX"
	SymbolUSDINR = "USDINR=X"
)

// globalSymbols are the offshore reference indices.
var globalSymbols = map[string]string{
	"sp500":  "^GSPC",
	"nasdaq": "^IXIC",
}

// QuoteFetcher is the slice of Client the source needs.
type QuoteFetcher interface {
	Quote(ctx context.Context, symbol string) (*contracts.IndexQuote, error)
	FX(ctx context.Context, pair string) (*contracts.FXQuote, error)
}

// Source builds the per-run market context. Each field degrades
// independently: a failed or stale fetch leaves the field nil and logs,
// it never fails the whole context.
type Source struct {
	quotes QuoteFetcher
	log    *logger.Logger
}

func NewSource(quotes QuoteFetcher, log *logger.Logger) *Source {
	return &Source{
		quotes: quotes,
		log:    log.WithField("component", "marketdata"),
	}
}

// Context implements contracts.MarketSource.
func (s *Source) Context(ctx context.Context, asOf time.Time) (*contracts.MarketContext, error) {
	mc := &contracts.MarketContext{
		AsOf:          asOf,
		GlobalIndices: make(map[string]*contracts.IndexQuote),
	}

	mc.DomesticIndex = s.index(ctx, SymbolNifty, "domestic_index")
	mc.SecondaryIndex = s.index(ctx, SymbolSensex, "secondary_index")
	mc.Volatility = s.index(ctx, SymbolVIX, "volatility")

	if fx, err := s.quotes.FX(ctx, SymbolUSDINR); err != nil {
		s.log.WithError(err).Warn("usd_inr unavailable, degrading field")
	} else {
		mc.USDINR = fx
	}

	for name, symbol := range globalSymbols {
		if q := s.index(ctx, symbol, name); q != nil {
			mc.GlobalIndices[name] = q
		}
	}

	if !mc.Complete() {
		s.log.Warn("market context incomplete, downstream stages degrade")
	}

	return mc, nil
}

func (s *Source) index(ctx context.Context, symbol, field string) *contracts.IndexQuote {
	q, err := s.quotes.Quote(ctx, symbol)
	if err != nil {
		s.log.WithError(err).WithField("field", field).Warn("quote unavailable, degrading field")
		return nil
	}
	return q
}

var _ contracts.MarketSource = (*Source)(nil)
