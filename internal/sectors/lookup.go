package sectors

import (
	"context"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

// defaultMap covers the common NSE large caps so a fresh install
// classifies sensibly before the sector_map table is populated.
var defaultMap = map[string]contracts.Sector{
	"HDFCBANK":   contracts.SectorBanking,
	"ICICIBANK":  contracts.SectorBanking,
	"KOTAKBANK":  contracts.SectorBanking,
	"SBIN":       contracts.SectorBanking,
	"AXISBANK":   contracts.SectorBanking,
	"BAJFINANCE": contracts.SectorBanking,
	"HDFCLIFE":   contracts.SectorBanking,
	"SBILIFE":    contracts.SectorBanking,
	"TCS":        contracts.SectorIT,
	"INFY":       contracts.SectorIT,
	"WIPRO":      contracts.SectorIT,
	"HCLTECH":    contracts.SectorIT,
	"TECHM":      contracts.SectorIT,
	"SUNPHARMA":  contracts.SectorPharma,
	"DRREDDY":    contracts.SectorPharma,
	"CIPLA":      contracts.SectorPharma,
	"DIVISLAB":   contracts.SectorPharma,
	"RELIANCE":   contracts.SectorOilGas,
	"ONGC":       contracts.SectorOilGas,
	"NTPC":       contracts.SectorPower,
	"POWERGRID":  contracts.SectorPower,
	"HINDUNILVR": contracts.SectorFMCG,
	"ITC":        contracts.SectorFMCG,
	"NESTLEIND":  contracts.SectorFMCG,
	"BRITANNIA":  contracts.SectorFMCG,
	"MARUTI":     contracts.SectorAuto,
	"TATAMOTORS": contracts.SectorAuto,
	"M&M":        contracts.SectorAuto,
	"BAJAJ-AUTO": contracts.SectorAuto,
	"TATASTEEL":  contracts.SectorMetals,
	"JSWSTEEL":   contracts.SectorMetals,
	"HINDALCO":   contracts.SectorMetals,
	"ULTRACEMCO": contracts.SectorCement,
	"SHREECEM":   contracts.SectorCement,
	"GRASIM":     contracts.SectorCement,
	"BHARTIARTL": contracts.SectorTelecom,
	"LT":         contracts.SectorInfra,
	"ADANIPORTS": contracts.SectorInfra,
	"DLF":        contracts.SectorRealEstate,
	"ASIANPAINT": contracts.SectorFMCG,
	"TITAN":      contracts.SectorFMCG,
	"APOLLOHOSP": contracts.SectorPharma,
	"NIFTYBEES":  contracts.SectorETF,
	"GOLDBEES":   contracts.SectorETF,
}

// Lookup classifies symbols from the sector_map table, falling back to
// the compiled-in defaults and finally SectorOther. Rows loaded once and
// cached; Reload refreshes after the table changes.
type Lookup struct {
	pool *pgxpool.Pool
	log  *logger.Logger

	mu       sync.RWMutex
	overlays map[string]contracts.Sector
}

func NewLookup(pool *pgxpool.Pool, log *logger.Logger) *Lookup {
	return &Lookup{
		pool:     pool,
		log:      log.WithField("component", "sectors"),
		overlays: make(map[string]contracts.Sector),
	}
}

// Load reads the sector_map table. Missing table or empty result is not
// an error; the defaults still apply.
func (l *Lookup) Load(ctx context.Context) error {
	if l.pool == nil {
		return nil
	}

	rows, err := l.pool.Query(ctx, `SELECT symbol, sector FROM sector_map`)
	if err != nil {
		return err
	}
	defer rows.Close()

	overlays := make(map[string]contracts.Sector)
	for rows.Next() {
		var symbol, sector string
		if err := rows.Scan(&symbol, &sector); err != nil {
			return err
		}
		s := contracts.Sector(strings.ToUpper(sector))
		if !s.Valid() {
			l.log.WithFields(map[string]interface{}{
				"symbol": symbol,
				"sector": sector,
			}).Warn("unknown sector in sector_map, skipping")
			continue
		}
		overlays[strings.ToUpper(symbol)] = s
	}
	if err := rows.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	l.overlays = overlays
	l.mu.Unlock()

	l.log.WithField("rows", len(overlays)).Info("sector map loaded")
	return nil
}

// SectorOf implements contracts.SectorLookup.
func (l *Lookup) SectorOf(symbol string) contracts.Sector {
	key := strings.ToUpper(strings.TrimSpace(symbol))

	l.mu.RLock()
	s, ok := l.overlays[key]
	l.mu.RUnlock()
	if ok {
		return s
	}
	if s, ok := defaultMap[key]; ok {
		return s
	}
	return contracts.SectorOther
}

var _ contracts.SectorLookup = (*Lookup)(nil)
