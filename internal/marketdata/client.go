package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/httputil"
	"github.com/akshayr/portfolio-coach/pkg/logger"
	"github.com/akshayr/portfolio-coach/pkg/redis"
)

// Bar is one daily OHLC-reduced observation.
type Bar struct {
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// chartResponse mirrors the Yahoo-style chart endpoint payload, reduced
// to the fields we read.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"chartPreviousClose"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// staleAfter is how old a quote may be before it is treated as missing.
// Covers weekends and holidays: a Friday close consumed on Monday
// morning is fine, a week-old value is not.
const staleAfter = 96 * time.Hour

// Client fetches quotes and daily bars from the chart API, caching in
// Redis. NSE equity symbols get the ".NS" suffix; index and FX symbols
// pass through unchanged.
type Client struct {
	http    *httputil.Client
	cache   *redis.Cache
	baseURL string
	log     *logger.Logger
}

func NewClient(http *httputil.Client, cache *redis.Cache, baseURL string, log *logger.Logger) *Client {
	return &Client{
		http:    http,
		cache:   cache,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

// vendorSymbol maps a plain NSE symbol to the chart API's notation.
func vendorSymbol(symbol string) string {
	if strings.HasPrefix(symbol, "^") || strings.Contains(symbol, "=") || strings.Contains(symbol, ".") {
		return symbol
	}
	return symbol + ".NS"
}

// Quote returns the latest level and daily change for a symbol. Stale
// quotes return an error so the caller can degrade the field.
func (c *Client) Quote(ctx context.Context, symbol string) (*contracts.IndexQuote, error) {
	key := redis.QuoteKey(symbol, time.Now().Format("2006-01-02"))

	var cached contracts.IndexQuote
	if c.cache != nil {
		if hit, err := c.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	resp, err := c.fetchChart(ctx, symbol, "1d", "1d")
	if err != nil {
		return nil, err
	}

	meta := resp.Chart.Result[0].Meta
	if meta.RegularMarketPrice == 0 {
		return nil, fmt.Errorf("no market price for %s", symbol)
	}
	if meta.RegularMarketTime > 0 {
		age := time.Since(time.Unix(meta.RegularMarketTime, 0))
		if age > staleAfter {
			return nil, fmt.Errorf("quote for %s is stale (%s old)", symbol, age.Round(time.Hour))
		}
	}

	quote := &contracts.IndexQuote{Level: meta.RegularMarketPrice}
	if meta.PreviousClose > 0 {
		quote.ChangePct = (meta.RegularMarketPrice - meta.PreviousClose) / meta.PreviousClose * 100
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, quote, redis.TTLQuote); err != nil {
			c.log.WithField("symbol", symbol).Warn("failed to cache quote")
		}
	}

	return quote, nil
}

// FX returns the latest rate and daily change for a currency pair.
func (c *Client) FX(ctx context.Context, pair string) (*contracts.FXQuote, error) {
	quote, err := c.Quote(ctx, pair)
	if err != nil {
		return nil, err
	}
	return &contracts.FXQuote{Rate: quote.Level, ChangePct: quote.ChangePct}, nil
}

// Price returns the last traded price of an equity symbol. Satisfies the
// snapshot builder's price source.
func (c *Client) Price(ctx context.Context, symbol string) (float64, error) {
	quote, err := c.Quote(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return quote.Level, nil
}

// History returns up to days of daily bars for a symbol, oldest first.
// Gaps in the vendor series (null closes) are skipped.
func (c *Client) History(ctx context.Context, symbol string, days int) ([]Bar, error) {
	key := fmt.Sprintf("history:%s:%d:%s", symbol, days, time.Now().Format("2006-01-02"))

	var cached []Bar
	if c.cache != nil {
		if hit, err := c.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	rng := fmt.Sprintf("%dd", days)
	if days >= 365 {
		rng = fmt.Sprintf("%dy", (days+364)/365)
	}
	resp, err := c.fetchChart(ctx, symbol, rng, "1d")
	if err != nil {
		return nil, err
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote series for %s", symbol)
	}
	series := result.Indicators.Quote[0]

	bars := make([]Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(series.Close) || series.Close[i] == nil {
			continue
		}
		bar := Bar{Date: time.Unix(ts, 0), Close: *series.Close[i]}
		if i < len(series.Volume) && series.Volume[i] != nil {
			bar.Volume = *series.Volume[i]
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("empty history for %s", symbol)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, bars, redis.TTLDaily); err != nil {
			c.log.WithField("symbol", symbol).Warn("failed to cache history")
		}
	}

	return bars, nil
}

// ADV returns the average daily traded value (close * volume) over the
// most recent lookback bars.
func (c *Client) ADV(ctx context.Context, symbol string, lookback int) (float64, error) {
	bars, err := c.History(ctx, symbol, lookback*2)
	if err != nil {
		return 0, err
	}
	if len(bars) > lookback {
		bars = bars[len(bars)-lookback:]
	}

	var total float64
	var n int
	for _, b := range bars {
		if b.Volume > 0 {
			total += b.Close * b.Volume
			n++
		}
	}
	if n == 0 {
		return 0, fmt.Errorf("no volume data for %s", symbol)
	}
	return total / float64(n), nil
}

func (c *Client) fetchChart(ctx context.Context, symbol, rng, interval string) (*chartResponse, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		c.baseURL, url.PathEscape(vendorSymbol(symbol)), rng, interval)

	var resp chartResponse
	if err := c.http.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("chart fetch for %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s", symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("empty chart result for %s", symbol)
	}
	return &resp, nil
}
