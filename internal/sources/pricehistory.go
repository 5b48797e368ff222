package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/derpledex/databridge/internal/logger"
	"github.com/derpledex/databridge/pkg/source"
)

// Default values for the price history source
const (
	defaultChartEndpoint = "https://query1.finance.yahoo.com/v8/finance/chart"
	defaultPeriod        = "1y"
	defaultInterval      = "1d"
)

// Error types for the price history source
var (
	ErrMissingSymbols = errors.New("symbols is required in source configuration")
	ErrEmptyChart     = errors.New("chart response contains no result")
)

// PriceHistory fetches OHLCV price history from the Yahoo Finance chart API.
// One request is issued per symbol; each data point becomes one record with
// symbol, date, open, high, low, close, and volume fields.
type PriceHistory struct {
	endpoint string
	symbols  []string
	period   string
	interval string
	client   *http.Client
}

// NewPriceHistoryFromConfig creates a price history source from configuration.
//
// Required config fields:
//   - symbols: List of ticker symbols (e.g., ["^GSPC", "^DJI"])
//
// Optional config fields:
//   - period: Time period (e.g., "1y", "5y", "max"; default "1y")
//   - interval: Data interval (e.g., "1d", "1wk", "1mo"; default "1d")
//   - endpoint: Chart API base URL override
//   - timeout: Request timeout in seconds (default 30)
func NewPriceHistoryFromConfig(cfg *source.Config) (*PriceHistory, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	symbols := stringSlice(cfg.Config["symbols"])
	if len(symbols) == 0 {
		return nil, ErrMissingSymbols
	}

	p := &PriceHistory{
		endpoint: stringParam(cfg.Config, "endpoint", defaultChartEndpoint),
		symbols:  symbols,
		period:   stringParam(cfg.Config, "period", defaultPeriod),
		interval: stringParam(cfg.Config, "interval", defaultInterval),
		client:   newClient(cfg.Config),
	}

	logger.Debug("price history source created",
		"symbol_count", len(symbols),
		"period", p.period,
		"interval", p.interval,
	)

	return p, nil
}

// chartResponse mirrors the subset of the Yahoo chart API payload we read.
// Quote arrays use pointers because the API emits null for missing points.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch retrieves price history for all configured symbols.
// Per-call params may override period and interval.
func (p *PriceHistory) Fetch(ctx context.Context, params map[string]interface{}) (*source.FetchResult, error) {
	startTime := time.Now()

	symbols := p.symbols
	if override := stringSlice(params["symbols"]); len(override) > 0 {
		symbols = override
	}
	period := stringParam(params, "period", p.period)
	interval := stringParam(params, "interval", p.interval)

	logger.Info("price history fetch started",
		"symbol_count", len(symbols),
		"period", period,
		"interval", interval,
	)

	var records []source.Record
	for _, symbol := range symbols {
		symbolRecords, err := p.fetchSymbol(ctx, symbol, period, interval)
		if err != nil {
			logger.Error("price history fetch failed",
				"symbol", symbol,
				"duration", time.Since(startTime),
				"error", err.Error(),
			)
			return nil, fmt.Errorf("fetching symbol %q: %w", symbol, err)
		}
		records = append(records, symbolRecords...)
	}

	logger.Info("price history fetch completed",
		"symbol_count", len(symbols),
		"record_count", len(records),
		"duration", time.Since(startTime),
	)

	return &source.FetchResult{Records: records}, nil
}

// fetchSymbol fetches and flattens the chart data for a single symbol.
func (p *PriceHistory) fetchSymbol(ctx context.Context, symbol, period, interval string) ([]source.Record, error) {
	endpoint := fmt.Sprintf("%s/%s?range=%s&interval=%s",
		p.endpoint,
		url.PathEscape(symbol),
		url.QueryEscape(period),
		url.QueryEscape(interval),
	)

	body, err := doGet(ctx, p.client, endpoint)
	if err != nil {
		return nil, err
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing chart response: %w", err)
	}

	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("chart api error %s: %s",
			parsed.Chart.Error.Code, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, ErrEmptyChart
	}

	result := parsed.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := result.Indicators.Quote[0]

	records := make([]source.Record, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Null closes mark timestamps without a tradable bar
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}

		data := map[string]interface{}{
			"symbol": symbol,
			"date":   time.Unix(ts, 0).UTC().Format("2006-01-02"),
			"close":  *quote.Close[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			data["open"] = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			data["high"] = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			data["low"] = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			data["volume"] = *quote.Volume[i]
		}

		records = append(records, source.Record{Data: data})
	}

	return records, nil
}

// Close releases resources held by the source.
func (p *PriceHistory) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
