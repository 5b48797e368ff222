package sources

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/derpledex/databridge/internal/logger"
	"github.com/derpledex/databridge/pkg/source"
)

// defaultFredEndpoint is the keyless FRED CSV export endpoint.
const defaultFredEndpoint = "https://fred.stlouisfed.org/graph/fredgraph.csv"

// Error types for the macro series source
var (
	ErrMissingSeries = errors.New("series is required in source configuration")
	ErrBadSeriesCSV  = errors.New("series csv has unexpected shape")
)

// MacroSeries fetches macroeconomic series from FRED via the fredgraph CSV
// export. One request is issued per series ID; each observation becomes one
// record with series_id, date, and value fields. Missing observations
// (rendered as ".") are skipped.
type MacroSeries struct {
	endpoint string
	series   []string
	client   *http.Client
}

// NewMacroSeriesFromConfig creates a macro series source from configuration.
//
// Required config fields:
//   - series: List of FRED series IDs (e.g., ["GDP", "UNRATE"])
//
// Optional config fields:
//   - endpoint: CSV export endpoint override
//   - timeout: Request timeout in seconds (default 30)
func NewMacroSeriesFromConfig(cfg *source.Config) (*MacroSeries, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	series := stringSlice(cfg.Config["series"])
	if len(series) == 0 {
		return nil, ErrMissingSeries
	}

	return &MacroSeries{
		endpoint: stringParam(cfg.Config, "endpoint", defaultFredEndpoint),
		series:   series,
		client:   newClient(cfg.Config),
	}, nil
}

// Fetch retrieves observations for all configured series.
func (m *MacroSeries) Fetch(ctx context.Context, params map[string]interface{}) (*source.FetchResult, error) {
	startTime := time.Now()

	series := m.series
	if override := stringSlice(params["series"]); len(override) > 0 {
		series = override
	}

	logger.Info("macro series fetch started", "series_count", len(series))

	var records []source.Record
	for _, id := range series {
		seriesRecords, err := m.fetchSeries(ctx, id)
		if err != nil {
			logger.Error("macro series fetch failed",
				"series_id", id,
				"duration", time.Since(startTime),
				"error", err.Error(),
			)
			return nil, fmt.Errorf("fetching series %q: %w", id, err)
		}
		records = append(records, seriesRecords...)
	}

	logger.Info("macro series fetch completed",
		"series_count", len(series),
		"record_count", len(records),
		"duration", time.Since(startTime),
	)

	return &source.FetchResult{Records: records}, nil
}

// fetchSeries fetches and parses the CSV export for a single series.
func (m *MacroSeries) fetchSeries(ctx context.Context, seriesID string) ([]source.Record, error) {
	endpoint := fmt.Sprintf("%s?id=%s", m.endpoint, url.QueryEscape(seriesID))

	body, err := doGet(ctx, m.client, endpoint)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(body))
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing series csv: %w", err)
	}
	if len(rows) == 0 || len(rows[0]) < 2 {
		return nil, fmt.Errorf("%w: series %s", ErrBadSeriesCSV, seriesID)
	}

	records := make([]source.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}
		// "." marks observations without a value
		if row[1] == "." || row[1] == "" {
			continue
		}
		value, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing observation %q for series %s: %w", row[1], seriesID, err)
		}
		records = append(records, source.Record{Data: map[string]interface{}{
			"series_id": seriesID,
			"date":      row[0],
			"value":     value,
		}})
	}

	return records, nil
}

// Close releases resources held by the source.
func (m *MacroSeries) Close() error {
	m.client.CloseIdleConnections()
	return nil
}
