package sources

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/derpledex/databridge/internal/logger"
	"github.com/derpledex/databridge/pkg/source"
)

// defaultStressURLTemplate builds the per-year, per-scenario CSV URL.
// The {year} and {scenario} placeholders are substituted per request.
const defaultStressURLTemplate = "https://www.federalreserve.gov/supervisionreg/files/{year}-table-{scenario}.csv"

// Error types for the stress scenario source
var (
	ErrMissingYears     = errors.New("years is required in source configuration")
	ErrMissingScenarios = errors.New("scenarios is required in source configuration")
	ErrBadScenarioCSV   = errors.New("scenario csv has unexpected shape")
)

// StressScenarios fetches Federal Reserve stress-test scenario tables.
// Each scenario CSV is wide (one column per projected variable); rows are
// melted into long form, one record per date/variable pair with year, table,
// scenario, date, variable, and value fields.
type StressScenarios struct {
	urlTemplate string
	years       []int
	scenarios   []string
	client      *http.Client
}

// NewStressScenariosFromConfig creates a stress scenario source from configuration.
//
// Required config fields:
//   - years: List of scenario years (e.g., [2024, 2025])
//   - scenarios: List of scenario names (e.g., ["baseline", "severely-adverse"])
//
// Optional config fields:
//   - url_template: CSV URL template with {year} and {scenario} placeholders
//   - timeout: Request timeout in seconds (default 30)
func NewStressScenariosFromConfig(cfg *source.Config) (*StressScenarios, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	years := intSlice(cfg.Config["years"])
	if len(years) == 0 {
		return nil, ErrMissingYears
	}
	scenarios := stringSlice(cfg.Config["scenarios"])
	if len(scenarios) == 0 {
		return nil, ErrMissingScenarios
	}

	return &StressScenarios{
		urlTemplate: stringParam(cfg.Config, "url_template", defaultStressURLTemplate),
		years:       years,
		scenarios:   scenarios,
		client:      newClient(cfg.Config),
	}, nil
}

// Fetch retrieves all configured year/scenario tables.
func (s *StressScenarios) Fetch(ctx context.Context, params map[string]interface{}) (*source.FetchResult, error) {
	startTime := time.Now()

	years := s.years
	if override := intSlice(params["years"]); len(override) > 0 {
		years = override
	}
	scenarios := s.scenarios
	if override := stringSlice(params["scenarios"]); len(override) > 0 {
		scenarios = override
	}

	logger.Info("stress scenario fetch started",
		"year_count", len(years),
		"scenario_count", len(scenarios),
	)

	var records []source.Record
	for _, year := range years {
		for _, scenario := range scenarios {
			scenarioRecords, err := s.fetchScenario(ctx, year, scenario)
			if err != nil {
				logger.Error("stress scenario fetch failed",
					"year", year,
					"scenario", scenario,
					"duration", time.Since(startTime),
					"error", err.Error(),
				)
				return nil, fmt.Errorf("fetching scenario %s/%d: %w", scenario, year, err)
			}
			records = append(records, scenarioRecords...)
		}
	}

	logger.Info("stress scenario fetch completed",
		"record_count", len(records),
		"duration", time.Since(startTime),
	)

	return &source.FetchResult{Records: records}, nil
}

// fetchScenario fetches one scenario CSV and melts it into long form.
func (s *StressScenarios) fetchScenario(ctx context.Context, year int, scenario string) ([]source.Record, error) {
	endpoint := strings.NewReplacer(
		"{year}", strconv.Itoa(year),
		"{scenario}", scenario,
	).Replace(s.urlTemplate)

	body, err := doGet(ctx, s.client, endpoint)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing scenario csv: %w", err)
	}
	if len(rows) < 2 || len(rows[0]) < 2 {
		return nil, fmt.Errorf("%w: %s", ErrBadScenarioCSV, endpoint)
	}

	// Table identifier is the CSV file stem from the resolved URL
	tableName := tableNameFromURL(endpoint)

	header := rows[0]
	var records []source.Record
	for _, row := range rows[1:] {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		date := row[0]
		for col := 1; col < len(row) && col < len(header); col++ {
			if row[col] == "" {
				continue
			}
			value, err := strconv.ParseFloat(row[col], 64)
			if err != nil {
				// Non-numeric cells (footnotes, units rows) are skipped
				continue
			}
			records = append(records, source.Record{Data: map[string]interface{}{
				"year":     year,
				"table":    tableName,
				"scenario": scenario,
				"date":     date,
				"variable": header[col],
				"value":    value,
			}})
		}
	}

	return records, nil
}

// tableNameFromURL returns the CSV file stem from a resolved scenario URL.
func tableNameFromURL(endpoint string) string {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	base := path.Base(parsed.Path)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Close releases resources held by the source.
func (s *StressScenarios) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
