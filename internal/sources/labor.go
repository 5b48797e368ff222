package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/derpledex/databridge/internal/logger"
	"github.com/derpledex/databridge/pkg/source"
)

// defaultBLSEndpoint is the BLS public timeseries API (v2).
const defaultBLSEndpoint = "https://api.bls.gov/publicAPI/v2/timeseries/data/"

// LaborSeries fetches labor statistics from the BLS public API.
// All series IDs are requested in a single POST; each observation becomes
// one record with series_id, year, period, period_name, value, and a
// synthesized date field ("<year>-<period>").
type LaborSeries struct {
	endpoint        string
	series          []string
	startYear       string
	endYear         string
	registrationKey string
	client          *http.Client
}

// NewLaborSeriesFromConfig creates a labor series source from configuration.
//
// Required config fields:
//   - series: List of BLS series IDs (e.g., ["CUSR0000SA0"])
//
// Optional config fields:
//   - start_year, end_year: Year range (API default when omitted)
//   - registration_key: BLS API registration key for higher limits
//   - endpoint: API endpoint override
//   - timeout: Request timeout in seconds (default 30)
func NewLaborSeriesFromConfig(cfg *source.Config) (*LaborSeries, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	series := stringSlice(cfg.Config["series"])
	if len(series) == 0 {
		return nil, ErrMissingSeries
	}

	return &LaborSeries{
		endpoint:        stringParam(cfg.Config, "endpoint", defaultBLSEndpoint),
		series:          series,
		startYear:       scalarParam(cfg.Config, "start_year", ""),
		endYear:         scalarParam(cfg.Config, "end_year", ""),
		registrationKey: stringParam(cfg.Config, "registration_key", ""),
		client:          newClient(cfg.Config),
	}, nil
}

// blsRequest is the POST payload for the timeseries API.
type blsRequest struct {
	SeriesID        []string `json:"seriesid"`
	StartYear       string   `json:"startyear,omitempty"`
	EndYear         string   `json:"endyear,omitempty"`
	RegistrationKey string   `json:"registrationkey,omitempty"`
}

// blsResponse mirrors the subset of the API payload we read.
type blsResponse struct {
	Status  string   `json:"status"`
	Message []string `json:"message"`
	Results struct {
		Series []struct {
			SeriesID string `json:"seriesID"`
			Data     []struct {
				Year       string `json:"year"`
				Period     string `json:"period"`
				PeriodName string `json:"periodName"`
				Value      string `json:"value"`
			} `json:"data"`
		} `json:"series"`
	} `json:"Results"`
}

// Fetch retrieves observations for all configured series.
func (l *LaborSeries) Fetch(ctx context.Context, params map[string]interface{}) (*source.FetchResult, error) {
	startTime := time.Now()

	series := l.series
	if override := stringSlice(params["series"]); len(override) > 0 {
		series = override
	}

	logger.Info("labor series fetch started", "series_count", len(series))

	payload := blsRequest{
		SeriesID:        series,
		StartYear:       scalarParam(params, "start_year", l.startYear),
		EndYear:         scalarParam(params, "end_year", l.endYear),
		RegistrationKey: stringParam(params, "registration_key", l.registrationKey),
	}
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, l.endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("creating http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := doRequest(ctx, l.client, req)
	if err != nil {
		logger.Error("labor series fetch failed",
			"series_count", len(series),
			"duration", time.Since(startTime),
			"error", err.Error(),
		)
		return nil, err
	}

	var parsed blsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing timeseries response: %w", err)
	}
	if parsed.Status != "REQUEST_SUCCEEDED" {
		return nil, fmt.Errorf("timeseries api status %q: %s",
			parsed.Status, strings.Join(parsed.Message, "; "))
	}

	var records []source.Record
	for _, s := range parsed.Results.Series {
		for _, obs := range s.Data {
			value, err := strconv.ParseFloat(obs.Value, 64)
			if err != nil {
				return nil, fmt.Errorf("parsing observation %q for series %s: %w",
					obs.Value, s.SeriesID, err)
			}
			records = append(records, source.Record{Data: map[string]interface{}{
				"series_id":   s.SeriesID,
				"year":        obs.Year,
				"period":      obs.Period,
				"period_name": obs.PeriodName,
				"value":       value,
				"date":        obs.Year + "-" + obs.Period,
			}})
		}
	}

	logger.Info("labor series fetch completed",
		"series_count", len(series),
		"record_count", len(records),
		"duration", time.Since(startTime),
	)

	return &source.FetchResult{Records: records}, nil
}

// Close releases resources held by the source.
func (l *LaborSeries) Close() error {
	l.client.CloseIdleConnections()
	return nil
}
