// Package bridge adapts the source registry into application-facing fetch
// calls. It assembles source configurations, delegates fetching to the
// registry's sources, and reshapes the returned records into tables with
// provenance columns appended.
//
// The bridge performs no retry, no partial-result recovery, and no error
// translation: any failure inside the registry or a source propagates to
// the caller unmodified.
package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/derpledex/databridge/internal/logger"
	"github.com/derpledex/databridge/internal/registry"
	"github.com/derpledex/databridge/internal/sources"
	"github.com/derpledex/databridge/internal/table"
	"github.com/derpledex/databridge/pkg/source"
)

// Default fetch parameters for the price history wrapper.
const (
	DefaultPeriod   = "1y"
	DefaultInterval = "1d"
)

// Bridge turns source configurations into fetched tables.
// Construct one with New and pass it to whatever needs it; the registry
// it holds is the only state.
type Bridge struct {
	registry source.Registry
}

// New creates a bridge backed by the given registry.
// A nil registry falls back to the default built-in registry.
func New(reg source.Registry) *Bridge {
	if reg == nil {
		reg = registry.Default()
	}
	return &Bridge{registry: reg}
}

var (
	defaultOnce   sync.Once
	defaultBridge *Bridge
)

// Default returns the process-wide bridge instance backed by the built-in
// registry. The same instance is returned across calls.
func Default() *Bridge {
	defaultOnce.Do(func() {
		defaultBridge = New(nil)
	})
	return defaultBridge
}

// FetchWithConfig is the generic fetch path: it builds a source
// configuration, asks the registry for a source, fetches, and flattens the
// records into a table with the provenance columns appended.
//
// The kind-specific config map is merged with extra per-call parameters;
// extra parameters take precedence on key collision. An empty fetch result
// yields an empty table and a nil error.
func (b *Bridge) FetchWithConfig(
	ctx context.Context,
	sourceID string,
	kind source.Kind,
	config map[string]interface{},
	primaryKeys []string,
	incremental bool,
	extra map[string]interface{},
) (*table.Table, error) {
	startTime := time.Now()

	cfg := &source.Config{
		ID:          sourceID,
		Name:        sourceID,
		Kind:        kind,
		Config:      config,
		PrimaryKeys: primaryKeys,
		Incremental: incremental,
	}

	src, err := b.registry.CreateSource(cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			logger.Warn("failed to close source",
				"source_id", sourceID,
				"error", closeErr.Error(),
			)
		}
	}()

	// Merge config with per-call parameters; per-call values win
	params := make(map[string]interface{}, len(config)+len(extra))
	for k, v := range config {
		params[k] = v
	}
	for k, v := range extra {
		params[k] = v
	}

	result, err := src.Fetch(ctx, params)
	if err != nil {
		return nil, err
	}

	if len(result.Records) == 0 {
		logger.Info("fetch returned no records",
			"source_id", sourceID,
			"source_kind", string(kind),
			"duration", time.Since(startTime),
		)
		return table.New(), nil
	}

	out := table.New()
	for _, record := range result.Records {
		row := make(table.Row, len(record.Data)+2)
		for k, v := range record.Data {
			row[k] = v
		}
		row[table.SourceIDColumn] = sourceID
		row[table.FetchedAtColumn] = time.Now().UTC().Format(time.RFC3339)
		out.Append(row)
	}

	logger.Info("fetch completed",
		"source_id", sourceID,
		"source_kind", string(kind),
		"record_count", out.Len(),
		"duration", time.Since(startTime),
	)

	return out, nil
}

// FetchPriceHistory fetches OHLCV price history for the given symbols.
// Empty period or interval fall back to the package defaults.
func (b *Bridge) FetchPriceHistory(ctx context.Context, sourceID string, symbols []string, period, interval string) (*table.Table, error) {
	if period == "" {
		period = DefaultPeriod
	}
	if interval == "" {
		interval = DefaultInterval
	}
	return b.FetchWithConfig(ctx, sourceID, source.KindPriceHistory,
		map[string]interface{}{
			"symbols":  symbols,
			"period":   period,
			"interval": interval,
		},
		[]string{"symbol", "date"},
		true,
		nil,
	)
}

// FetchFeeds fetches entries from the given RSS/Atom feeds.
func (b *Bridge) FetchFeeds(ctx context.Context, sourceID string, feeds []sources.FeedSpec) (*table.Table, error) {
	specs := make([]interface{}, len(feeds))
	for i, f := range feeds {
		specs[i] = map[string]interface{}{"name": f.Name, "url": f.URL}
	}
	return b.FetchWithConfig(ctx, sourceID, source.KindFeed,
		map[string]interface{}{"feeds": specs},
		[]string{"id"},
		false,
		nil,
	)
}

// FetchMacroSeries fetches macroeconomic series by FRED series ID.
func (b *Bridge) FetchMacroSeries(ctx context.Context, sourceID string, series []string) (*table.Table, error) {
	return b.FetchWithConfig(ctx, sourceID, source.KindMacroSeries,
		map[string]interface{}{"series": series},
		[]string{"series_id", "date"},
		true,
		nil,
	)
}

// FetchLaborSeries fetches labor statistics series by BLS series ID.
func (b *Bridge) FetchLaborSeries(ctx context.Context, sourceID string, series []string) (*table.Table, error) {
	return b.FetchWithConfig(ctx, sourceID, source.KindLaborSeries,
		map[string]interface{}{"series": series},
		[]string{"series_id", "date"},
		true,
		nil,
	)
}

// FetchStressScenarios fetches Federal Reserve stress-test scenario tables
// for the given years and scenario names.
func (b *Bridge) FetchStressScenarios(ctx context.Context, sourceID string, years []int, scenarios []string) (*table.Table, error) {
	return b.FetchWithConfig(ctx, sourceID, source.KindStressScenario,
		map[string]interface{}{
			"years":     years,
			"scenarios": scenarios,
		},
		[]string{"year", "table", "date"},
		false,
		nil,
	)
}

// Fetch is a convenience function that fetches using the process-wide
// default bridge.
func Fetch(ctx context.Context, sourceID string, kind source.Kind, config map[string]interface{}, primaryKeys []string, incremental bool) (*table.Table, error) {
	return Default().FetchWithConfig(ctx, sourceID, kind, config, primaryKeys, incremental, nil)
}
