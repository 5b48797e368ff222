// Package registry maps source configurations to runnable fetch sources.
// This file registers all built-in sources during initialization.
package registry

import (
	"github.com/derpledex/databridge/internal/sources"
	"github.com/derpledex/databridge/pkg/source"
)

func init() {
	registerBuiltins()
}

// registerBuiltins registers all built-in source kinds.
// Tests that Clear() the registry call this to restore the builtins.
func registerBuiltins() {
	// yfinance - OHLCV price history from the Yahoo Finance chart API
	Register(source.KindPriceHistory, func(cfg *source.Config) (source.Source, error) {
		return sources.NewPriceHistoryFromConfig(cfg)
	})

	// rss - RSS 2.0 and Atom feed entries
	Register(source.KindFeed, func(cfg *source.Config) (source.Source, error) {
		return sources.NewFeedFromConfig(cfg)
	})

	// fred - macroeconomic series via the FRED CSV export
	Register(source.KindMacroSeries, func(cfg *source.Config) (source.Source, error) {
		return sources.NewMacroSeriesFromConfig(cfg)
	})

	// bls - labor statistics via the BLS public timeseries API
	Register(source.KindLaborSeries, func(cfg *source.Config) (source.Source, error) {
		return sources.NewLaborSeriesFromConfig(cfg)
	})

	// fedstress - Federal Reserve stress-test scenario tables
	Register(source.KindStressScenario, func(cfg *source.Config) (source.Source, error) {
		return sources.NewStressScenariosFromConfig(cfg)
	})
}
