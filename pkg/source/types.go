// Package source provides public types and interfaces for data sources.
// This package is intended to be importable by external projects that need
// to interact with the databridge runtime: a Config describes where data
// comes from, a Registry turns that description into a runnable Source,
// and a Source performs the actual fetch.
package source

import "context"

// Kind identifies the category of external data origin.
type Kind string

// Built-in source kinds.
const (
	// KindPriceHistory fetches OHLCV price history (Yahoo Finance chart API).
	KindPriceHistory Kind = "yfinance"

	// KindFeed fetches RSS/Atom feed entries.
	KindFeed Kind = "rss"

	// KindMacroSeries fetches macroeconomic series (FRED).
	KindMacroSeries Kind = "fred"

	// KindLaborSeries fetches labor statistics series (BLS).
	KindLaborSeries Kind = "bls"

	// KindStressScenario fetches Federal Reserve stress-test scenarios.
	KindStressScenario Kind = "fedstress"
)

// Config describes a single data source.
// It is constructed fresh per fetch call and owned by the caller;
// nothing in this module persists it.
type Config struct {
	// ID is the unique identifier for this source (e.g., "us_indices")
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable name of the source
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Kind identifies the source kind (yfinance, rss, fred, bls, fedstress)
	Kind Kind `json:"type" yaml:"type"`

	// Config contains the kind-specific configuration
	Config map[string]interface{} `json:"config" yaml:"config"`

	// PrimaryKeys lists the column names that uniquely identify records.
	// The keys are declared, not enforced; see table.ValidatePrimaryKeys
	// for the optional post-fetch check.
	PrimaryKeys []string `json:"primaryKeys,omitempty" yaml:"primaryKeys,omitempty"`

	// Incremental indicates whether the source supports incremental fetching
	Incremental bool `json:"incremental,omitempty" yaml:"incremental,omitempty"`
}

// Record is one unit of fetched data as returned by a Source.
type Record struct {
	// Data is the field mapping for this record
	Data map[string]interface{} `json:"data"`
}

// FetchResult is the outcome of a single fetch operation.
type FetchResult struct {
	// Records is the ordered sequence of fetched records (may be empty)
	Records []Record `json:"records"`
}

// Source fetches data from an external system.
type Source interface {
	// Fetch retrieves data using the given parameters.
	// The context can be used to cancel the underlying network calls.
	Fetch(ctx context.Context, params map[string]interface{}) (*FetchResult, error)

	// Close releases any resources held by the source.
	Close() error
}

// Registry instantiates fetch sources from configuration.
// Any compliant implementation can be substituted; the default one lives
// in internal/registry.
type Registry interface {
	// CreateSource returns a runnable Source for the given configuration.
	CreateSource(cfg *Config) (Source, error)
}
