// Package registry maps source configurations to runnable fetch sources.
//
// # Overview
//
// The registry package enables extensible source registration for the
// databridge runtime. Instead of hard-coded switch statements, sources
// register their constructors by kind string. This allows contributors to
// add new source kinds without modifying the bridge.
//
// # Adding a New Source Kind
//
// To add a new source kind (e.g., a "sec" filings source):
//
//  1. Implement the source.Source interface
//  2. Create a constructor function matching the registry signature
//  3. Register the constructor in an init() function
//
// Example:
//
//	func init() {
//	    registry.Register("sec", func(cfg *source.Config) (source.Source, error) {
//	        return NewFilingsFromConfig(cfg)
//	    })
//	}
//
// # Built-in Sources
//
// Built-in sources (yfinance, rss, fred, bls, fedstress) are registered
// automatically at startup via init() functions.
//
// # Stub Fallback
//
// Unknown kinds resolve to a stub source that logs its invocation and
// returns sample records. This allows configurations to run even with
// unimplemented source kinds (useful for testing and development).
package registry

import (
	"sort"
	"sync"

	"github.com/derpledex/databridge/internal/sources"
	"github.com/derpledex/databridge/pkg/source"
)

// Constructor is a function that creates a fetch source from configuration.
type Constructor func(cfg *source.Config) (source.Source, error)

var (
	mu           sync.RWMutex
	constructors = make(map[source.Kind]Constructor)
)

// Register registers a source constructor by kind.
// Calling Register with an already registered kind will overwrite the
// previous constructor.
//
// This function is safe for concurrent use and is typically called from
// init() functions.
func Register(kind source.Kind, constructor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	constructors[kind] = constructor
}

// ConstructorFor returns the registered constructor for a source kind.
// Returns nil if no constructor is registered for the given kind.
func ConstructorFor(kind source.Kind) Constructor {
	mu.RLock()
	defer mu.RUnlock()
	return constructors[kind]
}

// Kinds returns all registered source kinds, sorted.
// Useful for documentation and the CLI sources listing.
func Kinds() []source.Kind {
	mu.RLock()
	defer mu.RUnlock()
	kinds := make([]source.Kind, 0, len(constructors))
	for k := range constructors {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Clear removes all registered constructors.
// This is intended for testing purposes only.
func Clear() {
	mu.Lock()
	defer mu.Unlock()
	constructors = make(map[source.Kind]Constructor)
}

// Registry is the default source.Registry implementation backed by the
// package-level constructor map.
type Registry struct{}

// Default returns the default registry.
func Default() *Registry {
	return &Registry{}
}

// CreateSource creates a fetch source instance from configuration.
// Unregistered kinds fall back to a stub source.
func (r *Registry) CreateSource(cfg *source.Config) (source.Source, error) {
	if cfg == nil {
		return nil, sources.ErrNilConfig
	}

	if constructor := ConstructorFor(cfg.Kind); constructor != nil {
		return constructor(cfg)
	}

	return sources.NewStub(string(cfg.Kind), cfg.ID), nil
}

// Verify Registry implements source.Registry
var _ source.Registry = (*Registry)(nil)
