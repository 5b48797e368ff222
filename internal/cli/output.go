// Package cli provides CLI output formatting and display functions.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/derpledex/databridge/internal/table"
	"github.com/derpledex/databridge/pkg/source"
)

// OutputOptions configures CLI output behavior.
type OutputOptions struct {
	Verbose bool
	Quiet   bool
}

// PrintFetchSummary displays the outcome of a fetch to stderr, keeping
// stdout free for the table itself.
func PrintFetchSummary(tbl *table.Table, sourceID string, elapsed time.Duration, opts OutputOptions) {
	if opts.Quiet {
		return
	}

	if tbl.Empty() {
		fmt.Fprintf(os.Stderr, "✓ Fetch completed: %s returned no records\n", sourceID)
		return
	}

	fmt.Fprintf(os.Stderr, "✓ Fetch completed: %s\n", sourceID)
	fmt.Fprintf(os.Stderr, "  Records: %d\n", tbl.Len())
	if opts.Verbose {
		fmt.Fprintf(os.Stderr, "  Columns: %s\n", strings.Join(tbl.Columns(), ", "))
		fmt.Fprintf(os.Stderr, "  Duration: %v\n", elapsed.Round(time.Millisecond))
	}
}

// PrintSourceConfigs lists the configured sources.
func PrintSourceConfigs(configs []source.Config, verbose bool) {
	fmt.Printf("Configured sources (%d):\n", len(configs))
	for _, cfg := range configs {
		fmt.Printf("  %s (%s)\n", cfg.ID, cfg.Kind)
		if verbose {
			if len(cfg.PrimaryKeys) > 0 {
				fmt.Printf("    Primary keys: %s\n", strings.Join(cfg.PrimaryKeys, ", "))
			}
			fmt.Printf("    Incremental: %v\n", cfg.Incremental)
		}
	}
}

// PrintKinds lists the registered source kinds.
func PrintKinds(kinds []source.Kind) {
	fmt.Printf("Registered source kinds (%d):\n", len(kinds))
	for _, kind := range kinds {
		fmt.Printf("  %s\n", kind)
	}
}

// PrintDuplicateKeyError describes a primary key violation to stderr.
func PrintDuplicateKeyError(err *table.DuplicateKeyError) {
	fmt.Fprintln(os.Stderr, "✗ Primary key violation:")
	fmt.Fprintf(os.Stderr, "  Keys: %s\n", strings.Join(err.Keys, ", "))
	fmt.Fprintf(os.Stderr, "  Values: %v\n", err.Values)
	fmt.Fprintf(os.Stderr, "  Rows: %d and %d\n", err.FirstRow, err.DuplicateRow)
}
