// Package main provides the CLI entry point for the databridge tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/derpledex/databridge/internal/bridge"
	"github.com/derpledex/databridge/internal/cli"
	"github.com/derpledex/databridge/internal/config"
	"github.com/derpledex/databridge/internal/consonance"
	"github.com/derpledex/databridge/internal/logger"
	"github.com/derpledex/databridge/internal/pathutil"
	"github.com/derpledex/databridge/internal/registry"
	"github.com/derpledex/databridge/internal/rowfilter"
	"github.com/derpledex/databridge/internal/table"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitValidationError = 1
	ExitParseError      = 2
	ExitRuntimeError    = 3
)

var (
	// Global flags
	verbose   bool
	quiet     bool
	logFormat string

	// Fetch command flags
	fetchSource  string
	fetchWhere   string
	fetchFormat  string
	fetchOutput  string
	checkKeys    bool
	fetchTimeout time.Duration

	// Plot command flags
	plotOutput string
	plotWidth  int
	plotHeight int
	plotF0     float64
	plotTitle  string

	// Build information (set via ldflags during build)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitRuntimeError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "databridge",
	Short: "Databridge - Market and macro data fetcher",
	Long: `Databridge fetches records from financial and economic data
services (price history, RSS feeds, FRED macro series, BLS labor
series, Fed stress-test scenarios) and flattens them into tables
annotated with source and fetch-time provenance columns.

Examples:
  # Validate a source configuration file
  databridge validate sources.yaml

  # Fetch one configured source as CSV
  databridge fetch sources.yaml --source us_indices

  # Fetch, filter rows, and write JSON to a file
  databridge fetch sources.yaml --source fred_macro --where 'value > 100' --format json --output macro.json

  # Render the consonance interaction chart
  databridge plot --output thumbnail.png`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		} else if quiet {
			level = slog.LevelError
		}

		format := logger.FormatHuman
		if logFormat == "json" {
			format = logger.FormatJSON
		}
		logger.SetLevelAndFormat(level, format)
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <sources-file>",
	Short: "Fetch records from a configured source",
	Long: `Fetch records from one source defined in the configuration file.

The configuration file is validated against the schema before any
network call. The fetched table is written to stdout (or --output)
as CSV or JSON, with the _source_id and _fetched_at provenance
columns appended to every row.

Exit codes:
  0 - Fetch succeeded
  1 - Validation errors (schema or primary key violations)
  2 - Parse errors (invalid JSON/YAML syntax)
  3 - Runtime errors (fetch or output failures)

Examples:
  databridge fetch sources.yaml --source us_indices
  databridge fetch sources.yaml --source fed_news --format json
  databridge fetch sources.yaml --source fred_macro --where 'series_id == "GDP"' --check-keys`,
	Args: cobra.ExactArgs(1),
	Run:  runFetch,
}

var validateCmd = &cobra.Command{
	Use:   "validate <sources-file>",
	Short: "Validate a source configuration file",
	Long: `Validate a source configuration file against the schema.

Supports both JSON and YAML formats. The format is auto-detected
based on file extension (.json, .yaml, .yml) or content.

Exit codes:
  0 - Configuration is valid
  1 - Validation errors (schema violations)
  2 - Parse errors (invalid JSON/YAML syntax)

Examples:
  databridge validate sources.json
  databridge validate --verbose sources.yaml`,
	Args: cobra.ExactArgs(1),
	Run:  runValidate,
}

var sourcesCmd = &cobra.Command{
	Use:   "sources [sources-file]",
	Short: "List registered source kinds or configured sources",
	Long: `Without an argument, list the source kinds registered in this
build. With a configuration file, list the sources it defines.

Examples:
  databridge sources
  databridge sources sources.yaml --verbose`,
	Args: cobra.MaximumNArgs(1),
	Run:  runSources,
}

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render the consonance interaction density chart",
	Long: `Render the acoustic roughness and partial-interaction density
chart for four musical intervals to a PNG file.

Examples:
  databridge plot
  databridge plot --output thumbnail.png --width 1600 --height 800`,
	Run: runPlot,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version, commit hash, and build date information.",
	Run:   runVersion,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "human", "Log format: human or json")

	// Fetch command flags
	fetchCmd.Flags().StringVar(&fetchSource, "source", "", "ID of the source to fetch (required)")
	fetchCmd.Flags().StringVar(&fetchWhere, "where", "", "Expression to filter rows, e.g. 'value > 100'")
	fetchCmd.Flags().StringVar(&fetchFormat, "format", "csv", "Output format: csv or json")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "Output file (default stdout)")
	fetchCmd.Flags().BoolVar(&checkKeys, "check-keys", false, "Validate primary key uniqueness on the fetched table")
	fetchCmd.Flags().DurationVar(&fetchTimeout, "timeout", 0, "Overall fetch timeout, e.g. 30s (0 means no timeout)")
	_ = fetchCmd.MarkFlagRequired("source")

	// Plot command flags
	plotCmd.Flags().StringVarP(&plotOutput, "output", "o", "thumbnail.png", "Output PNG file")
	plotCmd.Flags().IntVar(&plotWidth, "width", 1200, "Image width in pixels")
	plotCmd.Flags().IntVar(&plotHeight, "height", 600, "Image height in pixels")
	plotCmd.Flags().Float64Var(&plotF0, "f0", consonance.DefaultFundamental, "Fundamental frequency in Hz")
	plotCmd.Flags().StringVar(&plotTitle, "title", "", "Chart title")

	// Add commands
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(plotCmd)
	rootCmd.AddCommand(versionCmd)
}

// parseSourcesOrExit parses and validates the sources file, exiting
// with the appropriate code on parse or validation errors.
func parseSourcesOrExit(path string) map[string]interface{} {
	result := config.ParseSourcesFile(path)

	if len(result.ParseErrors) > 0 {
		cli.PrintParseErrors(result.ParseErrors, verbose)
		os.Exit(ExitParseError)
	}

	if len(result.ValidationErrors) > 0 {
		cli.PrintValidationErrors(result.ValidationErrors, verbose, quiet)
		os.Exit(ExitValidationError)
	}

	return result.Data
}

func runFetch(_ *cobra.Command, args []string) {
	configPath := args[0]
	startTime := time.Now()

	data := parseSourcesOrExit(configPath)

	configs, err := config.ConvertToConfigs(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Failed to convert configuration: %v\n", err)
		os.Exit(ExitRuntimeError)
	}

	cfg, err := config.FindSource(configs, fetchSource)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(ExitValidationError)
	}

	var filter *rowfilter.Filter
	if fetchWhere != "" {
		filter, err = rowfilter.New(fetchWhere)
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ Invalid --where expression: %v\n", err)
			os.Exit(ExitValidationError)
		}
	}

	if fetchFormat != "csv" && fetchFormat != "json" {
		fmt.Fprintf(os.Stderr, "✗ Unsupported format: %s (expected csv or json)\n", fetchFormat)
		os.Exit(ExitValidationError)
	}

	ctx := context.Background()
	if fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
	}

	b := bridge.New(registry.Default())
	tbl, err := b.FetchWithConfig(ctx, cfg.ID, cfg.Kind, cfg.Config, cfg.PrimaryKeys, cfg.Incremental, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Fetch failed: %v\n", err)
		os.Exit(ExitRuntimeError)
	}

	if filter != nil {
		tbl, err = filter.Apply(tbl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ Row filter failed: %v\n", err)
			os.Exit(ExitRuntimeError)
		}
	}

	if checkKeys && len(cfg.PrimaryKeys) > 0 {
		if err := tbl.ValidatePrimaryKeys(cfg.PrimaryKeys); err != nil {
			var dupErr *table.DuplicateKeyError
			if errors.As(err, &dupErr) {
				cli.PrintDuplicateKeyError(dupErr)
			} else {
				fmt.Fprintf(os.Stderr, "✗ Primary key check failed: %v\n", err)
			}
			os.Exit(ExitValidationError)
		}
	}

	if err := writeTable(tbl, fetchFormat, fetchOutput); err != nil {
		fmt.Fprintf(os.Stderr, "✗ Failed to write output: %v\n", err)
		os.Exit(ExitRuntimeError)
	}

	cli.PrintFetchSummary(tbl, cfg.ID, time.Since(startTime), cli.OutputOptions{Verbose: verbose, Quiet: quiet})
	os.Exit(ExitSuccess)
}

// writeTable writes the table to path (or stdout when path is empty)
// in the requested format.
func writeTable(tbl *table.Table, format, path string) error {
	var w io.Writer = os.Stdout
	if path != "" {
		if err := pathutil.ValidateFilePath(path); err != nil {
			return err
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "json":
		return tbl.WriteJSON(w)
	default:
		return tbl.WriteCSV(w)
	}
}

func runValidate(_ *cobra.Command, args []string) {
	configPath := args[0]

	if !quiet {
		fmt.Printf("Validating configuration: %s\n", configPath)
	}

	result := config.ParseSourcesFile(configPath)

	if len(result.ParseErrors) > 0 {
		cli.PrintParseErrors(result.ParseErrors, verbose)
		os.Exit(ExitParseError)
	}

	if len(result.ValidationErrors) > 0 {
		cli.PrintValidationErrors(result.ValidationErrors, verbose, quiet)
		os.Exit(ExitValidationError)
	}

	if !quiet {
		fmt.Printf("✓ Configuration is valid (format: %s)\n", result.Format)

		if verbose {
			if configs, err := config.ConvertToConfigs(result.Data); err == nil {
				cli.PrintSourceConfigs(configs, false)
			}
		}
	}

	os.Exit(ExitSuccess)
}

func runSources(_ *cobra.Command, args []string) {
	if len(args) == 0 {
		cli.PrintKinds(registry.Kinds())
		os.Exit(ExitSuccess)
	}

	data := parseSourcesOrExit(args[0])

	configs, err := config.ConvertToConfigs(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ Failed to convert configuration: %v\n", err)
		os.Exit(ExitRuntimeError)
	}

	cli.PrintSourceConfigs(configs, verbose)
	os.Exit(ExitSuccess)
}

func runPlot(_ *cobra.Command, _ []string) {
	if err := pathutil.ValidateFilePath(plotOutput); err != nil {
		fmt.Fprintf(os.Stderr, "✗ Invalid output path: %v\n", err)
		os.Exit(ExitValidationError)
	}

	opts := consonance.RenderOptions{
		Fundamental: plotF0,
		Width:       plotWidth,
		Height:      plotHeight,
		Title:       plotTitle,
	}

	if err := consonance.SavePNG(plotOutput, opts); err != nil {
		fmt.Fprintf(os.Stderr, "✗ Failed to render chart: %v\n", err)
		os.Exit(ExitRuntimeError)
	}

	if !quiet {
		fmt.Printf("✓ Chart saved: %s\n", plotOutput)
	}

	os.Exit(ExitSuccess)
}

func runVersion(_ *cobra.Command, _ []string) {
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Commit: %s\n", commit)
	fmt.Printf("Build Date: %s\n", buildDate)
}
