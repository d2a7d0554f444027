package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"museumscraper/pkg/ui"
)

var (
	// Version information, set with -ldflags at build time
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
)

// rootCmd runs a catalogue scrape when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "museumscraper",
	Short: "Harvest objects, metadata and images from a museum collection",
	Long: `museumscraper queries the search API of a museum collection, fetches the
detail record of every object it lists, downloads the object image into a
per-author folder and appends a row to a CSV or JSON ledger.

Objects that fail are written to a retry log; run 'museumscraper from-log'
to process them again.

Modes:
  museumscraper [scrape]   fetch one catalogue page and process its objects
  museumscraper to-json    convert the CSV ledger to JSON (no network)
  museumscraper from-log   reprocess the ids in the retry log
  museumscraper export     write the ledger as JSON or Parquet`,
	Example: `  # Scrape the default fund, 100 objects from offset 0
  museumscraper

  # Continue where the previous run stopped
  museumscraper scrape --resume

  # Retry failed objects once each
  museumscraper from-log --dedupe`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.SetColor(false)
		}
		if quiet {
			ui.SetQuietMode(true)
		}
		if !cmd.HasParent() || cmd.Name() == "scrape" || cmd.Name() == "from-log" {
			ui.PrintBanner()
		}
	},
	SilenceUsage: true,
	RunE:         runScrape,
}

func versionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, %s %s/%s)",
		version, gitCommit, buildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.museumscraper.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
