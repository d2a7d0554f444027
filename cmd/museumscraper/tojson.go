package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"museumscraper/pkg/ledger"
	"museumscraper/pkg/logger"
	"museumscraper/pkg/ui"
)

var (
	toJSONIn  string
	toJSONOut string
)

// toJSONCmd represents the to-json command
var toJSONCmd = &cobra.Command{
	Use:   "to-json",
	Short: "Convert the CSV ledger to a JSON array",
	Long: `Read the semicolon separated ledger and write the same records as one JSON
array. No network requests are made.`,
	Example: `  # out.csv -> out.json in the output directory
  museumscraper to-json

  # Explicit files
  museumscraper to-json --in harvest.csv --out harvest.json`,
	Args: cobra.NoArgs,
	RunE: runToJSON,
}

func init() {
	rootCmd.AddCommand(toJSONCmd)

	toJSONCmd.Flags().StringP("output", "o", "", "base directory of the ledger")
	toJSONCmd.Flags().StringVar(&toJSONIn, "in", "", "CSV ledger to read (default <output>/out.csv)")
	toJSONCmd.Flags().StringVar(&toJSONOut, "out", "", "JSON file to write (default: input with .json extension)")
}

func runToJSON(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	in := toJSONIn
	if in == "" {
		if cfg.Output.LedgerFormat == ledger.FormatCSV {
			in = cfg.LedgerPath()
		} else {
			in = filepath.Join(cfg.Output.BaseDirectory, "out.csv")
		}
	}
	out := toJSONOut
	if out == "" {
		out = swapExt(in, ".json")
	}
	if err := checkTarget(out, in, cfg.LedgerPath()); err != nil {
		ui.PrintError("Conversion failed", err.Error())
		return err
	}

	n, err := convertLedger(in, ledger.FormatCSV, out, ledger.FormatJSON)
	if err != nil {
		ui.PrintError("Conversion failed", err.Error())
		return err
	}

	logger.WithFields(map[string]interface{}{
		"in":      in,
		"out":     out,
		"records": n,
	}).Info("Ledger converted to JSON")
	ui.PrintSuccess(fmt.Sprintf("Wrote %d records to %s", n, out))
	return nil
}
