package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"museumscraper/pkg/ledger"
	"museumscraper/pkg/logger"
	"museumscraper/pkg/ui"
)

var (
	exportIn     string
	exportOut    string
	exportFormat string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the ledger as JSON or Parquet",
	Long: `Load the current ledger (CSV or JSON) and write its records in another
format. Parquet output keeps one column per ledger field and can be read
by any Parquet tool.`,
	Example: `  # Ledger -> out.parquet
  museumscraper export --format parquet

  # JSON ledger -> explicit file
  museumscraper export --in out.json --format parquet --out objects.parquet`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "base directory of the ledger")
	exportCmd.Flags().StringVar(&exportIn, "in", "", "ledger to read (default: configured ledger)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "file to write (default: input with the format's extension)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", ledger.FormatParquet, "output format (json, parquet)")
}

func runExport(cmd *cobra.Command, args []string) error {
	flags := collectFlags(cmd)
	// --format names the export target here, not the ledger format
	delete(flags, "format")

	cfg, err := loadConfigWithFlags(cmd, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	in := exportIn
	inFormat := cfg.Output.LedgerFormat
	if in == "" {
		in = cfg.LedgerPath()
	} else {
		inFormat = ledger.FormatFromPath(in)
	}

	out := exportOut
	if out == "" {
		out = swapExt(in, "."+exportFormat)
	}
	if err := checkTarget(out, in, cfg.LedgerPath()); err != nil {
		ui.PrintError("Export failed", err.Error())
		return err
	}

	n, err := convertLedger(in, inFormat, out, exportFormat)
	if err != nil {
		ui.PrintError("Export failed", err.Error())
		return err
	}

	logger.WithFields(map[string]interface{}{
		"in":      in,
		"out":     out,
		"format":  exportFormat,
		"records": n,
	}).Info("Ledger exported")
	ui.PrintSuccess(fmt.Sprintf("Exported %d records to %s", n, out))
	return nil
}
