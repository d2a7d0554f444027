package main

import (
	"github.com/spf13/cobra"
	"museumscraper/pkg/ui"
)

var dedupeLog bool

// fromLogCmd represents the from-log command
var fromLogCmd = &cobra.Command{
	Use:   "from-log",
	Short: "Reprocess the objects listed in the retry log",
	Long: `Read the retry log and process every id in it, in file order, exactly like
a catalogue run would. The log is never truncated: ids that fail again are
appended once more.

With --dedupe an id listed several times is processed only once.`,
	Example: `  # Replay every line
  museumscraper from-log

  # Replay each failing id once
  museumscraper from-log --dedupe`,
	Args: cobra.NoArgs,
	RunE: runFromLog,
}

func init() {
	rootCmd.AddCommand(fromLogCmd)

	addOutputFlags(fromLogCmd.Flags())
	fromLogCmd.Flags().BoolVar(&dedupeLog, "dedupe", false, "process repeated ids once")
}

func runFromLog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	tracker := ui.NewStatusTracker(0)
	session, err := newSession(cfg, tracker)
	if err != nil {
		ui.PrintError("Failed to initialize scraper", err.Error())
		return err
	}
	defer session.Close()

	ui.PrintInfo("Retry log", cfg.RetryLogPath())

	summary, err := session.Replay(cmd.Context(), dedupeLog)
	if err != nil {
		ui.PrintError("Replay failed", err.Error())
		return err
	}

	if summary.Processed == 0 && !summary.Interrupted {
		ui.PrintSuccess("Retry log is empty, nothing to do")
		return nil
	}
	tracker.PrintSummary(summary.Interrupted)
	return nil
}
