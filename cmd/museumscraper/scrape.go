package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"museumscraper/pkg/config"
	"museumscraper/pkg/logger"
	"museumscraper/pkg/scraper"
	"museumscraper/pkg/ui"
)

var (
	resumeRun    bool
	forceRestart bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch one catalogue page and process every object on it",
	Long: `Request one page of the catalogue (count ids from start) and process each
object in turn: fetch its detail record, download the image into a folder
named after the author, append a ledger row.

Failed objects go to the retry log. After the page is done the next offset
is stored in the checkpoint file; --resume starts from there.`,
	Example: `  # Default fund and sort order
  museumscraper scrape

  # Two funds, 500 objects, JSON ledger in ./harvest
  museumscraper scrape --fund 14 --fund 15 --count 500 -f json -o ./harvest

  # Continue from the checkpoint
  museumscraper scrape --resume

  # Slow down to one object every three seconds
  museumscraper scrape --delay 3s`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	for _, cmd := range []*cobra.Command{rootCmd, scrapeCmd} {
		addOutputFlags(cmd.Flags())
		addCatalogueFlags(cmd.Flags())
		cmd.Flags().BoolVar(&resumeRun, "resume", false, "start from the checkpointed offset")
		cmd.Flags().BoolVar(&forceRestart, "force-restart", false, "delete the checkpoint before running")
	}
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	tracker := ui.NewStatusTracker(cfg.Museum.Count)
	session, err := newSession(cfg, tracker)
	if err != nil {
		ui.PrintError("Failed to initialize scraper", err.Error())
		return err
	}
	defer session.Close()

	if forceRestart {
		if err := session.Checkpoints().Delete(); err != nil {
			logger.WithError(err).Warn("Failed to delete checkpoint")
		}
		ui.PrintInfo("Force restart", "checkpoint removed")
	}

	printTarget(cfg)

	summary, err := session.Run(cmd.Context(), scraper.RunOptions{Resume: resumeRun})
	if err != nil {
		ui.PrintError("Scrape failed", err.Error())
		return err
	}

	tracker.PrintSummary(summary.Interrupted)
	if summary.Failed > 0 {
		ui.PrintInfo("Retry log", cfg.RetryLogPath())
	}
	return nil
}

// newSession builds a session whose per-object results feed tracker
func newSession(cfg *config.Config, tracker *ui.StatusTracker) (*scraper.Session, error) {
	return scraper.New(cfg,
		scraper.WithLogger(logger.GetLogger()),
		scraper.WithResultHandler(func(r scraper.Result) {
			tracker.Total = r.Total
			if r.Err != nil {
				tracker.RecordFailure(r.ID.String(), r.Err)
				return
			}
			tracker.RecordSuccess(r.ID.String(), r.Record.Folder, r.Record.Image)
		}),
	)
}

func printTarget(cfg *config.Config) {
	ui.PrintInfo("Collection", cfg.Museum.BaseURL)
	ui.PrintInfo("Funds", strings.Join(cfg.Museum.Funds, ", "))
	ui.PrintInfo("Page", fmt.Sprintf("start %d, count %d", cfg.Museum.Start, cfg.Museum.Count))
	ui.PrintInfo("Ledger", fmt.Sprintf("%s (%s)", cfg.LedgerPath(), cfg.Output.LedgerFormat))
}
