package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"museumscraper/pkg/config"
	"museumscraper/pkg/ui"
)

const defaultConfigName = ".museumscraper.yaml"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage museumscraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (MUSEUMSCRAPER_*, also read from .env)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with the default values",
	Long: `Write every option with its default value to a YAML file.

The file is created as '.museumscraper.yaml' in the current directory
unless a different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration from all sources and report every invalid value.

This command checks:
  - YAML syntax
  - Required fields
  - Value ranges
  - Output directory accessibility`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

// writeDefaultConfig writes the default configuration to path. It refuses
// to overwrite an existing file.
func writeDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	return config.DefaultConfig().Save(path)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = defaultConfigName
	}

	if err := writeDefaultConfig(configPath); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		return err
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Fprintln(ui.Output, "\nNext steps:")
	fmt.Fprintln(ui.Output, "1. Set museum.funds and museum.base_url for your collection")
	fmt.Fprintln(ui.Output, "2. Run 'museumscraper config validate' to check the configuration")
	fmt.Fprintln(ui.Output, "3. Start with 'museumscraper scrape'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, collectFlags(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		return err
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprintln(ui.Output)
	fmt.Fprint(ui.Output, string(data))

	fmt.Fprintln(ui.Output, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(ui.Output, "1. Command line flags")
	fmt.Fprintln(ui.Output, "2. Environment variables (MUSEUMSCRAPER_*)")
	if configFile != "" {
		fmt.Fprintf(ui.Output, "3. Configuration file: %s\n", configFile)
	} else {
		fmt.Fprintln(ui.Output, "3. Configuration file: (searched in default locations)")
	}
	fmt.Fprintln(ui.Output, "4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, collectFlags(cmd))
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		return err
	}

	var problems []error
	if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
		problems = append(problems, fmt.Errorf("cannot create output directory: %w", err))
	}
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			problems = append(problems, fmt.Errorf("cannot open log file: %w", err))
		} else {
			f.Close()
		}
	}
	if err := errors.Join(problems...); err != nil {
		ui.PrintError("Configuration has errors", err.Error())
		return err
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Collection", cfg.Museum.BaseURL)
	ui.PrintInfo("Ledger", fmt.Sprintf("%s (%s)", cfg.LedgerPath(), cfg.Output.LedgerFormat))
	ui.PrintInfo("Retry log", cfg.RetryLogPath())
	ui.PrintInfo("Images", cfg.ImagesPath())
	ui.PrintInfo("Rate limit", fmt.Sprintf("%s, delay %s", cfg.RateLimit.Strategy, cfg.RateLimit.Delay))
	ui.PrintInfo("Log level", cfg.Logging.Level)
	return nil
}
