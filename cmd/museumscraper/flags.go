package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"museumscraper/pkg/config"
	"museumscraper/pkg/logger"
)

// addOutputFlags registers the flags shared by every command that writes
// to the ledger
func addOutputFlags(flags *pflag.FlagSet) {
	flags.StringP("output", "o", "", "base directory for ledger, retry log and images")
	flags.StringP("format", "f", "", "ledger format (csv, json)")
	flags.String("base-url", "", "collection root URL")
	flags.Duration("delay", 0, "minimum delay between object fetches")
	flags.String("rate-limit", "", "rate limit strategy (fixed, token_bucket, sliding_window)")
	flags.Duration("timeout", 0, "HTTP timeout per request")
}

// addCatalogueFlags registers the catalogue query flags
func addCatalogueFlags(flags *pflag.FlagSet) {
	flags.StringSlice("fund", nil, "fund filter, repeatable")
	flags.String("sort", "", "catalogue sort key")
	flags.Int("count", 0, "number of ids to request")
	flags.Int("start", 0, "catalogue offset")
}

// collectFlags returns the flags the user actually set, keyed the way
// config.MergeCommandLineFlags expects
func collectFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	set := cmd.Flags()

	for _, name := range []string{"output", "format", "base-url", "rate-limit", "sort", "log-level"} {
		if f := set.Lookup(name); f != nil && f.Changed {
			if v, err := set.GetString(name); err == nil {
				flags[name] = v
			}
		}
	}
	for _, name := range []string{"delay", "timeout"} {
		if f := set.Lookup(name); f != nil && f.Changed {
			if v, err := set.GetDuration(name); err == nil {
				flags[name] = v
			}
		}
	}
	for _, name := range []string{"count", "start"} {
		if f := set.Lookup(name); f != nil && f.Changed {
			if v, err := set.GetInt(name); err == nil {
				flags[name] = v
			}
		}
	}
	if f := set.Lookup("fund"); f != nil && f.Changed {
		if v, err := set.GetStringSlice("fund"); err == nil {
			flags["fund"] = v
		}
	}

	return flags
}

// loadConfig resolves the configuration for cmd and starts the logger
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return loadConfigWithFlags(cmd, collectFlags(cmd))
}

func loadConfigWithFlags(cmd *cobra.Command, flags map[string]interface{}) (*config.Config, error) {
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, err
	}
	logger.WithFields(map[string]interface{}{
		"version": version,
		"command": cmd.Name(),
	}).Info("museumscraper starting")

	return cfg, nil
}
