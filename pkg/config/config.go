package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envPrefix is prepended to every environment variable the scraper reads
const envPrefix = "MUSEUMSCRAPER_"

// Config holds all configuration options for the catalogue scraper
type Config struct {
	// Remote collection API
	Museum MuseumConfig `yaml:"museum" json:"museum"`

	// Delay between object fetches
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Ledger, retry log and image locations
	Output OutputConfig `yaml:"output" json:"output"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// MuseumConfig describes the collection API and the catalogue query
type MuseumConfig struct {
	BaseURL     string   `yaml:"base_url" json:"base_url"`
	Funds       []string `yaml:"funds" json:"funds"`
	Sort        string   `yaml:"sort" json:"sort"`
	Query       string   `yaml:"query" json:"query"`
	Count       int      `yaml:"count" json:"count"`
	Start       int      `yaml:"start" json:"start"`
	UserAgent   string   `yaml:"user_agent" json:"user_agent"`
	ImageWidth  int      `yaml:"image_width" json:"image_width"`
	ImageHeight int      `yaml:"image_height" json:"image_height"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Strategy is "fixed" (sleep Delay between fetches), "token_bucket" or
	// "sliding_window"; the latter two are bounded by RequestsPerMinute
	Strategy          string        `yaml:"strategy" json:"strategy"`
	Delay             time.Duration `yaml:"delay" json:"delay"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// OutputConfig holds output file configuration
type OutputConfig struct {
	BaseDirectory   string `yaml:"base_directory" json:"base_directory"`
	ImagesDirectory string `yaml:"images_directory" json:"images_directory"`
	LedgerFile      string `yaml:"ledger_file" json:"ledger_file"`
	LedgerFormat    string `yaml:"ledger_format" json:"ledger_format"`
	RetryLogFile    string `yaml:"retry_log_file" json:"retry_log_file"`
	CheckpointFile  string `yaml:"checkpoint_file" json:"checkpoint_file"`
	UnsortedFolder  string `yaml:"unsorted_folder" json:"unsorted_folder"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Museum: MuseumConfig{
			BaseURL:     "https://collection.artsacademymuseum.org",
			Funds:       []string{"14"},
			Sort:        "90",
			Count:       100,
			Start:       0,
			UserAgent:   "museumscraper/1.0",
			ImageWidth:  3000,
			ImageHeight: 3000,
		},
		RateLimit: RateLimitConfig{
			Strategy:          "fixed",
			Delay:             time.Second,
			RequestsPerMinute: 60,
		},
		Output: OutputConfig{
			BaseDirectory:   ".",
			ImagesDirectory: "images",
			LedgerFile:      "out.csv",
			LedgerFormat:    "csv",
			RetryLogFile:    "log.txt",
			CheckpointFile:  ".museumscraper.checkpoint.json",
			UnsortedFolder:  "unsorted",
		},
		Download: DownloadConfig{
			Timeout: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv(envPrefix + "BASE_URL"); baseURL != "" {
		c.Museum.BaseURL = baseURL
	}
	if funds := os.Getenv(envPrefix + "FUNDS"); funds != "" {
		c.Museum.Funds = splitList(funds)
	}
	if sort := os.Getenv(envPrefix + "SORT"); sort != "" {
		c.Museum.Sort = sort
	}
	if userAgent := os.Getenv(envPrefix + "USER_AGENT"); userAgent != "" {
		c.Museum.UserAgent = userAgent
	}

	if count := os.Getenv(envPrefix + "COUNT"); count != "" {
		val, err := strconv.Atoi(count)
		if err != nil {
			return fmt.Errorf("invalid %sCOUNT: %w", envPrefix, err)
		}
		c.Museum.Count = val
	}
	if start := os.Getenv(envPrefix + "START"); start != "" {
		val, err := strconv.Atoi(start)
		if err != nil {
			return fmt.Errorf("invalid %sSTART: %w", envPrefix, err)
		}
		c.Museum.Start = val
	}

	if delay := os.Getenv(envPrefix + "DELAY"); delay != "" {
		val, err := time.ParseDuration(delay)
		if err != nil {
			return fmt.Errorf("invalid %sDELAY: %w", envPrefix, err)
		}
		c.RateLimit.Delay = val
	}

	if outputDir := os.Getenv(envPrefix + "OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if format := os.Getenv(envPrefix + "LEDGER_FORMAT"); format != "" {
		c.Output.LedgerFormat = strings.ToLower(format)
	}

	if logLevel := os.Getenv(envPrefix + "LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".museumscraper.yaml",
		".museumscraper.yml",
		filepath.Join(home, ".config", "museumscraper", "config.yaml"),
		filepath.Join(home, ".config", "museumscraper", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Museum.BaseURL == "" {
		errs = append(errs, errors.New("museum base URL is required"))
	} else if u, err := url.Parse(c.Museum.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("museum base URL %q is not an absolute URL", c.Museum.BaseURL))
	}
	if c.Museum.Count <= 0 {
		errs = append(errs, errors.New("catalogue count must be positive"))
	}
	if c.Museum.Start < 0 {
		errs = append(errs, errors.New("catalogue start cannot be negative"))
	}
	if c.Museum.ImageWidth < 0 || c.Museum.ImageHeight < 0 {
		errs = append(errs, errors.New("image size hints cannot be negative"))
	}

	switch strings.ToLower(c.RateLimit.Strategy) {
	case "fixed":
		if c.RateLimit.Delay < 0 {
			errs = append(errs, errors.New("rate limit delay cannot be negative"))
		}
	case "token_bucket", "sliding_window":
		if c.RateLimit.RequestsPerMinute <= 0 {
			errs = append(errs, errors.New("requests per minute must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid rate limit strategy %q", c.RateLimit.Strategy))
	}

	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	if c.Output.LedgerFile == "" {
		errs = append(errs, errors.New("ledger file is required"))
	}
	if c.Output.RetryLogFile == "" {
		errs = append(errs, errors.New("retry log file is required"))
	}
	if c.Output.UnsortedFolder == "" {
		errs = append(errs, errors.New("unsorted folder name is required"))
	}
	validFormats := map[string]bool{"csv": true, "json": true}
	if !validFormats[strings.ToLower(c.Output.LedgerFormat)] {
		errs = append(errs, fmt.Errorf("invalid ledger format %q", c.Output.LedgerFormat))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

const fileHeader = `# museumscraper configuration
#
# Every value can be overridden by an environment variable prefixed with
# MUSEUMSCRAPER_ (e.g. MUSEUMSCRAPER_FUNDS=14,15, MUSEUMSCRAPER_DELAY=2s)
# and by command line flags.

`

// Save writes the configuration as commented YAML, creating the directory
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append([]byte(fileHeader), data...)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.Museum.BaseURL = baseURL
	}
	if funds, ok := flags["fund"].([]string); ok && len(funds) > 0 {
		c.Museum.Funds = funds
	}
	if sort, ok := flags["sort"].(string); ok && sort != "" {
		c.Museum.Sort = sort
	}
	if count, ok := flags["count"].(int); ok {
		c.Museum.Count = count
	}
	if start, ok := flags["start"].(int); ok {
		c.Museum.Start = start
	}
	if delay, ok := flags["delay"].(time.Duration); ok {
		c.RateLimit.Delay = delay
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if format, ok := flags["format"].(string); ok && format != "" {
		c.Output.LedgerFormat = strings.ToLower(format)
	}
	if timeout, ok := flags["timeout"].(time.Duration); ok && timeout > 0 {
		c.Download.Timeout = timeout
	}
	if strategy, ok := flags["rate-limit"].(string); ok && strategy != "" {
		c.RateLimit.Strategy = strings.ToLower(strategy)
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// LedgerPath returns the ledger file path resolved against the base directory
func (c *Config) LedgerPath() string {
	return c.resolve(c.Output.LedgerFile)
}

// RetryLogPath returns the retry log path resolved against the base directory
func (c *Config) RetryLogPath() string {
	return c.resolve(c.Output.RetryLogFile)
}

// ImagesPath returns the root directory for per-author image folders
func (c *Config) ImagesPath() string {
	return c.resolve(c.Output.ImagesDirectory)
}

// CheckpointPath returns the checkpoint file path
func (c *Config) CheckpointPath() string {
	return c.resolve(c.Output.CheckpointFile)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Output.BaseDirectory, p)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".museumscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	// a JSON ledger keeps a .json name unless a file was chosen explicitly
	if strings.EqualFold(config.Output.LedgerFormat, "json") && config.Output.LedgerFile == "out.csv" {
		config.Output.LedgerFile = "out.json"
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
