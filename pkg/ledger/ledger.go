package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"museumscraper/pkg/models"
)

// Supported ledger formats
const (
	FormatCSV     = "csv"
	FormatJSON    = "json"
	FormatParquet = "parquet"
)

// Ledger is the ordered list of records saved so far. Append persists the
// record before returning.
type Ledger interface {
	Append(record models.Record) error
	Records() []models.Record
	Len() int
	Path() string
	Close() error
}

// Open loads or creates the ledger at path in the given format
func Open(format, path string) (Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	switch normalizeFormat(format) {
	case FormatCSV:
		return OpenCSV(path)
	case FormatJSON:
		return OpenJSON(path)
	default:
		return nil, fmt.Errorf("unsupported ledger format %q (expected csv or json)", format)
	}
}

// Load reads all records of an existing ledger without keeping it open
func Load(format, path string) ([]models.Record, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("ledger %s: %w", path, err)
	}

	switch normalizeFormat(format) {
	case FormatCSV:
		return readCSV(path)
	case FormatJSON:
		return readJSON(path)
	default:
		return nil, fmt.Errorf("unsupported ledger format %q (expected csv or json)", format)
	}
}

// FormatFromPath guesses the ledger format from the file extension
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".parquet":
		return FormatParquet
	default:
		return FormatCSV
	}
}

func normalizeFormat(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}
