package ledger

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"
	"museumscraper/pkg/models"
)

// Export writes records to path as a JSON array or a Parquet file
func Export(records []models.Record, format, path string) error {
	switch normalizeFormat(format) {
	case FormatJSON:
		return writeJSON(path, records)
	case FormatParquet:
		return writeParquet(path, records)
	default:
		return fmt.Errorf("unsupported export format %q (expected json or parquet)", format)
	}
}

func writeParquet(path string, records []models.Record) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	writer := parquet.NewGenericWriter[models.Record](file)
	if _, err := writer.Write(records); err != nil {
		writer.Close()
		file.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		file.Close()
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return file.Close()
}
