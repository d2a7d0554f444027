package ledger

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"museumscraper/pkg/models"
)

// Delimiter separates CSV ledger columns
const Delimiter = ';'

// ledgerFile is the part of *os.File the CSV ledger writes through
type ledgerFile interface {
	io.Writer
	Sync() error
	Truncate(size int64) error
	Close() error
}

// CSVLedger appends semicolon separated rows to a file, one per record
type CSVLedger struct {
	path    string
	file    ledgerFile
	size    int64
	records []models.Record
	mu      sync.Mutex
}

// OpenCSV loads the existing rows at path and opens it for appending.
// A header is written when the file is new or empty.
func OpenCSV(path string) (*CSVLedger, error) {
	records, err := readCSV(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat ledger: %w", err)
	}

	l := &CSVLedger{
		path:    path,
		file:    file,
		size:    info.Size(),
		records: records,
	}

	if l.size == 0 {
		if err := l.writeRow(models.Columns); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write ledger header: %w", err)
		}
	}

	return l, nil
}

// Append writes one row and syncs it to disk. A failed write is cut back
// off the file so the next Append starts on a clean line.
func (l *CSVLedger) Append(record models.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writeRow(record.Row()); err != nil {
		return fmt.Errorf("failed to write ledger row: %w", err)
	}

	l.records = append(l.records, record)
	return nil
}

// writeRow encodes row on its own and writes it in one call
func (l *CSVLedger) writeRow(row []string) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	writer.Comma = Delimiter
	if err := writer.Write(row); err != nil {
		return err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	n, err := l.file.Write(buf.Bytes())
	if err == nil {
		err = l.file.Sync()
	}
	if err != nil {
		if n > 0 {
			if truncErr := l.file.Truncate(l.size); truncErr != nil {
				return errors.Join(err, fmt.Errorf("failed to drop partial row: %w", truncErr))
			}
		}
		return err
	}

	l.size += int64(n)
	return nil
}

func (l *CSVLedger) Records() []models.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.records)
}

func (l *CSVLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

func (l *CSVLedger) Path() string {
	return l.path
}

func (l *CSVLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// readCSV parses a ledger file, dropping the header row if present
func readCSV(path string) ([]models.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records []models.Record
	first := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse ledger %s: %w", path, err)
		}
		if first {
			first = false
			if slices.Equal(row, models.Columns) {
				continue
			}
		}
		records = append(records, models.RecordFromRow(row))
	}
	return records, nil
}
