package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"museumscraper/pkg/models"
)

// JSONLedger keeps the whole ledger as one JSON array. Every append
// rewrites the file.
type JSONLedger struct {
	path    string
	records []models.Record
	mu      sync.Mutex
}

// OpenJSON loads the array stored at path, if any
func OpenJSON(path string) (*JSONLedger, error) {
	records, err := readJSON(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	return &JSONLedger{
		path:    path,
		records: records,
	}, nil
}

// Append adds the record and rewrites the file
func (l *JSONLedger) Append(record models.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := append(slices.Clone(l.records), record)
	if err := writeJSON(l.path, next); err != nil {
		return err
	}
	l.records = next
	return nil
}

func (l *JSONLedger) Records() []models.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.records)
}

func (l *JSONLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

func (l *JSONLedger) Path() string {
	return l.path
}

func (l *JSONLedger) Close() error {
	return nil
}

func readJSON(path string) ([]models.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse ledger %s: %w", path, err)
	}
	return records, nil
}

// writeJSON replaces path atomically with the encoded records
func writeJSON(path string, records []models.Record) error {
	if records == nil {
		records = []models.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync ledger: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close ledger: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}
