package ledger

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"museumscraper/pkg/models"
)

// Deferred reads an existing ledger up front but creates or opens the file
// for writing only on the first Append. A run that saves nothing leaves the
// output directory as it was.
type Deferred struct {
	format  string
	path    string
	records []models.Record
	ledger  Ledger
	mu      sync.Mutex
}

// OpenDeferred loads the records already at path, if any
func OpenDeferred(format, path string) (*Deferred, error) {
	format = normalizeFormat(format)
	if format != FormatCSV && format != FormatJSON {
		return nil, fmt.Errorf("unsupported ledger format %q (expected csv or json)", format)
	}

	records, err := Load(format, path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	return &Deferred{
		format:  format,
		path:    path,
		records: records,
	}, nil
}

func (d *Deferred) Append(record models.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ledger == nil {
		l, err := Open(d.format, d.path)
		if err != nil {
			return err
		}
		d.ledger = l
		d.records = nil
	}
	return d.ledger.Append(record)
}

func (d *Deferred) Records() []models.Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ledger != nil {
		return d.ledger.Records()
	}
	return slices.Clone(d.records)
}

func (d *Deferred) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ledger != nil {
		return d.ledger.Len()
	}
	return len(d.records)
}

func (d *Deferred) Path() string {
	return d.path
}

func (d *Deferred) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ledger == nil {
		return nil
	}
	return d.ledger.Close()
}
