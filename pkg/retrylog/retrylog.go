// Package retrylog records object ids whose processing failed so they can
// be replayed later. The file holds one id per line and only ever grows.
package retrylog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"museumscraper/pkg/models"
)

// Log is an append-only file of object ids
type Log struct {
	path string
	mu   sync.Mutex
}

// New returns a log backed by path. The file is created on first append.
func New(path string) *Log {
	return &Log{path: path}
}

func (l *Log) Path() string {
	return l.path
}

// Append adds id as a new line
func (l *Log) Append(id models.ObjectID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create retry log directory: %w", err)
		}
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open retry log: %w", err)
	}

	if _, err := file.WriteString(id.String() + "\n"); err != nil {
		file.Close()
		return fmt.Errorf("failed to append to retry log: %w", err)
	}
	return file.Close()
}

// Replay returns the logged ids in file order. Lines are taken verbatim,
// duplicates included; blank lines are skipped. A missing file is an empty
// log.
func (l *Log) Replay() ([]models.ObjectID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open retry log: %w", err)
	}
	defer file.Close()

	var ids []models.ObjectID
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		ids = append(ids, models.ObjectID(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read retry log: %w", err)
	}
	return ids, nil
}

// Unique drops repeated ids, keeping the first occurrence of each
func Unique(ids []models.ObjectID) []models.ObjectID {
	seen := make(map[models.ObjectID]struct{}, len(ids))
	out := make([]models.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
