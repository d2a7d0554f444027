package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"museumscraper/pkg/logger"
)

// currentVersion is bumped when the file layout changes
const currentVersion = 1

// Checkpoint records where the next catalogue run should start for one
// fund/sort combination, plus running totals
type Checkpoint struct {
	Funds          []string  `json:"funds"`
	Sort           string    `json:"sort"`
	NextStart      int       `json:"next_start"`
	TotalProcessed int       `json:"total_processed"`
	TotalSucceeded int       `json:"total_succeeded"`
	TotalFailed    int       `json:"total_failed"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Version        int       `json:"version"`
}

// Matches reports whether the checkpoint was made for the same query
func (c *Checkpoint) Matches(funds []string, sort string) bool {
	return c.Sort == sort && slices.Equal(c.Funds, funds)
}

// Manager handles checkpoint operations
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

// NewManager creates a manager for the checkpoint file at path
func NewManager(path string, log logger.Logger) (*Manager, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Manager{
		checkpointPath: path,
		logger:         log,
	}, nil
}

// Path returns the checkpoint file location
func (m *Manager) Path() string {
	return m.checkpointPath
}

// Create starts a fresh checkpoint for a query and saves it
func (m *Manager) Create(funds []string, sort string, start int) (*Checkpoint, error) {
	now := time.Now()
	checkpoint := &Checkpoint{
		Funds:     slices.Clone(funds),
		Sort:      sort,
		NextStart: start,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   currentVersion,
	}

	if err := m.Save(checkpoint); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint created", map[string]interface{}{
		"funds": funds,
		"sort":  sort,
		"path":  m.checkpointPath,
	})

	return checkpoint, nil
}

// Load loads an existing checkpoint. It returns nil, nil when there is none.
func (m *Manager) Load() (*Checkpoint, error) {
	file, err := os.Open(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var checkpoint Checkpoint
	if err := json.NewDecoder(file).Decode(&checkpoint); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if checkpoint.Version > currentVersion {
		return nil, fmt.Errorf("checkpoint version %d is newer than supported version %d", checkpoint.Version, currentVersion)
	}

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"funds":      checkpoint.Funds,
		"next_start": checkpoint.NextStart,
		"processed":  checkpoint.TotalProcessed,
		"updated_at": checkpoint.UpdatedAt,
	})

	return &checkpoint, nil
}

// Save saves the checkpoint to disk atomically
func (m *Manager) Save(checkpoint *Checkpoint) error {
	checkpoint.UpdatedAt = time.Now()

	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(checkpoint); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"next_start": checkpoint.NextStart,
		"processed":  checkpoint.TotalProcessed,
	})

	return nil
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.Info("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// Advance moves the checkpoint past a finished catalogue page and adds
// the page's outcome to the totals
func (m *Manager) Advance(checkpoint *Checkpoint, nextStart, processed, succeeded, failed int) error {
	checkpoint.NextStart = nextStart
	checkpoint.TotalProcessed += processed
	checkpoint.TotalSucceeded += succeeded
	checkpoint.TotalFailed += failed
	return m.Save(checkpoint)
}

// ResumeStart returns the offset to start from for a query. Without a
// matching checkpoint it is fallback.
func (m *Manager) ResumeStart(funds []string, sort string, fallback int) (int, *Checkpoint, error) {
	checkpoint, err := m.Load()
	if err != nil {
		return fallback, nil, err
	}
	if checkpoint == nil {
		return fallback, nil, nil
	}
	if !checkpoint.Matches(funds, sort) {
		m.logger.WarnWithFields("Checkpoint belongs to a different query, ignoring it", map[string]interface{}{
			"checkpoint_funds": checkpoint.Funds,
			"checkpoint_sort":  checkpoint.Sort,
		})
		return fallback, nil, nil
	}
	return checkpoint.NextStart, checkpoint, nil
}
