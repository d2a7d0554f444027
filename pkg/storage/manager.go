package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Manager owns the images directory and its per-author folders
type Manager struct {
	imagesDir string
	unsorted  string
	ensured   map[string]bool
	mu        sync.Mutex
}

// NewManager creates the images directory if needed
func NewManager(imagesDir, unsortedFolder string) (*Manager, error) {
	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}
	if unsortedFolder == "" {
		unsortedFolder = DefaultUnsortedFolder
	}

	return &Manager{
		imagesDir: imagesDir,
		unsorted:  unsortedFolder,
		ensured:   make(map[string]bool),
	}, nil
}

// EnsureFolder makes sure the folder for author exists and returns its name.
// Calling it again for the same author is a no-op.
func (m *Manager) EnsureFolder(author string) (string, error) {
	folder := FolderName(author, m.unsorted)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ensured[folder] {
		return folder, nil
	}
	if err := os.MkdirAll(filepath.Join(m.imagesDir, folder), 0755); err != nil {
		return "", fmt.Errorf("failed to create folder %s: %w", folder, err)
	}
	m.ensured[folder] = true
	return folder, nil
}

// ImagePath returns where an image of folder/filename lives
func (m *Manager) ImagePath(folder, filename string) string {
	return filepath.Join(m.imagesDir, folder, filename)
}

// IsSaved reports whether folder/filename already exists on disk
func (m *Manager) IsSaved(folder, filename string) bool {
	_, err := os.Stat(m.ImagePath(folder, filename))
	return err == nil
}

// SaveImage streams r into folder/filename. The folder must already exist.
// Data goes to a temporary file that is renamed on success, so a failed
// download never leaves a partial image behind.
func (m *Manager) SaveImage(r io.Reader, folder, filename string) (int64, error) {
	dir := filepath.Join(m.imagesDir, folder)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return 0, fmt.Errorf("destination folder %s does not exist", dir)
	}

	target := m.ImagePath(folder, filename)
	tempFile := target + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	written, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to save image data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return 0, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return written, nil
}

// GetImagesDir returns the images root directory
func (m *Manager) GetImagesDir() string {
	return m.imagesDir
}
