// Package images re-encodes listing images into small square thumbnails and
// stores them next to the generated library page.
package images

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/boothvault/asset-library/internal/jsonfile"
)

// DefaultSubdir is the thumbnail directory under the output directory.
const DefaultSubdir = "thumbnails"

// Storage manages thumbnail files, one {id}.jpg per item.
// Safe for concurrent use.
type Storage struct {
	basePath string
	mu       sync.RWMutex
}

// NewStorage creates a Storage rooted at {outputDir}/thumbnails.
func NewStorage(outputDir string) (*Storage, error) {
	return NewStorageWithSubdir(outputDir, DefaultSubdir)
}

// NewStorageWithSubdir creates a Storage rooted at {baseDir}/{subdir} and
// makes sure the directory exists.
func NewStorageWithSubdir(baseDir, subdir string) (*Storage, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if subdir == "" {
		return nil, fmt.Errorf("subdirectory cannot be empty")
	}

	storagePath := filepath.Join(baseDir, subdir)
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", subdir, err)
	}

	return &Storage{basePath: storagePath}, nil
}

// Save atomically replaces the thumbnail of id.
func (s *Storage) Save(id string, data []byte) error {
	if id == "" {
		return fmt.Errorf("ID cannot be empty")
	}
	if len(data) == 0 {
		return fmt.Errorf("image data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return jsonfile.WriteAtomic(s.Path(id), data, 0o644)
}

// Exists reports whether id has a thumbnail on disk.
func (s *Storage) Exists(id string) bool {
	if id == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path(id))
	return err == nil
}

// Delete removes the thumbnail of id. A missing file is not an error.
func (s *Storage) Delete(id string) error {
	if id == "" {
		return fmt.Errorf("ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete thumbnail: %w", err)
	}
	return nil
}

// IDs lists the ids that currently have a thumbnail, sorted.
func (s *Storage) IDs() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("list thumbnails: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".jpg") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".jpg"))
	}
	slices.Sort(ids)
	return ids, nil
}

// Dir returns the directory thumbnails are written to.
func (s *Storage) Dir() string {
	return s.basePath
}

// Path returns the thumbnail path of id.
func (s *Storage) Path(id string) string {
	return filepath.Join(s.basePath, id+".jpg")
}
