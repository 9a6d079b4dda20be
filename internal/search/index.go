package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/boothvault/asset-library/internal/domain"
	"github.com/boothvault/asset-library/internal/logger"
)

// DirName is the index directory inside the data path.
const DirName = "search.bleve"

// SearchIndex wraps a Bleve index of item documents.
//
// All public methods are safe for concurrent use. The mutex only guards
// against a Rebuild swapping the index underneath a reader.
type SearchIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory holding search.bleve
	Logger   *slog.Logger // Uses a discard logger if nil
}

// mappingVersion is bumped whenever buildIndexMapping changes; an index
// written with another version is dropped and recreated on open.
const mappingVersion = "1"

// NewSearchIndex opens the index under opts.DataPath, creating it when absent.
// A corrupt index or one built with an older mapping is removed and recreated.
func NewSearchIndex(opts Options) (*SearchIndex, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	indexPath := filepath.Join(opts.DataPath, DirName)
	versionPath := filepath.Join(opts.DataPath, "search.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil:
			log.Info("search index has no version file, will rebuild", "new_version", mappingVersion)
			needsRebuild = true
		case string(existingVersion) != mappingVersion:
			log.Info("search index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			log.Warn("failed to open existing index, will recreate", "path", indexPath, "error", err)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); writeErr != nil {
			log.Warn("failed to write search version file", "error", writeErr)
		}
		log.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		log.Debug("opened existing search index", "path", indexPath)
	}

	return &SearchIndex{
		index:  index,
		path:   indexPath,
		logger: log,
	}, nil
}

// Close closes the index and releases resources.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// Shutdown implements do.Shutdowner.
func (s *SearchIndex) Shutdown() error {
	return s.Close()
}

// IndexItem indexes or replaces a single item.
func (s *SearchIndex) IndexItem(item *domain.Item) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(item.ID, NewItemDocument(item).ToMap())
}

// IndexItems indexes items in chunks of 500 per Bleve batch.
func (s *SearchIndex) IndexItems(items []*domain.Item) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))

		batch := s.index.NewBatch()
		for _, item := range items[i:end] {
			if err := batch.Index(item.ID, NewItemDocument(item).ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", item.ID, err)
			}
		}

		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// DeleteItems removes the documents for ids. Unknown ids are ignored.
func (s *SearchIndex) DeleteItems(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := s.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}

	return s.index.Batch(batch)
}

// DocumentCount returns the total number of indexed documents.
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the index and recreates it empty.
// It blocks every other operation until done.
func (s *SearchIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.logger.Info("rebuilt search index", "path", s.path)

	return nil
}
