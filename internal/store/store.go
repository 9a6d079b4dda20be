// Package store persists the base item records of the library in Badger, so
// clean folders can be emitted again without being re-derived.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/boothvault/asset-library/internal/domain"
)

const (
	itemPrefix       = "item:"
	metaBuildKey     = "meta:last_build"
	metaRelationsKey = "meta:relations"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Items holds one base record per item folder. Related ids are not
	// stored on the records; they are recomputed over the full set on
	// every build and kept separately, see Relations.
	Items *Entity[domain.Item]
}

// New opens (or creates) the record database at path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
	}
	s.Items = NewEntity[domain.Item](s, itemPrefix)

	if logger != nil {
		logger.Info("record database opened", "path", path)
	}

	return s, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("closing record database")
	}
	return s.db.Close()
}

// Shutdown implements do.Shutdowner.
func (s *Store) Shutdown() error {
	return s.Close()
}

// BuildInfo summarises the last successful build.
type BuildInfo struct {
	RunID      string    `json:"runId"`
	FinishedAt time.Time `json:"finishedAt"`
	Items      int       `json:"items"`
	Dirty      int       `json:"dirty"`
	Removed    int       `json:"removed"`
	Failed     int       `json:"failed"`
}

// SetLastBuild records info about the build that just finished.
func (s *Store) SetLastBuild(ctx context.Context, info BuildInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.set([]byte(metaBuildKey), info)
}

// LastBuild returns the last recorded build, or nil if there was none.
func (s *Store) LastBuild(ctx context.Context) (*BuildInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var info BuildInfo
	if err := s.get([]byte(metaBuildKey), &info); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &info, nil
}

// SetRelations replaces the relation map resolved by the last build. Ids
// absent from rel have no related items.
func (s *Store) SetRelations(ctx context.Context, rel map[string][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rel == nil {
		rel = map[string][]string{}
	}
	return s.set([]byte(metaRelationsKey), rel)
}

// Relations returns the relation map of the last build. Before the first
// build it is empty.
func (s *Store) Relations(ctx context.Context) (map[string][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := map[string][]string{}
	if err := s.get([]byte(metaRelationsKey), &rel); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return map[string][]string{}, nil
		}
		return nil, err
	}
	return rel, nil
}

// Helper methods for database operations.

// get retrieves a value by key.
func (s *Store) get(key []byte, dest any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
}

// set stores a value by key.
func (s *Store) set(key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}
