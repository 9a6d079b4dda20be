package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/boothvault/asset-library/internal/domain"
)

// BatchWriter provides bulk item writes using Badger's WriteBatch.
// It is not safe for concurrent use.
type BatchWriter struct {
	store     *Store
	batch     *badger.WriteBatch
	maxSize   int
	count     int
	autoFlush bool
}

// NewBatchWriter creates a batch writer that flushes every maxSize operations.
func (s *Store) NewBatchWriter(maxSize int) *BatchWriter {
	return &BatchWriter{
		store:     s,
		batch:     s.db.NewWriteBatch(),
		maxSize:   maxSize,
		autoFlush: maxSize > 0,
	}
}

// PutItem queues the base record of item. RelatedIDs are dropped.
func (b *BatchWriter) PutItem(item *domain.Item) error {
	base := item.Clone()
	base.RelatedIDs = nil

	data, err := json.Marshal(base)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	if err := b.batch.Set([]byte(itemPrefix+item.ID), data); err != nil {
		return fmt.Errorf("batch set item: %w", err)
	}
	return b.added()
}

// DeleteItem queues removal of the record for id.
func (b *BatchWriter) DeleteItem(id string) error {
	if err := b.batch.Delete([]byte(itemPrefix + id)); err != nil {
		return fmt.Errorf("batch delete item: %w", err)
	}
	return b.added()
}

func (b *BatchWriter) added() error {
	b.count++
	if b.autoFlush && b.count >= b.maxSize {
		if err := b.Flush(); err != nil {
			return fmt.Errorf("auto flush: %w", err)
		}
	}
	return nil
}

// Flush commits all pending writes in the batch.
func (b *BatchWriter) Flush() error {
	if b.count == 0 {
		return nil
	}

	if err := b.batch.Flush(); err != nil {
		return fmt.Errorf("flush batch: %w", err)
	}

	if b.store.logger != nil {
		b.store.logger.LogAttrs(context.Background(), slog.LevelDebug, "batch flushed",
			slog.Int("count", b.count),
		)
	}

	b.count = 0
	b.batch = b.store.db.NewWriteBatch()

	return nil
}

// Cancel discards all pending writes in the batch.
func (b *BatchWriter) Cancel() {
	b.batch.Cancel()
	b.count = 0
}

// Count returns the number of operations in the current batch.
func (b *BatchWriter) Count() int {
	return b.count
}
