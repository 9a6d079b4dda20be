package translate

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/boothvault/asset-library/internal/jsonfile"
)

// DefaultWorkers is the default number of concurrent backend calls.
const DefaultWorkers = 5

// Options configures a Cache.
type Options struct {
	SourceLang string
	TargetLang string
	Workers    int
}

// Cache is a persisted map from exact source string to translation.
//
// Lookups and merges happen on the caller's goroutine. Only backend calls run
// in the worker pool, and each worker writes to its own result slot, so the
// map is never touched concurrently.
type Cache struct {
	path    string
	entries map[string]string
	backend Translator
	opts    Options
	logger  *slog.Logger
	calls   atomic.Int64
	dirty   bool
}

// Open loads the cache file at path. A corrupt file is logged and treated as
// empty; the build then re-translates what it would have covered.
func Open(path string, backend Translator, opts Options, logger *slog.Logger) *Cache {
	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers
	}
	entries, err := jsonfile.Load[map[string]string](path)
	if err != nil {
		logger.Warn("translation cache unreadable, starting empty", "path", path, "error", err)
	}
	if entries == nil {
		entries = make(map[string]string)
	}
	return &Cache{path: path, entries: entries, backend: backend, opts: opts, logger: logger}
}

// Batch is the outcome of TranslateBatch.
type Batch struct {
	// Translated holds a translation for every CJK input that has one,
	// whether it came from the cache or a fresh backend call.
	Translated map[string]string
	// Failed lists CJK inputs left untranslated because the backend failed.
	Failed []string
}

// Get returns the translation of s, if any.
func (b *Batch) Get(s string) (string, bool) {
	t, ok := b.Translated[s]
	return t, ok
}

// Lookup returns the cached translation of s without calling the backend.
func (c *Cache) Lookup(s string) (string, bool) {
	t, ok := c.entries[s]
	return t, ok
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Calls returns how many backend calls this cache has issued.
func (c *Cache) Calls() int64 {
	return c.calls.Load()
}

// Translate returns the translation of s, or s itself when it needs none or
// the backend fails. It persists the cache when a new entry was added.
func (c *Cache) Translate(ctx context.Context, s string) string {
	batch := c.TranslateBatch(ctx, []string{s})
	if err := c.Save(); err != nil {
		c.logger.Error("failed to persist translation cache", "error", err)
	}
	if t, ok := batch.Get(s); ok {
		return t
	}
	return s
}

// TranslateBatch translates every distinct CJK string in texts. Cache hits
// never reach the backend; misses go through a pool of opts.Workers calls.
// Failures leave the string out of the result and out of the cache.
// Call Save once the batch is done to persist new entries.
func (c *Cache) TranslateBatch(ctx context.Context, texts []string) *Batch {
	batch := &Batch{Translated: make(map[string]string)}

	var misses []string
	seen := make(map[string]bool, len(texts))
	for _, s := range texts {
		if seen[s] || !ContainsCJK(s) {
			continue
		}
		seen[s] = true
		if t, ok := c.entries[s]; ok {
			batch.Translated[s] = t
			continue
		}
		misses = append(misses, s)
	}
	if len(misses) == 0 || c.backend == nil {
		batch.Failed = misses
		return batch
	}

	results := c.fanOut(ctx, misses)

	for i, s := range misses {
		r := results[i]
		if r.err != nil {
			c.logger.Debug("translation failed", "text", truncate(s, 60), "error", r.err)
			batch.Failed = append(batch.Failed, s)
			continue
		}
		c.entries[s] = r.text
		c.dirty = true
		batch.Translated[s] = r.text
	}

	if len(batch.Failed) > 0 {
		c.logger.Warn("some strings were left untranslated", "failed", len(batch.Failed), "requested", len(misses))
	}
	return batch
}

// TranslateEach translates texts without reading or writing the cache and
// returns one result per input (empty string on failure or for non-CJK text).
// Long descriptions go through here so they do not bloat the string cache.
func (c *Cache) TranslateEach(ctx context.Context, texts []string) []string {
	out := make([]string, len(texts))
	if c.backend == nil {
		return out
	}

	var idx []int
	var work []string
	for i, s := range texts {
		if ContainsCJK(s) {
			idx = append(idx, i)
			work = append(work, s)
		}
	}

	for j, r := range c.fanOut(ctx, work) {
		if r.err != nil {
			c.logger.Debug("translation failed", "text", truncate(work[j], 60), "error", r.err)
			continue
		}
		out[idx[j]] = r.text
	}
	return out
}

type result struct {
	text string
	err  error
}

// fanOut calls the backend for every input with bounded concurrency.
func (c *Cache) fanOut(ctx context.Context, texts []string) []result {
	results := make([]result, len(texts))

	var g errgroup.Group
	g.SetLimit(c.opts.Workers)
	for i, s := range texts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = result{err: err}
				return nil
			}
			c.calls.Add(1)
			t, err := c.backend.Translate(ctx, s, c.opts.SourceLang, c.opts.TargetLang)
			if err == nil && t == "" {
				err = ErrEmptyResponse
			}
			results[i] = result{text: t, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Save persists the cache if it changed since the last save.
func (c *Cache) Save() error {
	if !c.dirty {
		return nil
	}
	if err := jsonfile.Save(c.path, c.entries); err != nil {
		return err
	}
	c.dirty = false
	return nil
}
