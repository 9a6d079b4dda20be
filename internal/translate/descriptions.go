package translate

import (
	"log/slog"

	"github.com/boothvault/asset-library/internal/jsonfile"
)

// DescriptionCache maps item id to its translated description.
type DescriptionCache struct {
	path    string
	entries map[string]string
	dirty   bool
}

// OpenDescriptions loads the description cache; corrupt files start empty.
func OpenDescriptions(path string, logger *slog.Logger) *DescriptionCache {
	entries, err := jsonfile.Load[map[string]string](path)
	if err != nil {
		logger.Warn("description cache unreadable, starting empty", "path", path, "error", err)
	}
	if entries == nil {
		entries = make(map[string]string)
	}
	return &DescriptionCache{path: path, entries: entries}
}

// Get returns the cached description for id.
func (d *DescriptionCache) Get(id string) (string, bool) {
	v, ok := d.entries[id]
	return v, ok
}

// Set stores the translated description for id.
func (d *DescriptionCache) Set(id, translated string) {
	if d.entries[id] == translated {
		return
	}
	d.entries[id] = translated
	d.dirty = true
}

// Delete removes id.
func (d *DescriptionCache) Delete(id string) {
	if _, ok := d.entries[id]; ok {
		delete(d.entries, id)
		d.dirty = true
	}
}

// Save persists the cache if it changed.
func (d *DescriptionCache) Save() error {
	if !d.dirty {
		return nil
	}
	if err := jsonfile.Save(d.path, d.entries); err != nil {
		return err
	}
	d.dirty = false
	return nil
}
