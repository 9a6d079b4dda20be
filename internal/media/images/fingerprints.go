package images

import (
	"log/slog"

	"github.com/boothvault/asset-library/internal/jsonfile"
)

// Fingerprints is the persisted id -> source checksum map that lets the
// optimizer skip unchanged images.
type Fingerprints struct {
	path    string
	entries map[string]string
	dirty   bool
}

// OpenFingerprints loads the fingerprint cache; a corrupt file starts empty.
func OpenFingerprints(path string, logger *slog.Logger) *Fingerprints {
	entries, err := jsonfile.Load[map[string]string](path)
	if err != nil {
		logger.Warn("thumbnail cache unreadable, starting empty", "path", path, "error", err)
	}
	if entries == nil {
		entries = make(map[string]string)
	}
	return &Fingerprints{path: path, entries: entries}
}

// Get returns the recorded checksum of id.
func (f *Fingerprints) Get(id string) string {
	return f.entries[id]
}

// Set records checksum for id. An empty checksum removes the entry.
func (f *Fingerprints) Set(id, checksum string) {
	if checksum == "" {
		f.Delete(id)
		return
	}
	if f.entries[id] == checksum {
		return
	}
	f.entries[id] = checksum
	f.dirty = true
}

// Delete forgets id.
func (f *Fingerprints) Delete(id string) {
	if _, ok := f.entries[id]; ok {
		delete(f.entries, id)
		f.dirty = true
	}
}

// Len returns the number of entries.
func (f *Fingerprints) Len() int {
	return len(f.entries)
}

// Save persists the cache if it changed.
func (f *Fingerprints) Save() error {
	if !f.dirty {
		return nil
	}
	if err := jsonfile.Save(f.path, f.entries); err != nil {
		return err
	}
	f.dirty = false
	return nil
}
