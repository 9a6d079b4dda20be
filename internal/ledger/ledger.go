// Package ledger records what the previous build saw for every item folder so
// the next build can skip folders that did not change.
package ledger

import (
	"maps"
	"slices"

	"github.com/boothvault/asset-library/internal/jsonfile"
)

// Status is the outcome of the last build for one folder.
type Status string

const (
	// StatusOK means the record is complete and may be reused.
	StatusOK Status = "ok"
	// StatusIncomplete means the record was emitted with fallbacks
	// (missing translation or thumbnail) and should be retried.
	StatusIncomplete Status = "incomplete"
	// StatusFailed means the folder's metadata could not be read.
	StatusFailed Status = "failed"
)

// Entry is the ledger record for one folder.
type Entry struct {
	ModTime     int64  `json:"modTime"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Status      Status `json:"status"`
}

// Ledger maps folder id to its last seen state. It is not safe for
// concurrent use; the build driver owns it.
type Ledger struct {
	path    string
	entries map[string]Entry
}

// Load reads the ledger at path. A missing file gives an empty ledger. A
// corrupt file also gives an empty ledger together with the decode error so
// the caller can log it; every folder then counts as new.
func Load(path string) (*Ledger, error) {
	entries, err := jsonfile.Load[map[string]Entry](path)
	if entries == nil {
		entries = make(map[string]Entry)
	}
	return &Ledger{path: path, entries: entries}, err
}

// Get returns the entry for id.
func (l *Ledger) Get(id string) (Entry, bool) {
	e, ok := l.entries[id]
	return e, ok
}

// Set records the entry for id.
func (l *Ledger) Set(id string, e Entry) {
	l.entries[id] = e
}

// Delete forgets id.
func (l *Ledger) Delete(id string) {
	delete(l.entries, id)
}

// IDs returns every recorded id in sorted order.
func (l *Ledger) IDs() []string {
	return slices.Sorted(maps.Keys(l.entries))
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Save atomically replaces the ledger file.
func (l *Ledger) Save() error {
	return jsonfile.Save(l.path, l.entries)
}
