// Package scanner discovers item folders under the source root and decides
// which of them the build has to process again.
package scanner

// Folder is one item folder found under the source root.
type Folder struct {
	// ID is the folder name; it is the item id everywhere.
	ID   string
	Path string
	// ModTime is the newest modification time (unix ms) of the folder or
	// anything inside it.
	ModTime int64
	// Fingerprint is the sha256 hex of the sorted binary-file set.
	// Empty when the folder has no Binary directory.
	Fingerprint string
	// Files is the number of regular files in the folder tree.
	Files int
}

// Reason explains why a folder is dirty.
type Reason string

// Dirty reasons.
const (
	ReasonNew           Reason = "new"
	ReasonModified      Reason = "modified"
	ReasonBinaryChanged Reason = "binary_changed"
	ReasonRetry         Reason = "retry"
	ReasonNoRecord      Reason = "no_record"
)

// DirtyFolder is a folder that must be processed, with the reason.
type DirtyFolder struct {
	Folder
	Reason Reason
}

// Partition splits the current folders against the previous build.
type Partition struct {
	Dirty []DirtyFolder
	Clean []Folder
	// Removed lists ids the ledger or the store knows but that are no longer
	// on disk, sorted.
	Removed []string
}

// DirtyIDs returns the ids of the dirty folders, in walk order.
func (p *Partition) DirtyIDs() []string {
	ids := make([]string, len(p.Dirty))
	for i, d := range p.Dirty {
		ids[i] = d.ID
	}
	return ids
}
