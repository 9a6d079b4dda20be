package scanner

import (
	"context"
	"log/slog"
	"slices"

	"github.com/boothvault/asset-library/internal/ledger"
)

// Differ partitions folders against the ledger of the previous build.
type Differ struct {
	logger *slog.Logger
}

// NewDiffer creates a new Differ.
func NewDiffer(logger *slog.Logger) *Differ {
	return &Differ{
		logger: logger,
	}
}

// Partition decides for every folder whether the build must process it.
// stored lists the ids that have a record in the store. A clean ledger entry
// without a record is still dirty, and an id known to either the ledger or
// the store but missing on disk is removed.
func (d *Differ) Partition(ctx context.Context, folders []Folder, l *ledger.Ledger, stored []string) (*Partition, error) {
	p := &Partition{
		Dirty:   make([]DirtyFolder, 0),
		Clean:   make([]Folder, 0),
		Removed: make([]string, 0),
	}

	hasRecord := make(map[string]bool, len(stored))
	for _, id := range stored {
		hasRecord[id] = true
	}

	present := make(map[string]bool, len(folders))
	for _, f := range folders {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		present[f.ID] = true

		if reason, dirty := d.reason(f, l, hasRecord); dirty {
			p.Dirty = append(p.Dirty, DirtyFolder{Folder: f, Reason: reason})
		} else {
			p.Clean = append(p.Clean, f)
		}
	}

	for _, id := range slices.Concat(l.IDs(), stored) {
		if !present[id] {
			p.Removed = append(p.Removed, id)
			present[id] = true
		}
	}
	slices.Sort(p.Removed)

	d.logger.Info("partition computed",
		"dirty", len(p.Dirty),
		"clean", len(p.Clean),
		"removed", len(p.Removed),
	)

	return p, nil
}

func (d *Differ) reason(f Folder, l *ledger.Ledger, hasRecord map[string]bool) (Reason, bool) {
	entry, ok := l.Get(f.ID)
	switch {
	case !ok:
		return ReasonNew, true
	case entry.Status != ledger.StatusOK:
		return ReasonRetry, true
	case entry.ModTime != f.ModTime:
		return ReasonModified, true
	case entry.Fingerprint != f.Fingerprint:
		return ReasonBinaryChanged, true
	case !hasRecord[f.ID]:
		return ReasonNoRecord, true
	}
	return "", false
}
