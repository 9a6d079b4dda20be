package build

import (
	"sync"
	"time"
)

// Phase is one step of a build run.
type Phase string

// Build phases, in execution order.
const (
	PhaseLoad      Phase = "load"
	PhaseWalk      Phase = "walk"
	PhasePartition Phase = "partition"
	PhaseParse     Phase = "parse"
	PhaseTranslate Phase = "translate"
	PhaseDescribe  Phase = "describe"
	PhaseClassify  Phase = "classify"
	PhaseThumbnail Phase = "thumbnail"
	PhasePersist   Phase = "persist"
	PhasePurge     Phase = "purge"
	PhaseRelate    Phase = "relate"
	PhaseEmit      Phase = "emit"
	PhaseIndex     Phase = "index"
	PhaseCommit    Phase = "commit"
	PhaseComplete  Phase = "complete"
)

// ItemError is a non-fatal problem with one item.
type ItemError struct {
	Time  time.Time
	ID    string
	Phase Phase
	Error error
}

// Progress is a snapshot of a running build.
type Progress struct {
	Phase       Phase
	CurrentItem string
	Errors      []ItemError
	Current     int
	Total       int
}

// ProgressTracker tracks and reports build progress.
type ProgressTracker struct {
	callback func(*Progress)
	progress Progress
	mu       sync.RWMutex
}

// NewProgressTracker creates a new progress tracker. callback may be nil.
func NewProgressTracker(callback func(*Progress)) *ProgressTracker {
	return &ProgressTracker{
		callback: callback,
		progress: Progress{
			Phase: PhaseLoad,
		},
	}
}

// SetPhase updates the current phase.
func (p *ProgressTracker) SetPhase(phase Phase) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.progress.Phase = phase
	p.progress.Current = 0
	p.progress.Total = 0
	p.progress.CurrentItem = ""
	p.notify()
}

// SetTotal sets the total items for current phase.
func (p *ProgressTracker) SetTotal(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.progress.Total = total
	p.notify()
}

// Increment increments the current progress.
func (p *ProgressTracker) Increment(currentItem string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.progress.Current++
	p.progress.CurrentItem = currentItem
	p.notify()
}

// AddError records an error.
func (p *ProgressTracker) AddError(id string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.progress.Errors = append(p.progress.Errors, ItemError{
		Time:  time.Now(),
		ID:    id,
		Phase: p.progress.Phase,
		Error: err,
	})
	p.notify()
}

// Get returns current progress.
func (p *ProgressTracker) Get() Progress {
	p.mu.RLock()
	defer p.mu.RUnlock()

	progress := p.progress
	progress.Errors = append([]ItemError(nil), p.progress.Errors...)
	return progress
}

func (p *ProgressTracker) notify() {
	if p.callback != nil {
		// Copy to avoid race.
		progress := p.progress
		progress.Errors = append([]ItemError(nil), p.progress.Errors...)
		go p.callback(&progress)
	}
}
