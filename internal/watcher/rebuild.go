package watcher

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// BuildFunc performs one full incremental build.
type BuildFunc func(ctx context.Context) error

// Rebuilder turns bursts of settled events into builds. Events are
// coalesced until the tree is quiet for the settle delay. At most one build
// runs at a time; requests that arrive during a build collapse into exactly
// one follow-up build.
type Rebuilder struct {
	build  BuildFunc
	delay  time.Duration
	logger *slog.Logger

	running sync.Mutex
	pending atomic.Bool
	builds  atomic.Int64
	wg      sync.WaitGroup
}

// NewRebuilder creates a Rebuilder. delay defaults to two seconds.
func NewRebuilder(build BuildFunc, delay time.Duration, logger *slog.Logger) *Rebuilder {
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &Rebuilder{
		build:  build,
		delay:  delay,
		logger: logger,
	}
}

// Run consumes events until ctx is cancelled or events is closed, then waits
// for an in-flight build to finish.
func (r *Rebuilder) Run(ctx context.Context, events <-chan Event) {
	timer := time.NewTimer(r.delay)
	timer.Stop()
	defer func() {
		timer.Stop()
		r.wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			r.logger.Debug("change queued", "type", event.Type.String(), "path", event.Path)
			timer.Reset(r.delay)
		case <-timer.C:
			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				r.Trigger(ctx)
			}()
		}
	}
}

// Trigger requests a build. If one is running, the request is folded into a
// single build after it finishes and Trigger returns immediately.
func (r *Rebuilder) Trigger(ctx context.Context) {
	r.pending.Store(true)

	for r.pending.Load() {
		if !r.running.TryLock() {
			// The running build observes pending before it unlocks.
			return
		}
		for r.pending.Swap(false) {
			if ctx.Err() != nil {
				break
			}
			r.runOnce(ctx)
		}
		r.running.Unlock()

		if ctx.Err() != nil {
			return
		}
	}
}

// Builds returns the number of builds started so far.
func (r *Rebuilder) Builds() int64 {
	return r.builds.Load()
}

func (r *Rebuilder) runOnce(ctx context.Context) {
	n := r.builds.Add(1)
	start := time.Now()
	r.logger.Info("rebuilding", "build", n)

	if err := r.build(ctx); err != nil {
		r.logger.Error("rebuild failed", "build", n, "error", err)
		return
	}
	r.logger.Info("rebuild complete", "build", n, "duration", time.Since(start))
}
