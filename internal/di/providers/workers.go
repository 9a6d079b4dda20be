package providers

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/samber/do/v2"

	"github.com/boothvault/asset-library/internal/build"
	"github.com/boothvault/asset-library/internal/config"
	"github.com/boothvault/asset-library/internal/logger"
	"github.com/boothvault/asset-library/internal/watcher"
)

// FileWatcherHandle wraps the file watcher and its rebuilder with shutdown
// capability.
type FileWatcherHandle struct {
	*watcher.Watcher
	Rebuilder *watcher.Rebuilder
	cancel    context.CancelFunc
	done      chan struct{}
}

// Shutdown implements do.Shutdownable. It waits for an in-flight build.
func (h *FileWatcherHandle) Shutdown() error {
	h.cancel()
	err := h.Watcher.Stop()
	<-h.done
	return err
}

// ProvideFileWatcher watches the source folder and rebuilds after each
// burst of changes settles.
func ProvideFileWatcher(i do.Injector) (*FileWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	builder := do.MustInvoke[*build.Builder](i)

	w, err := watcher.New(log.Component("watcher"), watcher.Options{
		IgnoreHidden: true,
		SettleDelay:  cfg.Watch.SettleDelay,
		ExcludeDirs:  nestedDirs(cfg.Library.SourcePath, cfg.Library.OutputPath, cfg.Library.DataPath),
	})
	if err != nil {
		return nil, err
	}
	if err := w.Watch(cfg.Library.SourcePath); err != nil {
		_ = w.Stop()
		return nil, err
	}

	rebuilder := watcher.NewRebuilder(func(ctx context.Context) error {
		report, err := builder.Run(ctx)
		if err != nil {
			return err
		}
		log.Info("rebuild complete",
			"run_id", report.RunID,
			"items", report.Items,
			"dirty", report.Dirty,
			"removed", report.Removed,
			"failed", report.Failed,
			"duration", report.Duration,
		)
		return nil
	}, cfg.Watch.SettleDelay, log.Component("rebuild"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		if err := w.Start(ctx); err != nil {
			log.Error("File watcher error", "error", err)
		}
	}()

	go func() {
		defer close(done)
		rebuilder.Run(ctx, w.Events())
	}()

	go func() {
		for {
			select {
			case err := <-w.Errors():
				log.Warn("file watcher error", "error", err)
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Watching source folder", "path", cfg.Library.SourcePath)

	return &FileWatcherHandle{
		Watcher:   w,
		Rebuilder: rebuilder,
		cancel:    cancel,
		done:      done,
	}, nil
}

// nestedDirs returns the dirs that live inside root. The output and data
// folders must not trigger rebuilds when they sit under the source.
func nestedDirs(root string, dirs ...string) []string {
	var nested []string
	for _, d := range dirs {
		rel, err := filepath.Rel(root, d)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		nested = append(nested, d)
	}
	return nested
}
