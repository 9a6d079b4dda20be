// Package build runs the incremental library build: it decides which item
// folders changed since the last run, re-derives only those, and emits the
// full library from the stored records.
package build

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/boothvault/asset-library/internal/classifier"
	"github.com/boothvault/asset-library/internal/config"
	"github.com/boothvault/asset-library/internal/domain"
	"github.com/boothvault/asset-library/internal/emitter"
	domainerrors "github.com/boothvault/asset-library/internal/errors"
	"github.com/boothvault/asset-library/internal/id"
	"github.com/boothvault/asset-library/internal/ledger"
	"github.com/boothvault/asset-library/internal/media/images"
	"github.com/boothvault/asset-library/internal/relations"
	"github.com/boothvault/asset-library/internal/scanner"
	"github.com/boothvault/asset-library/internal/search"
	"github.com/boothvault/asset-library/internal/store"
	"github.com/boothvault/asset-library/internal/translate"
)

// Files kept in the data directory.
const (
	LedgerFile       = "ledger.json"
	TranslationsFile = "translations.json"
	DescriptionsFile = "descriptions.json"
	ThumbnailsFile   = "thumbnails.json"
)

const persistBatchSize = 500

// Deps are the collaborators of a Builder. Store is required; nil optional
// collaborators are built from the configuration or switch their step off.
type Deps struct {
	Store      *store.Store
	Index      *search.SearchIndex   // nil disables the index step
	Translator translate.Translator  // nil disables translation
	Classifier *classifier.Classifier
	Resolver   *relations.Resolver
	Emitter    *emitter.Emitter
	Optimizer  *images.Optimizer
}

// Builder orchestrates one build run at a time.
type Builder struct {
	cfg        *config.Config
	store      *store.Store
	index      *search.SearchIndex
	translator translate.Translator
	classifier *classifier.Classifier
	resolver   *relations.Resolver
	emitter    *emitter.Emitter
	optimizer  *images.Optimizer
	walker     *scanner.Walker
	differ     *scanner.Differ
	progress   *ProgressTracker
	logger     *slog.Logger

	mu sync.Mutex
}

// New creates a Builder for cfg.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Builder, error) {
	if deps.Store == nil {
		return nil, domainerrors.Internal("build needs a record store")
	}

	b := &Builder{
		cfg:        cfg,
		store:      deps.Store,
		index:      deps.Index,
		translator: deps.Translator,
		classifier: deps.Classifier,
		resolver:   deps.Resolver,
		emitter:    deps.Emitter,
		optimizer:  deps.Optimizer,
		walker:     scanner.NewWalker(logger),
		differ:     scanner.NewDiffer(logger),
		logger:     logger,
	}

	if b.classifier == nil {
		b.classifier = classifier.New()
	}
	if b.resolver == nil {
		opts := relations.DefaultOptions()
		if cfg.Relations.MinFragmentLen > 0 {
			opts.MinFragmentLen = cfg.Relations.MinFragmentLen
		}
		b.resolver = relations.New(opts)
	}
	if b.emitter == nil {
		e, err := emitter.New(emitter.Options{
			OutputDir:    cfg.Library.OutputPath,
			FileName:     cfg.Library.OutputFile,
			TemplatePath: cfg.Library.TemplatePath,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("create emitter: %w", err)
		}
		b.emitter = e
	}
	if b.optimizer == nil {
		storage, err := images.NewStorage(cfg.Library.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("create thumbnail storage: %w", err)
		}
		b.optimizer = images.NewOptimizer(storage, images.Options{
			Size:    cfg.Thumbnail.Size,
			Quality: cfg.Thumbnail.Quality,
			Workers: cfg.Thumbnail.Workers,
		}, logger)
	}

	b.progress = NewProgressTracker(nil)

	return b, nil
}

// Progress returns a snapshot of the current or last run.
func (b *Builder) Progress() Progress {
	return b.progress.Get()
}

// Report summarizes one run.
type Report struct {
	RunID string

	Scanned    int
	Dirty      int
	Clean      int
	Removed    int
	Failed     int
	Incomplete int
	Items      int

	TranslationCalls   int64
	ThumbnailsBuilt    int
	ThumbnailsReused   int
	ThumbnailFallbacks int

	PagePath string
	Duration time.Duration
}

// work is a dirty folder whose metadata parsed, on its way to a record.
type work struct {
	folder     scanner.DirtyFolder
	item       *domain.Item
	previous   *domain.Item
	incomplete bool
}

// run holds the state loaded for one Run.
type run struct {
	report       *Report
	ledger       *ledger.Ledger
	translations *translate.Cache
	descriptions *translate.DescriptionCache
	fingerprints *images.Fingerprints
	i18n         json.RawMessage
}

// Run performs one incremental build. Concurrent calls are serialized.
//
// Only errors that leave no usable output (unreadable source root, storage
// failures, a failed emit or ledger write) are returned. Per-item problems
// are logged and reflected in the ledger status instead.
func (b *Builder) Run(ctx context.Context) (*Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	runID, err := id.RunID("build")
	if err != nil {
		return nil, err
	}
	log := b.logger.With("run_id", runID)
	b.progress = NewProgressTracker(nil)

	r := &run{report: &Report{RunID: runID}}

	b.phase(log, PhaseLoad)
	b.load(log, r)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.phase(log, PhaseWalk)
	folders, err := b.walker.Folders(ctx, b.cfg.Library.SourcePath)
	if err != nil {
		return nil, err
	}
	r.report.Scanned = len(folders)

	b.phase(log, PhasePartition)
	stored, err := b.store.Items.IDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	part, err := b.differ.Partition(ctx, folders, r.ledger, stored)
	if err != nil {
		return nil, err
	}
	r.report.Dirty = len(part.Dirty)
	r.report.Clean = len(part.Clean)
	r.report.Removed = len(part.Removed)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.phase(log, PhaseParse)
	works := b.parse(ctx, log, r, part.Dirty)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.phase(log, PhaseTranslate)
	b.translate(ctx, log, r, works)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.phase(log, PhaseDescribe)
	b.describe(ctx, r, works)

	b.phase(log, PhaseClassify)
	b.classify(works)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.phase(log, PhaseThumbnail)
	b.thumbnails(ctx, r, works)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.phase(log, PhasePersist)
	if err := b.persist(works, part.Removed, r); err != nil {
		return nil, err
	}
	b.sweepThumbnails(log, folders, r)

	b.phase(log, PhaseRelate)
	all, err := b.store.Items.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	rel := map[string][]string{}
	if b.cfg.Relations.Enabled {
		rel = b.resolver.Apply(all)
		log.Debug("relations resolved", "related_items", len(rel))
	} else {
		for _, it := range all {
			it.RelatedIDs = []string{}
		}
	}
	if err := b.store.SetRelations(ctx, rel); err != nil {
		log.Warn("failed to record relations", "error", err)
	}
	r.report.Items = len(all)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.phase(log, PhaseEmit)
	res, err := b.emitter.Emit(all, r.i18n)
	if err != nil {
		return nil, err
	}
	r.report.PagePath = res.PagePath

	b.phase(log, PhaseIndex)
	b.updateIndex(log, works, part.Removed, all)

	b.phase(log, PhaseCommit)
	if err := b.commit(ctx, log, r, works); err != nil {
		return nil, err
	}

	b.phase(log, PhaseComplete)
	r.report.TranslationCalls = r.translations.Calls()
	r.report.Duration = time.Since(start)

	return r.report, nil
}

func (b *Builder) phase(log *slog.Logger, p Phase) {
	b.progress.SetPhase(p)
	log.Debug("build phase", "phase", string(p))
}

func (b *Builder) dataFile(name string) string {
	return filepath.Join(b.cfg.Library.DataPath, name)
}

// load reads the ledger and caches. Corrupt files start empty.
func (b *Builder) load(log *slog.Logger, r *run) {
	l, err := ledger.Load(b.dataFile(LedgerFile))
	if err != nil {
		log.Warn("ledger unreadable, every folder counts as new", "error", err)
	}
	r.ledger = l

	r.translations = translate.Open(b.dataFile(TranslationsFile), b.translator, translate.Options{
		SourceLang: b.cfg.Translate.SourceLang,
		TargetLang: b.cfg.Translate.TargetLang,
		Workers:    b.cfg.Translate.Workers,
	}, log)
	r.descriptions = translate.OpenDescriptions(b.dataFile(DescriptionsFile), log)
	r.fingerprints = images.OpenFingerprints(b.dataFile(ThumbnailsFile), log)
	r.i18n = emitter.LoadI18n(b.cfg.Library.I18nPath, log)
}

// persist writes the new records and purges removed ids from the store and
// every derived artifact.
func (b *Builder) persist(works []*work, removed []string, r *run) error {
	bw := b.store.NewBatchWriter(persistBatchSize)
	for _, w := range works {
		if err := bw.PutItem(w.item); err != nil {
			bw.Cancel()
			return fmt.Errorf("persist %s: %w", w.item.ID, err)
		}
	}

	b.progress.SetPhase(PhasePurge)
	for _, itemID := range removed {
		if err := bw.DeleteItem(itemID); err != nil {
			bw.Cancel()
			return fmt.Errorf("purge %s: %w", itemID, err)
		}
		r.ledger.Delete(itemID)
		r.fingerprints.Delete(itemID)
		r.descriptions.Delete(itemID)
		if err := b.optimizer.Storage().Delete(itemID); err != nil {
			b.logger.Warn("failed to delete thumbnail", "id", itemID, "error", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush records: %w", err)
	}
	return nil
}

// sweepThumbnails deletes thumbnails whose folder is gone but that no
// ledger entry or record pointed at, such as after a lost ledger.
func (b *Builder) sweepThumbnails(log *slog.Logger, folders []scanner.Folder, r *run) {
	storage := b.optimizer.Storage()
	ids, err := storage.IDs()
	if err != nil {
		log.Warn("failed to list thumbnails", "error", err)
		return
	}

	present := make(map[string]bool, len(folders))
	for _, f := range folders {
		present[f.ID] = true
	}
	for _, itemID := range ids {
		if present[itemID] {
			continue
		}
		if err := storage.Delete(itemID); err != nil {
			log.Warn("failed to delete orphaned thumbnail", "id", itemID, "error", err)
			continue
		}
		r.fingerprints.Delete(itemID)
		log.Debug("orphaned thumbnail deleted", "id", itemID)
	}
}

func (b *Builder) updateIndex(log *slog.Logger, works []*work, removed []string, all []*domain.Item) {
	if b.index == nil || !b.cfg.Search.Enabled {
		return
	}

	if err := b.index.DeleteItems(removed); err != nil {
		log.Warn("failed to remove items from search index", "error", err)
	}

	count, err := b.index.DocumentCount()
	if err == nil && count != uint64(len(all)) {
		// A fresh or drifted index is refilled from every record.
		if err := b.index.IndexItems(all); err != nil {
			log.Warn("failed to reindex items", "error", err)
		}
		return
	}

	items := make([]*domain.Item, 0, len(works))
	for _, w := range works {
		items = append(items, w.item)
	}
	if err := b.index.IndexItems(items); err != nil {
		log.Warn("failed to index items", "error", err)
	}
}

// commit persists the caches and then the ledger. The ledger goes last so
// a crash before it re-processes the dirty folders next time.
func (b *Builder) commit(ctx context.Context, log *slog.Logger, r *run, works []*work) error {
	if err := r.translations.Save(); err != nil {
		log.Error("failed to save translation cache", "error", err)
	}
	if err := r.descriptions.Save(); err != nil {
		log.Error("failed to save description cache", "error", err)
	}
	if err := r.fingerprints.Save(); err != nil {
		log.Error("failed to save thumbnail cache", "error", err)
	}

	for _, w := range works {
		status := ledger.StatusOK
		if w.incomplete {
			status = ledger.StatusIncomplete
			r.report.Incomplete++
		}
		r.ledger.Set(w.folder.ID, ledger.Entry{
			ModTime:     w.folder.ModTime,
			Fingerprint: w.folder.Fingerprint,
			Status:      status,
		})
	}

	if err := r.ledger.Save(); err != nil {
		return err
	}

	info := store.BuildInfo{
		RunID:      r.report.RunID,
		FinishedAt: time.Now().UTC(),
		Items:      r.report.Items,
		Dirty:      r.report.Dirty,
		Removed:    r.report.Removed,
		Failed:     r.report.Failed,
	}
	if err := b.store.SetLastBuild(ctx, info); err != nil {
		log.Warn("failed to record build info", "error", err)
	}
	return nil
}
