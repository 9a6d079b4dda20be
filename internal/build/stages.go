package build

import (
	"context"
	"log/slog"
	"strings"

	"github.com/boothvault/asset-library/internal/domain"
	domainerrors "github.com/boothvault/asset-library/internal/errors"
	"github.com/boothvault/asset-library/internal/ledger"
	"github.com/boothvault/asset-library/internal/listing"
	"github.com/boothvault/asset-library/internal/media/images"
	"github.com/boothvault/asset-library/internal/scanner"
	"github.com/boothvault/asset-library/internal/translate"
)

// parse turns dirty folders into fresh base records. A folder whose metadata
// is missing or broken is marked failed and keeps its previous record.
func (b *Builder) parse(ctx context.Context, log *slog.Logger, r *run, dirty []scanner.DirtyFolder) []*work {
	b.progress.SetTotal(len(dirty))

	works := make([]*work, 0, len(dirty))
	for _, f := range dirty {
		b.progress.Increment(f.ID)

		item, err := b.parseFolder(f.Folder)
		if err != nil {
			log.Warn("skipping item", "id", f.ID, "reason", string(f.Reason), "error", err)
			b.progress.AddError(f.ID, err)
			r.report.Failed++
			r.ledger.Set(f.ID, ledger.Entry{
				ModTime:     f.ModTime,
				Fingerprint: f.Fingerprint,
				Status:      ledger.StatusFailed,
			})
			continue
		}

		w := &work{folder: f, item: item}
		if prev, err := b.store.Items.Get(ctx, f.ID); err == nil {
			w.previous = prev
		} else if !domainerrors.Is(err, domainerrors.ErrNotFound) {
			log.Warn("cannot read previous record", "id", f.ID, "error", err)
		}
		works = append(works, w)

		log.Debug("item parsed", "id", f.ID, "reason", string(f.Reason))
	}
	return works
}

func (b *Builder) parseFolder(f scanner.Folder) (*domain.Item, error) {
	src, err := listing.Detect(f.Path)
	if err != nil {
		return nil, err
	}
	partial, err := listing.Parse(src)
	if err != nil {
		return nil, err
	}
	return listing.Assemble(f.ID, f.Path, b.cfg.Library.OutputPath, partial)
}

// translate fills the translated name, author and tags of every work item
// from one cache batch, then persists the cache.
func (b *Builder) translate(ctx context.Context, log *slog.Logger, r *run, works []*work) {
	if !b.cfg.Translate.Enabled || b.translator == nil || len(works) == 0 {
		return
	}

	var texts []string
	for _, w := range works {
		texts = append(texts, w.item.NameOriginal, w.item.AuthorOriginal)
		if b.cfg.Translate.Tags {
			texts = append(texts, w.item.Tags...)
		}
	}
	b.progress.SetTotal(len(texts))

	batch := r.translations.TranslateBatch(ctx, texts)

	for _, w := range works {
		it := w.item
		var ok bool
		if it.NameTranslated, ok = lookup(batch, it.NameOriginal); !ok {
			w.incomplete = true
		}
		if it.AuthorTranslated, ok = lookup(batch, it.AuthorOriginal); !ok {
			w.incomplete = true
		}
		if b.cfg.Translate.Tags {
			if it.TagsTranslated, ok = lookupAll(batch, it.Tags); !ok {
				w.incomplete = true
			}
		}
	}

	if err := r.translations.Save(); err != nil {
		log.Error("failed to save translation cache", "error", err)
	}
}

// lookup returns the translation of s. Text that needs no translation gives
// "" and true; a CJK string the batch could not translate gives "" and false.
func lookup(batch *translate.Batch, s string) (string, bool) {
	if !translate.ContainsCJK(s) {
		return "", true
	}
	t, ok := batch.Get(s)
	return t, ok
}

// lookupAll translates every tag, keeping the original for tags without a
// translation. It returns nil when no tag was translated.
func lookupAll(batch *translate.Batch, tags []string) ([]string, bool) {
	out := make([]string, len(tags))
	complete, translated := true, false
	for i, tag := range tags {
		t, ok := lookup(batch, tag)
		if !ok {
			complete = false
		}
		if t == "" {
			out[i] = tag
			continue
		}
		out[i] = t
		translated = true
	}
	if !translated {
		return nil, complete
	}
	return out, complete
}

// describe translates descriptions. A cached translation is reused while the
// source description matches the stored record.
func (b *Builder) describe(ctx context.Context, r *run, works []*work) {
	if !b.cfg.Translate.Enabled || !b.cfg.Translate.Descriptions || b.translator == nil {
		return
	}

	var pending []*work
	var texts []string
	for _, w := range works {
		it := w.item
		if !translate.ContainsCJK(it.Description) {
			r.descriptions.Delete(it.ID)
			continue
		}
		if w.previous != nil && w.previous.Description == it.Description {
			if t, ok := r.descriptions.Get(it.ID); ok {
				it.DescriptionTranslated = t
				continue
			}
		}
		pending = append(pending, w)
		texts = append(texts, it.Description)
	}
	if len(texts) == 0 {
		return
	}
	b.progress.SetTotal(len(texts))

	for i, t := range r.translations.TranslateEach(ctx, texts) {
		w := pending[i]
		if t == "" {
			r.descriptions.Delete(w.item.ID)
			w.incomplete = true
			continue
		}
		w.item.DescriptionTranslated = t
		r.descriptions.Set(w.item.ID, t)
	}
}

// classify derives isAdult. A flag set by the source is never cleared.
func (b *Builder) classify(works []*work) {
	for _, w := range works {
		it := w.item
		title := strings.TrimSpace(it.NameOriginal + " " + it.NameTranslated)
		tags := append(append([]string(nil), it.Tags...), it.TagsTranslated...)
		it.IsAdult = it.IsAdult || b.classifier.IsAdult(title, tags, it.Description)
	}
}

// thumbnails optimizes the primary local image of every work item. Remote
// images pass through unchanged; a failed encode falls back to the original.
func (b *Builder) thumbnails(ctx context.Context, r *run, works []*work) {
	var jobs []images.Job
	byID := make(map[string]*work, len(works))

	for _, w := range works {
		it := w.item
		primary := it.PrimaryImage()
		it.Thumbnail = primary

		if !b.cfg.Thumbnail.Enabled {
			continue
		}
		if primary == "" || listing.IsRemote(primary) {
			// The item lost its local image; drop any stale thumbnail.
			r.fingerprints.Delete(it.ID)
			if err := b.optimizer.Storage().Delete(it.ID); err != nil {
				b.logger.Debug("failed to delete stale thumbnail", "id", it.ID, "error", err)
			}
			continue
		}
		byID[it.ID] = w
		jobs = append(jobs, images.Job{
			ID:       it.ID,
			Source:   listing.LocalPath(b.cfg.Library.OutputPath, primary),
			Fallback: primary,
			Checksum: r.fingerprints.Get(it.ID),
		})
	}
	if len(jobs) == 0 {
		return
	}
	b.progress.SetTotal(len(jobs))

	for _, res := range b.optimizer.OptimizeAll(ctx, jobs) {
		w := byID[res.ID]
		if !res.OK() {
			b.logger.Warn("thumbnail fallback", "id", res.ID, "error", res.Err)
			b.progress.AddError(res.ID, res.Err)
			r.fingerprints.Delete(res.ID)
			r.report.ThumbnailFallbacks++
			w.incomplete = true
			continue
		}

		w.item.Thumbnail = listing.RelPath(b.cfg.Library.OutputPath, res.Path)
		w.item.BlurHash = res.BlurHash
		r.fingerprints.Set(res.ID, res.Checksum)
		if res.Reused {
			r.report.ThumbnailsReused++
		} else {
			r.report.ThumbnailsBuilt++
		}
	}
}
