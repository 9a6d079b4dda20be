package images

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"log/slog"
	"os"

	_ "golang.org/x/image/bmp" // Register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
	"golang.org/x/sync/errgroup"

	domainerrors "github.com/boothvault/asset-library/internal/errors"
	"github.com/boothvault/asset-library/internal/listing"
)

const (
	// DefaultSize is the edge length of a thumbnail in pixels.
	DefaultSize = 320
	// DefaultQuality is the JPEG quality of a thumbnail.
	DefaultQuality = 82
	// DefaultWorkers bounds concurrent encodes.
	DefaultWorkers = 4
)

// Options configures an Optimizer.
type Options struct {
	Size    int
	Quality int
	Workers int
}

// Job asks for the thumbnail of one item.
type Job struct {
	ID string
	// Source is the local image file to encode.
	Source string
	// Fallback is returned as Result.Path when no thumbnail can be produced.
	Fallback string
	// Checksum is the fingerprint recorded when the current thumbnail was made.
	Checksum string
}

// Result is the outcome of a Job.
type Result struct {
	ID string
	// Path is the thumbnail file on success, otherwise Job.Fallback.
	Path     string
	Checksum string
	BlurHash string
	// Reused is set when the existing thumbnail was kept.
	Reused bool
	// Err is the reason the fallback was used.
	Err error
}

// OK reports whether Path is a freshly made or reused thumbnail.
func (r Result) OK() bool {
	return r.Err == nil
}

// Optimizer turns listing images into square JPEG thumbnails.
type Optimizer struct {
	storage *Storage
	opts    Options
	logger  *slog.Logger
}

// NewOptimizer creates an Optimizer writing into storage.
func NewOptimizer(storage *Storage, opts Options, logger *slog.Logger) *Optimizer {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultQuality
	}
	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers
	}
	return &Optimizer{storage: storage, opts: opts, logger: logger}
}

// Storage returns the thumbnail storage.
func (o *Optimizer) Storage() *Storage {
	return o.storage
}

// Fingerprint returns the hex sha256 of data.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Optimize produces the thumbnail for job. It never fails the caller: any
// error is reported in Result.Err with Result.Path set to the fallback.
// An unchanged source with an existing thumbnail is not re-encoded.
func (o *Optimizer) Optimize(ctx context.Context, job Job) Result {
	res := Result{ID: job.ID, Path: job.Fallback}

	if job.Source == "" || listing.IsRemote(job.Source) {
		res.Err = fmt.Errorf("no local image for %s", job.ID)
		return res
	}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	data, err := os.ReadFile(job.Source) //#nosec G304 -- image paths come from the scanned source tree
	if err != nil {
		res.Err = domainerrors.Wrapf(err, domainerrors.CodeThumbnailFailed, "read %s", job.Source)
		return res
	}
	res.Checksum = Fingerprint(data)

	if res.Checksum == job.Checksum && o.storage.Exists(job.ID) {
		res.Path = o.storage.Path(job.ID)
		res.Reused = true
		if hash, err := ComputeBlurHash(res.Path); err == nil {
			res.BlurHash = hash
		}
		return res
	}

	thumb, encoded, err := o.encode(data)
	if err != nil {
		res.Err = domainerrors.Wrapf(err, domainerrors.CodeThumbnailFailed, "thumbnail %s", job.Source)
		res.Checksum = ""
		return res
	}
	if err := o.storage.Save(job.ID, encoded); err != nil {
		res.Err = domainerrors.Wrapf(err, domainerrors.CodeThumbnailFailed, "store thumbnail for %s", job.ID)
		res.Checksum = ""
		return res
	}
	res.Path = o.storage.Path(job.ID)

	if hash, err := BlurHash(thumb); err == nil {
		res.BlurHash = hash
	} else {
		o.logger.Debug("blurhash failed", "id", job.ID, "error", err)
	}

	return res
}

// encode decodes data, center-crops it to a square, scales it down to at
// most Size pixels and encodes it as JPEG.
func (o *Optimizer) encode(data []byte) (image.Image, []byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("decode image: %w", err)
	}

	crop := centerSquare(src.Bounds())
	if crop.Empty() {
		return nil, nil, fmt.Errorf("image has no pixels")
	}
	side := min(crop.Dx(), o.opts.Size)

	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	// JPEG has no alpha; transparent areas become white instead of black.
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: o.opts.Quality}); err != nil {
		return nil, nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return dst, buf.Bytes(), nil
}

// centerSquare returns the largest square centered in r.
func centerSquare(r image.Rectangle) image.Rectangle {
	side := min(r.Dx(), r.Dy())
	x := r.Min.X + (r.Dx()-side)/2
	y := r.Min.Y + (r.Dy()-side)/2
	return image.Rect(x, y, x+side, y+side)
}

// OptimizeAll runs jobs through a pool of Options.Workers goroutines and
// returns one Result per job, in job order.
func (o *Optimizer) OptimizeAll(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	var g errgroup.Group
	g.SetLimit(o.opts.Workers)
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = o.Optimize(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	var built, reused, failed int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
		case r.Reused:
			reused++
		default:
			built++
		}
	}
	if len(jobs) > 0 {
		o.logger.Info("thumbnails processed", "built", built, "reused", reused, "fallback", failed)
	}

	return results
}
