package publish

import (
	"context"
	"crypto/md5" //#nosec G501 -- S3 ETags of single-part uploads are MD5 digests
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/minio/minio-go/v7"
	"golang.org/x/sync/errgroup"

	"github.com/boothvault/asset-library/internal/config"
)

const defaultWorkers = 4

// Publisher uploads a directory tree under a key prefix and removes remote
// objects under that prefix that no longer exist locally.
type Publisher struct {
	client  Client
	bucket  string
	region  string
	prefix  string
	workers int
	logger  *slog.Logger
}

// Report summarizes one publish run.
type Report struct {
	Uploaded int
	Skipped  int
	Deleted  int
	Bytes    int64
	Duration time.Duration
}

// localFile is one file below the published directory.
type localFile struct {
	path string
	key  string
	size int64
}

// New creates a Publisher.
func New(client Client, cfg config.PublishConfig, logger *slog.Logger) *Publisher {
	return &Publisher{
		client:  client,
		bucket:  cfg.Bucket,
		region:  cfg.Region,
		prefix:  strings.Trim(cfg.Prefix, "/"),
		workers: defaultWorkers,
		logger:  logger,
	}
}

// Key returns the object key for a slash separated path relative to the
// published directory.
func (p *Publisher) Key(rel string) string {
	if p.prefix == "" {
		return rel
	}
	return path.Join(p.prefix, rel)
}

// Publish mirrors dir to the bucket. Files whose size and MD5 match the
// remote object are skipped. Stale remote objects are deleted only after
// every upload succeeded.
func (p *Publisher) Publish(ctx context.Context, dir string) (*Report, error) {
	start := time.Now()

	if err := p.ensureBucket(ctx); err != nil {
		return nil, err
	}

	files, err := p.walk(dir)
	if err != nil {
		return nil, err
	}

	remote, err := p.listRemote(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	var uploaded, skipped atomic.Int64
	var bytes atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, f := range files {
		g.Go(func() error {
			done, err := p.sync(gctx, f, remote[f.key])
			if err != nil {
				return fmt.Errorf("upload %s: %w", f.key, err)
			}
			if done {
				uploaded.Add(1)
				bytes.Add(f.size)
			} else {
				skipped.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	report.Uploaded = int(uploaded.Load())
	report.Skipped = int(skipped.Load())
	report.Bytes = bytes.Load()

	local := make(map[string]bool, len(files))
	for _, f := range files {
		local[f.key] = true
	}
	var stale []string
	for key := range remote {
		if !local[key] {
			stale = append(stale, key)
		}
	}
	deleted, err := p.remove(ctx, stale)
	report.Deleted = deleted
	if err != nil {
		return report, err
	}

	report.Duration = time.Since(start)
	p.logger.Info("publish complete",
		"bucket", p.bucket,
		"prefix", p.prefix,
		"uploaded", report.Uploaded,
		"skipped", report.Skipped,
		"deleted", report.Deleted,
		"bytes", report.Bytes,
		"duration", report.Duration,
	)
	return report, nil
}

func (p *Publisher) ensureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", p.bucket, err)
	}
	if exists {
		return nil
	}
	p.logger.Info("creating bucket", "bucket", p.bucket)
	if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{Region: p.region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", p.bucket, err)
	}
	return nil
}

// walk lists regular files below dir, skipping dot files.
func (p *Publisher) walk(dir string) ([]localFile, error) {
	var files []localFile
	err := filepath.WalkDir(dir, func(fp string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && fp != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, fp)
		if err != nil {
			return err
		}
		files = append(files, localFile{
			path: fp,
			key:  p.Key(filepath.ToSlash(rel)),
			size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return files, nil
}

func (p *Publisher) listRemote(ctx context.Context) (map[string]minio.ObjectInfo, error) {
	opts := minio.ListObjectsOptions{Recursive: true}
	if p.prefix != "" {
		opts.Prefix = p.prefix + "/"
	}

	remote := make(map[string]minio.ObjectInfo)
	for obj := range p.client.ListObjects(ctx, p.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", p.bucket, obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		remote[obj.Key] = obj
	}
	return remote, nil
}

// sync uploads f unless the remote object already has the same content.
func (p *Publisher) sync(ctx context.Context, f localFile, remote minio.ObjectInfo) (bool, error) {
	if remote.Key != "" && remote.Size == f.size {
		sum, err := md5File(f.path)
		if err != nil {
			return false, err
		}
		if strings.EqualFold(strings.Trim(remote.ETag, `"`), sum) {
			p.logger.Debug("unchanged", "key", f.key)
			return false, nil
		}
	}

	fh, err := os.Open(f.path) //#nosec G304 -- path comes from walking the output directory
	if err != nil {
		return false, err
	}
	defer fh.Close()

	_, err = p.client.PutObject(ctx, p.bucket, f.key, fh, f.size, minio.PutObjectOptions{
		ContentType:  ContentType(f.key),
		CacheControl: CacheControl(f.key),
	})
	if err != nil {
		return false, err
	}
	p.logger.Debug("uploaded", "key", f.key, "bytes", f.size)
	return true, nil
}

func (p *Publisher) remove(ctx context.Context, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, key := range keys {
		objectsCh <- minio.ObjectInfo{Key: key}
	}
	close(objectsCh)

	var errs []error
	for rerr := range p.client.RemoveObjects(ctx, p.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		p.logger.Warn("failed to delete stale object", "key", rerr.ObjectName, "error", rerr.Err)
		errs = append(errs, fmt.Errorf("delete %s: %w", rerr.ObjectName, rerr.Err))
	}

	deleted := len(keys) - len(errs)
	if len(errs) > 0 {
		return deleted, fmt.Errorf("%d stale objects could not be deleted: %w", len(errs), errs[0])
	}
	return deleted, nil
}

func md5File(fp string) (string, error) {
	fh, err := os.Open(fp) //#nosec G304 -- path comes from walking the output directory
	if err != nil {
		return "", err
	}
	defer fh.Close()

	h := md5.New() //#nosec G401 -- compared against S3 ETags, not used for security
	if _, err := io.Copy(h, fh); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ContentType returns the MIME type served for key.
func ContentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".js":
		return "text/javascript; charset=utf-8"
	case ".json":
		return "application/json"
	case ".webp":
		return "image/webp"
	}
	if t := mime.TypeByExtension(path.Ext(key)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// CacheControl keeps the page and its data script fresh on the CDN.
func CacheControl(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".html", ".js":
		return "no-cache"
	default:
		return "public, max-age=86400"
	}
}
