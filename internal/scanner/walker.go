package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/boothvault/asset-library/internal/domain"
	"github.com/boothvault/asset-library/internal/listing"
)

// Walker traverses the source tree.
type Walker struct {
	logger *slog.Logger
}

// NewWalker creates a new walker.
func NewWalker(logger *slog.Logger) *Walker {
	return &Walker{
		logger: logger,
	}
}

// WalkResult represents a file discovered during walking.
type WalkResult struct {
	Error   error
	Path    string
	RelPath string
	Size    int64
	ModTime int64
	IsDir   bool
}

// Walk traverses a directory and streams every non-hidden file and directory
// below it. The channel closes when the walk is complete or ctx is canceled.
func (w *Walker) Walk(ctx context.Context, rootPath string) <-chan WalkResult {
	results := make(chan WalkResult, 100)

	go func() {
		defer close(results)

		err := filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err != nil {
				w.logger.Warn("walk error", "path", path, "error", err)
				return nil
			}

			if path == rootPath {
				return nil
			}

			if strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			info, err := d.Info()
			if err != nil {
				w.logger.Warn("failed to get file info", "path", path, "error", err)
				return nil
			}

			relPath, err := filepath.Rel(rootPath, path)
			if err != nil {
				relPath = path
			}

			result := WalkResult{
				Path:    path,
				RelPath: filepath.ToSlash(relPath),
				IsDir:   d.IsDir(),
				Size:    info.Size(),
				ModTime: info.ModTime().UnixMilli(),
			}

			select {
			case results <- result:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})

		if err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("walk failed", "root", rootPath, "error", err)
		}
	}()

	return results
}

// Folders lists the item folders directly under root, sorted by id, each
// with its newest modification time and binary fingerprint.
func (w *Walker) Folders(ctx context.Context, root string) ([]Folder, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}

	var folders []Folder
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		folder, err := w.Inspect(ctx, filepath.Join(root, entry.Name()))
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			w.logger.Warn("skipping unreadable folder", "path", entry.Name(), "error", err)
			continue
		}
		folders = append(folders, folder)
	}

	slices.SortFunc(folders, func(a, b Folder) int { return domain.CompareIDs(a.ID, b.ID) })

	w.logger.Debug("item folders discovered", "root", root, "count", len(folders))
	return folders, nil
}

// Inspect computes the Folder state of a single item folder.
func (w *Walker) Inspect(ctx context.Context, dir string) (Folder, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return Folder{}, err
	}

	folder := Folder{
		ID:      filepath.Base(dir),
		Path:    dir,
		ModTime: info.ModTime().UnixMilli(),
	}

	binaryPrefix := listing.BinaryDirName + "/"
	var binaries []string
	hasBinaryDir := false

	for r := range w.Walk(ctx, dir) {
		folder.ModTime = max(folder.ModTime, r.ModTime)
		if r.IsDir {
			if r.RelPath == listing.BinaryDirName {
				hasBinaryDir = true
			}
			continue
		}
		folder.Files++
		if strings.HasPrefix(r.RelPath, binaryPrefix) {
			binaries = append(binaries, r.RelPath+"|"+strconv.FormatInt(r.Size, 10)+"|"+strconv.FormatInt(r.ModTime, 10))
		}
	}
	if err := ctx.Err(); err != nil {
		return Folder{}, err
	}

	if hasBinaryDir {
		folder.Fingerprint = fingerprint(binaries)
	}
	return folder, nil
}

// fingerprint hashes the sorted "relpath|size|mtime" lines of a binary set.
func fingerprint(lines []string) string {
	slices.Sort(lines)
	h := sha256.New()
	for _, l := range lines {
		h.Write([]byte(l))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
