// Package jsonfile persists small JSON documents (caches, the build ledger)
// with atomic replacement, so a crash mid-write leaves the previous file intact.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	domainerrors "github.com/boothvault/asset-library/internal/errors"
)

// Load decodes path into a T. A missing file yields the zero value and no error.
// A file that exists but does not decode yields the zero value and an error
// matching errors.ErrCacheCorrupt; callers typically log it and continue empty.
func Load[T any](path string) (T, error) {
	var v T
	data, err := os.ReadFile(path) //#nosec G304 -- cache paths come from configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		return v, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, domainerrors.Wrapf(err, domainerrors.CodeCacheCorrupt, "corrupt json file %s", path)
	}
	return v, nil
}

// Save encodes v with stable key order and atomically replaces path.
func Save(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return WriteAtomic(path, append(data, '\n'), 0o644)
}

// WriteAtomic writes data to a temporary file in the target directory, syncs
// it and renames it over path.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeWriteFailed, "create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeWriteFailed, "create temp file for %s", path)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return domainerrors.Wrapf(err, domainerrors.CodeWriteFailed, "write %s", path)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return domainerrors.Wrapf(err, domainerrors.CodeWriteFailed, "sync %s", path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return domainerrors.Wrapf(err, domainerrors.CodeWriteFailed, "close %s", path)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return domainerrors.Wrapf(err, domainerrors.CodeWriteFailed, "chmod %s", path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return domainerrors.Wrapf(err, domainerrors.CodeWriteFailed, "rename %s", path)
	}
	return nil
}
