package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boothvault/asset-library/internal/logger"
)

func mkfile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestWalker_Walk_EmptyDirectory(t *testing.T) {
	walker := NewWalker(logger.Discard())

	var results []WalkResult
	for r := range walker.Walk(context.Background(), t.TempDir()) {
		results = append(results, r)
	}

	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestWalker_Walk_SkipsHidden(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "a.txt"), "hello")
	mkfile(t, filepath.Join(root, ".DS_Store"), "x")
	mkfile(t, filepath.Join(root, ".git", "HEAD"), "x")
	mkfile(t, filepath.Join(root, "sub", "b.txt"), "x")

	walker := NewWalker(logger.Discard())
	got := map[string]bool{}
	for r := range walker.Walk(context.Background(), root) {
		got[r.RelPath] = r.IsDir
	}

	assert.Equal(t, map[string]bool{"a.txt": false, "sub": true, "sub/b.txt": false}, got)
}

func TestWalker_Walk_ContextCanceled(t *testing.T) {
	root := t.TempDir()
	for i := range 50 {
		mkfile(t, filepath.Join(root, "d", string(rune('a'+i%26))+".txt"), "x")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	count := 0
	for range NewWalker(logger.Discard()).Walk(ctx, root) {
		count++
	}
	if count > 1 {
		t.Errorf("expected walk to stop after cancel, got %d results", count)
	}
}

func TestWalker_Folders(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "100", "_BoothPage.json"), "{}")
	mkfile(t, filepath.Join(root, "20", "_BoothPage.json"), "{}")
	mkfile(t, filepath.Join(root, "20", "Binary", "model.unitypackage"), "payload")
	mkfile(t, filepath.Join(root, ".cache", "x"), "x")
	mkfile(t, filepath.Join(root, "stray.txt"), "x")

	folders, err := NewWalker(logger.Discard()).Folders(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, folders, 2)

	assert.Equal(t, "20", folders[0].ID)
	assert.Equal(t, "100", folders[1].ID)
	assert.Equal(t, 2, folders[0].Files)
	assert.Len(t, folders[0].Fingerprint, 64)
	assert.Empty(t, folders[1].Fingerprint, "no Binary directory, no fingerprint")
}

func TestWalker_Inspect_ModTimeIsNewestEntry(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "1")
	mkfile(t, filepath.Join(dir, "_BoothPage.json"), "{}")
	mkfile(t, filepath.Join(dir, "Binary", "a.zip"), "a")

	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, p := range []string{dir, filepath.Join(dir, "Binary"), filepath.Join(dir, "_BoothPage.json")} {
		touch(t, p, old)
	}
	touch(t, filepath.Join(dir, "Binary", "a.zip"), newer)

	folder, err := NewWalker(logger.Discard()).Inspect(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, newer.UnixMilli(), folder.ModTime)
}

func TestWalker_Inspect_FingerprintTracksBinarySet(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "1")
	mkfile(t, filepath.Join(dir, "Binary", "a.zip"), "a")
	walker := NewWalker(logger.Discard())

	first, err := walker.Inspect(context.Background(), dir)
	require.NoError(t, err)

	// Same state, same fingerprint.
	again, err := walker.Inspect(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, first.Fingerprint, again.Fingerprint)

	// Images outside Binary do not affect it.
	mkfile(t, filepath.Join(dir, "cover.jpg"), "img")
	withImage, err := walker.Inspect(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, first.Fingerprint, withImage.Fingerprint)

	mkfile(t, filepath.Join(dir, "Binary", "b.zip"), "bb")
	changed, err := walker.Inspect(context.Background(), dir)
	require.NoError(t, err)
	assert.NotEqual(t, first.Fingerprint, changed.Fingerprint)
}

func TestFingerprint_OrderIndependent(t *testing.T) {
	a := fingerprint([]string{"Binary/a|1|1", "Binary/b|2|2"})
	b := fingerprint([]string{"Binary/b|2|2", "Binary/a|1|1"})
	assert.Equal(t, a, b)
}
