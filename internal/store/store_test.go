package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boothvault/asset-library/internal/domain"
	domainerrors "github.com/boothvault/asset-library/internal/errors"
	"github.com/boothvault/asset-library/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "records"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestItems_PutGetDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	item := &domain.Item{ID: "123", NameOriginal: "衣装", Tags: []string{"a"}}
	require.NoError(t, s.Items.Put(ctx, item.ID, item))

	got, err := s.Items.Get(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, item, got)

	ok, err := s.Items.Exists(ctx, "123")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Items.Delete(ctx, "123"))
	_, err = s.Items.Get(ctx, "123")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))

	// Idempotent.
	require.NoError(t, s.Items.Delete(ctx, "123"))
}

func TestItems_ListAndIDs(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"3", "1", "2"} {
		require.NoError(t, s.Items.Put(ctx, id, &domain.Item{ID: id}))
	}
	require.NoError(t, s.SetLastBuild(ctx, store.BuildInfo{RunID: "r"}))

	ids, err := s.Items.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids)

	all, err := s.Items.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3, "meta keys must not leak into the item listing")
}

func TestItems_ListStopsEarly(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, s.Items.Put(ctx, id, &domain.Item{ID: id}))
	}

	n := 0
	for _, err := range s.Items.List(ctx) {
		require.NoError(t, err)
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestBatchWriter(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Items.Put(ctx, "gone", &domain.Item{ID: "gone"}))

	bw := s.NewBatchWriter(2)
	require.NoError(t, bw.PutItem(&domain.Item{ID: "1", RelatedIDs: []string{"2"}}))
	require.NoError(t, bw.PutItem(&domain.Item{ID: "2"}))
	assert.Equal(t, 0, bw.Count(), "auto flush at max size")
	require.NoError(t, bw.DeleteItem("gone"))
	assert.Equal(t, 1, bw.Count())
	require.NoError(t, bw.Flush())

	ids, err := s.Items.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids)

	got, err := s.Items.Get(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, got.RelatedIDs, "related ids are recomputed, never stored")
}

func TestLastBuild(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	info, err := s.LastBuild(ctx)
	require.NoError(t, err)
	assert.Nil(t, info)

	want := store.BuildInfo{RunID: "abc", FinishedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), Items: 10, Dirty: 2}
	require.NoError(t, s.SetLastBuild(ctx, want))

	info, err = s.LastBuild(ctx)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, want.RunID, info.RunID)
	assert.True(t, want.FinishedAt.Equal(info.FinishedAt))
	assert.Equal(t, 10, info.Items)
}

func TestRelations(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rel, err := s.Relations(ctx)
	require.NoError(t, err)
	assert.Empty(t, rel)

	require.NoError(t, s.SetRelations(ctx, map[string][]string{
		"100": {"20"},
		"20":  {"100"},
	}))
	rel, err = s.Relations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"20"}, rel["100"])
	assert.Equal(t, []string{"100"}, rel["20"])

	// A later build replaces the whole map.
	require.NoError(t, s.SetRelations(ctx, nil))
	rel, err = s.Relations(ctx)
	require.NoError(t, err)
	assert.Empty(t, rel)

	ids, err := s.Items.IDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestPaginate(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name    string
		params  store.PageParams
		items   []int
		hasMore bool
	}{
		{"first page", store.PageParams{Limit: 2}, []int{1, 2}, true},
		{"middle", store.PageParams{Limit: 2, Offset: 2}, []int{3, 4}, true},
		{"last", store.PageParams{Limit: 2, Offset: 4}, []int{5}, false},
		{"past end", store.PageParams{Limit: 2, Offset: 10}, []int{}, false},
		{"default limit", store.PageParams{}, []int{1, 2, 3, 4, 5}, false},
		{"negative offset", store.PageParams{Limit: 1, Offset: -3}, []int{1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := store.Paginate(all, tt.params)
			assert.Equal(t, tt.items, page.Items)
			assert.Equal(t, tt.hasMore, page.HasMore)
			assert.Equal(t, 5, page.Total)
		})
	}
}
