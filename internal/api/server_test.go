package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boothvault/asset-library/internal/domain"
	"github.com/boothvault/asset-library/internal/logger"
	"github.com/boothvault/asset-library/internal/search"
	"github.com/boothvault/asset-library/internal/store"
)

type testServer struct {
	*Server
	api humatest.TestAPI
	out string
}

var fixtureItems = []*domain.Item{
	{ID: "100", NameOriginal: "Aria", AuthorOriginal: "Studio", IsAvatar: true, Tags: []string{"avatar"}},
	{ID: "20", NameOriginal: "Winter coat", Tags: []string{"outfit"}},
	{ID: "3", NameOriginal: "Lingerie set", IsAdult: true},
}

// fixtureRelations links the avatar to the coat made for it.
var fixtureRelations = map[string][]string{
	"100": {"20"},
	"20":  {"100"},
}

func setupTestServer(t *testing.T, opts ...func(*Options)) *testServer {
	t.Helper()

	data := t.TempDir()
	out := t.TempDir()

	st, err := store.New(filepath.Join(data, "records"), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	idx, err := search.NewSearchIndex(search.Options{DataPath: data})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	ctx := context.Background()
	for _, it := range fixtureItems {
		require.NoError(t, st.Items.Put(ctx, it.ID, it))
	}
	require.NoError(t, idx.IndexItems(fixtureItems))
	require.NoError(t, st.SetRelations(ctx, fixtureRelations))

	o := Options{OutputDir: out, IndexFile: "asset_library.html"}
	for _, fn := range opts {
		fn(&o)
	}

	s := NewServer(st, idx, o, logger.Discard())
	t.Cleanup(func() { _ = s.Shutdown() })

	return &testServer{Server: s, api: humatest.Wrap(t, s.api), out: out}
}

// decodeData unwraps the success envelope into dest.
func decodeData(t *testing.T, body []byte, dest any) {
	t.Helper()

	var env struct {
		Version int             `json:"v"`
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &env))
	require.True(t, env.Success, string(body))
	require.Equal(t, EnvelopeVersion, env.Version)
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func TestListItems(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name    string
		path    string
		wantIDs []string
		total   int
		hasMore bool
	}{
		{"all in id order", "/api/v1/items", []string{"3", "20", "100"}, 3, false},
		{"avatars", "/api/v1/items?avatar=true", []string{"100"}, 1, false},
		{"hide adult", "/api/v1/items?adult=false", []string{"20", "100"}, 2, false},
		{"paged", "/api/v1/items?limit=1&offset=1", []string{"20"}, 3, true},
		{"offset past end", "/api/v1/items?offset=10", []string{}, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get(tt.path)
			require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

			var page store.Page[*domain.Item]
			decodeData(t, resp.Body.Bytes(), &page)

			ids := make([]string, 0, len(page.Items))
			for _, it := range page.Items {
				ids = append(ids, it.ID)
				assert.NotNil(t, it.RelatedIDs)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.total, page.Total)
			assert.Equal(t, tt.hasMore, page.HasMore)
		})
	}
}

func TestListItems_InvalidFilter(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/items?adult=maybe")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestGetItem(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/items/20")
	require.Equal(t, http.StatusOK, resp.Code)

	var item domain.Item
	decodeData(t, resp.Body.Bytes(), &item)
	assert.Equal(t, "Winter coat", item.NameOriginal)
	assert.Equal(t, []string{"100"}, item.RelatedIDs)
}

func TestGetItem_RelatedIDs(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		id   string
		want []string
	}{
		{"100", []string{"20"}},
		{"20", []string{"100"}},
		{"3", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			resp := ts.api.Get("/api/v1/items/" + tt.id)
			require.Equal(t, http.StatusOK, resp.Code)

			var item domain.Item
			decodeData(t, resp.Body.Bytes(), &item)
			assert.Equal(t, tt.want, item.RelatedIDs)
		})
	}

	resp := ts.api.Get("/api/v1/items?avatar=true")
	require.Equal(t, http.StatusOK, resp.Code)

	var page store.Page[*domain.Item]
	decodeData(t, resp.Body.Bytes(), &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, []string{"20"}, page.Items[0].RelatedIDs)
}

func TestGetItem_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/items/999")
	require.Equal(t, http.StatusNotFound, resp.Code)

	var env APIErrorEnvelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	assert.Equal(t, EnvelopeVersion, env.Version)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestSearch(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/search?q=coat")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var res SearchResponse
	decodeData(t, resp.Body.Bytes(), &res)
	assert.Equal(t, "coat", res.Query)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "20", res.Hits[0].ID)
}

func TestSearch_Filters(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/search?q=aria&avatar=false")
	require.Equal(t, http.StatusOK, resp.Code)

	var res SearchResponse
	decodeData(t, resp.Body.Bytes(), &res)
	assert.Empty(t, res.Hits)
}

func TestSearch_RequiresQuery(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/search")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestSearch_Disabled(t *testing.T) {
	ts := setupTestServer(t)
	ts.index = nil

	resp := ts.api.Get("/api/v1/search?q=coat")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestStaticFiles(t *testing.T) {
	ts := setupTestServer(t)

	require.NoError(t, os.WriteFile(filepath.Join(ts.out, "asset_library.html"), []byte("<html>library</html>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(ts.out, "thumbnails"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(ts.out, "thumbnails", "1.jpg"), []byte("jpeg"), 0o644))

	t.Run("root redirects to page", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/asset_library.html", rec.Header().Get("Location"))
	})

	t.Run("page is not cached", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/asset_library.html", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "library")
		assert.Equal(t, CacheNoStore, rec.Header().Get("Cache-Control"))
	})

	t.Run("thumbnail", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/thumbnails/1.jpg", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, CacheOneDay, rec.Header().Get("Cache-Control"))
	})

	t.Run("missing file", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope.js", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCORS(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	ts := setupTestServer(t, func(o *Options) {
		o.RequestsPerSecond = 0.001
		o.Burst = 2
	})

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/items/20", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		ts.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Static files are never limited.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	ts.ServeHTTP(rec, req)
	assert.NotEqual(t, http.StatusTooManyRequests, rec.Code)
}
