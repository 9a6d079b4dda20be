package translate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boothvault/asset-library/internal/logger"
	"github.com/boothvault/asset-library/internal/ratelimit"
)

// fakeTranslator upper-cases input and counts calls per string.
type fakeTranslator struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func newFake() *fakeTranslator {
	return &fakeTranslator{calls: make(map[string]int), fail: make(map[string]bool)}
}

func (f *fakeTranslator) Name() string { return "fake" }

func (f *fakeTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[text]++
	if f.fail[text] {
		return "", ErrServer
	}
	return "EN:" + text, nil
}

func (f *fakeTranslator) count(text string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[text]
}

func openCache(t *testing.T, path string, backend Translator) *Cache {
	t.Helper()
	return Open(path, backend, Options{SourceLang: "ja", TargetLang: "en", Workers: 3}, logger.Discard())
}

func TestContainsCJK(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Hello World", false},
		{"", false},
		{"1.5 ver", false},
		{"衣装", true},
		{"ひらがな", true},
		{"カタカナ", true},
		{"ｶﾀｶﾅ", true},
		{"한국어", true},
		{"Outfit for 桔梗", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ContainsCJK(tt.in), "ContainsCJK(%q)", tt.in)
	}
}

func TestCache_TranslateBatchIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "translations.json")
	fake := newFake()
	c := openCache(t, path, fake)

	inputs := []string{"衣装", "髪型", "衣装", "Sweater"}
	batch := c.TranslateBatch(context.Background(), inputs)
	require.NoError(t, c.Save())

	got, ok := batch.Get("衣装")
	require.True(t, ok)
	assert.Equal(t, "EN:衣装", got)
	_, ok = batch.Get("Sweater")
	assert.False(t, ok, "latin text must not be translated")
	assert.Empty(t, batch.Failed)
	assert.Equal(t, 1, fake.count("衣装"), "duplicates collapse into one call")
	assert.Equal(t, 0, fake.count("Sweater"))

	// Second run in a fresh process sees only cache hits.
	again := openCache(t, path, fake)
	batch = again.TranslateBatch(context.Background(), inputs)
	assert.Equal(t, int64(0), again.Calls())
	got, _ = batch.Get("髪型")
	assert.Equal(t, "EN:髪型", got)
}

func TestCache_FailuresAreNotCached(t *testing.T) {
	path := filepath.Join(t.TempDir(), "translations.json")
	fake := newFake()
	fake.fail["失敗"] = true
	c := openCache(t, path, fake)

	batch := c.TranslateBatch(context.Background(), []string{"失敗", "成功"})
	require.NoError(t, c.Save())

	assert.Equal(t, []string{"失敗"}, batch.Failed)
	_, ok := c.Lookup("失敗")
	assert.False(t, ok)
	_, ok = c.Lookup("成功")
	assert.True(t, ok)

	// A retry calls the backend again for the failed string only.
	fake.fail["失敗"] = false
	batch = c.TranslateBatch(context.Background(), []string{"失敗", "成功"})
	assert.Empty(t, batch.Failed)
	assert.Equal(t, 2, fake.count("失敗"))
	assert.Equal(t, 1, fake.count("成功"))
}

func TestCache_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "translations.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	c := openCache(t, path, newFake())
	assert.Equal(t, 0, c.Len())

	assert.Equal(t, "EN:靴", c.Translate(context.Background(), "靴"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "EN:靴")
}

func TestCache_NoBackend(t *testing.T) {
	c := openCache(t, filepath.Join(t.TempDir(), "t.json"), nil)
	batch := c.TranslateBatch(context.Background(), []string{"靴"})
	assert.Equal(t, []string{"靴"}, batch.Failed)
	assert.Equal(t, "靴", c.Translate(context.Background(), "靴"))
}

func TestCache_TranslateEachBypassesCache(t *testing.T) {
	fake := newFake()
	c := openCache(t, filepath.Join(t.TempDir(), "t.json"), fake)

	out := c.TranslateEach(context.Background(), []string{"説明文", "plain text"})
	assert.Equal(t, []string{"EN:説明文", ""}, out)
	assert.Equal(t, 0, c.Len())
}

func TestDescriptionCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "descriptions.json")
	d := OpenDescriptions(path, logger.Discard())
	d.Set("100", "A dress")
	require.NoError(t, d.Save())

	reloaded := OpenDescriptions(path, logger.Discard())
	got, ok := reloaded.Get("100")
	require.True(t, ok)
	assert.Equal(t, "A dress", got)

	reloaded.Delete("100")
	require.NoError(t, reloaded.Save())
	_, ok = OpenDescriptions(path, logger.Discard()).Get("100")
	assert.False(t, ok)
}

func TestGoogle_Translate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate_a/single", r.URL.Path)
		assert.Equal(t, "gtx", r.URL.Query().Get("client"))
		assert.Equal(t, "ja", r.URL.Query().Get("sl"))
		assert.Equal(t, "衣装です。靴です。", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`[[["It is clothing. ","衣装です。",null,null,10],["It is shoes.","靴です。",null,null,10]],null,"ja"]`))
	}))
	defer srv.Close()

	g, err := NewGoogle(srv.URL, 5*time.Second, ratelimit.New(0, 1), logger.Discard())
	require.NoError(t, err)

	out, err := g.Translate(context.Background(), "衣装です。靴です。", "ja", "en")
	require.NoError(t, err)
	assert.Equal(t, "It is clothing. It is shoes.", out)
}

func TestGoogle_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"bad request", http.StatusBadRequest, ErrBadRequest},
		{"server", http.StatusBadGateway, ErrServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			g, err := NewGoogle(srv.URL, time.Second, ratelimit.New(0, 1), logger.Discard())
			require.NoError(t, err)

			_, err = g.Translate(context.Background(), "靴", "ja", "en")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var terr *Error
			require.True(t, errors.As(err, &terr))
			assert.Equal(t, "google", terr.Backend)
		})
	}
}

func TestOllama_Translate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"{\"translation\": \"Hair style\"}"}}`))
	}))
	defer srv.Close()

	o, err := NewOllama(srv.URL, "qwen2.5:7b", 5*time.Second, ratelimit.New(0, 1), logger.Discard())
	require.NoError(t, err)

	out, err := o.Translate(context.Background(), "髪型", "ja", "en")
	require.NoError(t, err)
	assert.Equal(t, "Hair style", out)
}

func TestExtractTranslation(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"json", `{"translation": "Shoes"}`, "Shoes", false},
		{"fenced", "```json\n{\"translation\": \"Shoes\"}\n```", "Shoes", false},
		{"chatter around json", `Sure! {"translation": "Shoes"} Hope it helps`, "Shoes", false},
		{"bare text", "Shoes", "Shoes", false},
		{"empty translation", `{"translation": ""}`, "", true},
		{"empty reply", "   ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractTranslation(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewBackend(t *testing.T) {
	lim := ratelimit.New(0, 1)
	g, err := NewBackend(BackendConfig{Backend: "google"}, lim, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, "google", g.Name())

	o, err := NewBackend(BackendConfig{Backend: "ollama", Model: "m"}, lim, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, "ollama", o.Name())

	_, err = NewBackend(BackendConfig{Backend: "deepl"}, lim, logger.Discard())
	assert.True(t, strings.Contains(err.Error(), "deepl"))
}
