package emitter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boothvault/asset-library/internal/domain"
	domainerrors "github.com/boothvault/asset-library/internal/errors"
	"github.com/boothvault/asset-library/internal/logger"
)

func newTestEmitter(t *testing.T) *Emitter {
	t.Helper()
	e, err := New(Options{OutputDir: t.TempDir(), FileName: "index.html"}, logger.Discard())
	require.NoError(t, err)
	return e
}

// decodeData strips the assignment around LIBRARY_DATA and decodes it.
func decodeData(t *testing.T, script []byte) Database {
	t.Helper()
	s := string(script)
	start := strings.Index(s, "window.LIBRARY_DATA = ") + len("window.LIBRARY_DATA = ")
	end := strings.Index(s, ";\nwindow.LIBRARY_I18N")
	require.Greater(t, end, start)

	var db Database
	require.NoError(t, json.Unmarshal([]byte(s[start:end]), &db))
	return db
}

func TestEmbeddedTemplateHasMarker(t *testing.T) {
	data, err := templates.ReadFile("templates/library.html")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), Marker))
}

func TestNew_TemplateOverride(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.html")
	require.NoError(t, os.WriteFile(good, []byte("<script>"+Marker+"</script>"), 0o644))
	_, err := New(Options{TemplatePath: good}, logger.Discard())
	require.NoError(t, err)

	bad := filepath.Join(dir, "bad.html")
	require.NoError(t, os.WriteFile(bad, []byte("<html></html>"), 0o644))
	_, err = New(Options{TemplatePath: bad}, logger.Discard())
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	_, err = New(Options{TemplatePath: filepath.Join(dir, "missing.html")}, logger.Discard())
	assert.Error(t, err)
}

func TestScript_SortsByNumericID(t *testing.T) {
	items := []*domain.Item{{ID: "10"}, {ID: "9"}, {ID: "abc"}, {ID: "100"}}

	script, err := Script(items, nil)
	require.NoError(t, err)

	db := decodeData(t, script)
	ids := make([]string, 0, len(db.Items))
	for _, it := range db.Items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"9", "10", "100", "abc"}, ids)
	assert.Equal(t, 4, db.Count)
	assert.Equal(t, "10", items[0].ID, "input order untouched")
	assert.Contains(t, string(script), "window.LIBRARY_I18N = {};")
}

func TestScript_Deterministic(t *testing.T) {
	a := []*domain.Item{{ID: "2", NameOriginal: "b"}, {ID: "1", NameOriginal: "a"}}
	b := []*domain.Item{{ID: "1", NameOriginal: "a"}, {ID: "2", NameOriginal: "b"}}

	sa, err := Script(a, json.RawMessage(`{"languages":{}}`))
	require.NoError(t, err)
	sb, err := Script(b, json.RawMessage(`{"languages":{}}`))
	require.NoError(t, err)
	assert.Equal(t, sa, sb)
}

func TestScript_RelatedIDsAlwaysArray(t *testing.T) {
	script, err := Script([]*domain.Item{{ID: "1"}}, nil)
	require.NoError(t, err)
	assert.Contains(t, string(script), `"relatedIds":[]`)
}

func TestScript_EscapesScriptTerminator(t *testing.T) {
	tests := []struct {
		name  string
		items []*domain.Item
		i18n  json.RawMessage
	}{
		{"item name", []*domain.Item{{ID: "1", NameOriginal: "</script><b>"}}, nil},
		{"i18n string", []*domain.Item{{ID: "1"}}, json.RawMessage(`{"translations":{"en":{"search":"</script><b>"}}}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := Script(tt.items, tt.i18n)
			require.NoError(t, err)
			assert.NotContains(t, string(script), "</script>")
		})
	}
}

func TestScript_I18nKeepsValue(t *testing.T) {
	i18n := json.RawMessage("{\n  \"translations\": {\"en\": {\"search\": \"</script> & more\"}}\n}")
	script, err := Script(nil, i18n)
	require.NoError(t, err)

	s := string(script)
	start := strings.Index(s, "window.LIBRARY_I18N = ") + len("window.LIBRARY_I18N = ")
	end := strings.LastIndex(s, ";\n")
	require.Greater(t, end, start)

	var got map[string]map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(s[start:end]), &got))
	assert.Equal(t, "</script> & more", got["translations"]["en"]["search"])
}

func TestScript_RejectsMalformedI18n(t *testing.T) {
	_, err := Script(nil, json.RawMessage("{"))
	assert.Error(t, err)
}

func TestEmit_WritesPageAndData(t *testing.T) {
	e := newTestEmitter(t)

	i18n := json.RawMessage(`{"languages":{"en":"English"},"translations":{"en":{"search":"Search"}}}`)
	res, err := e.Emit([]*domain.Item{{ID: "1", NameOriginal: "テスト"}}, i18n)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Items)

	page, err := os.ReadFile(res.PagePath)
	require.NoError(t, err)
	assert.NotContains(t, string(page), Marker)
	assert.Contains(t, string(page), "window.LIBRARY_DATA = ")
	assert.Contains(t, string(page), `window.LIBRARY_I18N = {"languages":{"en":"English"}`)
	assert.Contains(t, string(page), "テスト")

	data, err := os.ReadFile(res.DataPath)
	require.NoError(t, err)
	assert.Contains(t, string(page), string(data))
}

func TestEmit_FailureKeepsPreviousOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(out, 0o755))

	e, err := New(Options{OutputDir: out, FileName: "index.html"}, logger.Discard())
	require.NoError(t, err)
	_, err = e.Emit([]*domain.Item{{ID: "1"}}, nil)
	require.NoError(t, err)
	before, err := os.ReadFile(e.PagePath())
	require.NoError(t, err)

	// A directory in place of the data file makes the rename fail.
	require.NoError(t, os.Remove(e.DataPath()))
	require.NoError(t, os.MkdirAll(filepath.Join(e.DataPath(), "x"), 0o755))

	_, err = e.Emit([]*domain.Item{{ID: "2"}}, nil)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrWriteFailed))

	after, err := os.ReadFile(e.PagePath())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestLoadI18n(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "i18n.json")
	require.NoError(t, os.WriteFile(valid, []byte(" {\"languages\":{\"ja\":\"日本語\"}}\n"), 0o644))
	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{"), 0o644))

	tests := []struct {
		name string
		path string
		want string
	}{
		{"no path", "", "{}"},
		{"missing file", filepath.Join(dir, "nope.json"), "{}"},
		{"malformed", broken, "{}"},
		{"verbatim", valid, `{"languages":{"ja":"日本語"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(LoadI18n(tt.path, logger.Discard())))
		})
	}
}
