// Package emitter serializes the enriched item records and injects them into
// the static library page.
package emitter

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/boothvault/asset-library/internal/domain"
	domainerrors "github.com/boothvault/asset-library/internal/errors"
	"github.com/boothvault/asset-library/internal/jsonfile"
)

//go:embed templates/*.html
var templates embed.FS

// Marker is the single substitution point in the page template.
const Marker = "/*__LIBRARY_DATA__*/"

// DataFileName is the standalone data script written next to the page.
const DataFileName = "library-data.js"

// DataVersion is bumped when the shape of LIBRARY_DATA changes.
const DataVersion = 1

// Options configures the emitter.
type Options struct {
	OutputDir    string
	FileName     string
	TemplatePath string // Optional override of the embedded template
}

// Database is the object assigned to window.LIBRARY_DATA.
type Database struct {
	Version int            `json:"version"`
	Count   int            `json:"count"`
	Items   []*domain.Item `json:"items"`
}

// Result describes a finished emit.
type Result struct {
	PagePath string
	DataPath string
	Items    int
	Bytes    int
}

// Emitter writes the library page and its data script.
type Emitter struct {
	opts     Options
	template []byte
	logger   *slog.Logger
}

// New loads the template and checks it carries the marker.
func New(opts Options, logger *slog.Logger) (*Emitter, error) {
	tmpl, err := loadTemplate(opts.TemplatePath)
	if err != nil {
		return nil, err
	}
	if !bytes.Contains(tmpl, []byte(Marker)) {
		return nil, domainerrors.Validationf("template has no %s marker", Marker)
	}
	return &Emitter{opts: opts, template: tmpl, logger: logger}, nil
}

func loadTemplate(path string) ([]byte, error) {
	if path == "" {
		return templates.ReadFile("templates/library.html")
	}
	data, err := os.ReadFile(path) //#nosec G304 -- template path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return data, nil
}

// PagePath is where Emit writes the HTML page.
func (e *Emitter) PagePath() string {
	return filepath.Join(e.opts.OutputDir, e.opts.FileName)
}

// DataPath is where Emit writes the standalone data script.
func (e *Emitter) DataPath() string {
	return filepath.Join(e.opts.OutputDir, DataFileName)
}

// LoadI18n reads the language table. The content is passed through verbatim;
// it is only checked to be well-formed JSON. A missing path, missing file or
// malformed file all give {} and the last case is logged.
func LoadI18n(path string, logger *slog.Logger) json.RawMessage {
	empty := json.RawMessage("{}")
	if path == "" {
		return empty
	}
	data, err := os.ReadFile(path) //#nosec G304 -- path comes from configuration
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("cannot read i18n file", "path", path, "error", err)
		}
		return empty
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || !json.Valid(data) {
		logger.Warn("i18n file is not valid JSON, using empty table", "path", path)
		return empty
	}
	return json.RawMessage(data)
}

// Script renders the JavaScript that defines LIBRARY_DATA and LIBRARY_I18N.
// Items are ordered by id (numeric ascending, then lexical) so equal input
// always yields identical bytes.
func Script(items []*domain.Item, i18n json.RawMessage) ([]byte, error) {
	sorted := slices.Clone(items)
	domain.SortItems(sorted)
	for i, it := range sorted {
		if it.RelatedIDs == nil {
			c := it.Clone()
			c.RelatedIDs = []string{}
			sorted[i] = c
		}
	}

	data, err := json.Marshal(Database{Version: DataVersion, Count: len(sorted), Items: sorted})
	if err != nil {
		return nil, fmt.Errorf("encode library data: %w", err)
	}
	if len(i18n) == 0 {
		i18n = json.RawMessage("{}")
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, i18n); err != nil {
		return nil, fmt.Errorf("encode i18n table: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(data) + compact.Len() + 64)
	buf.WriteString("window.LIBRARY_DATA = ")
	buf.Write(data)
	buf.WriteString(";\nwindow.LIBRARY_I18N = ")
	// The script is inlined in the page; a literal "</script>" would end it.
	json.HTMLEscape(&buf, compact.Bytes())
	buf.WriteString(";\n")
	return buf.Bytes(), nil
}

// Emit writes the data script and the page. Both writes are atomic; on
// failure the previous files stay in place.
func (e *Emitter) Emit(items []*domain.Item, i18n json.RawMessage) (*Result, error) {
	script, err := Script(items, i18n)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeWriteFailed, "render library data")
	}

	page := bytes.Replace(e.template, []byte(Marker), script, 1)

	if err := jsonfile.WriteAtomic(e.DataPath(), script, 0o644); err != nil {
		return nil, err
	}
	if err := jsonfile.WriteAtomic(e.PagePath(), page, 0o644); err != nil {
		return nil, err
	}

	e.logger.Info("library emitted",
		"page", e.PagePath(),
		"items", len(items),
		"bytes", len(page),
	)

	return &Result{
		PagePath: e.PagePath(),
		DataPath: e.DataPath(),
		Items:    len(items),
		Bytes:    len(page),
	}, nil
}
