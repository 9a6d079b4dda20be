// Package listing reads the metadata a marketplace downloader leaves in each
// item folder and normalizes it into a PartialItem.
//
// A folder carries exactly one of three metadata shapes, checked in this order:
//
//	_BoothPage.json          structured page export (PageSource)
//	_BoothInnerHtmlList.json legacy list of scraped HTML cards (LegacyListSource)
//	_Manual.json             hand-written descriptor (ManualSource)
package listing

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	domainerrors "github.com/boothvault/asset-library/internal/errors"
)

// Metadata file names.
const (
	PageFileName   = "_BoothPage.json"
	LegacyFileName = "_BoothInnerHtmlList.json"
	ManualFileName = "_Manual.json"
)

// Source is the metadata file selected for one folder. The concrete types are
// PageSource, LegacyListSource and ManualSource; no other implementations exist.
type Source interface {
	Path() string
	source()
}

// PageSource is a structured page JSON export.
type PageSource struct{ path string }

// LegacyListSource is a JSON array of scraped HTML cards.
type LegacyListSource struct{ path string }

// ManualSource is a hand-written descriptor using PartialItem field names.
type ManualSource struct{ path string }

// Path returns the metadata file path.
func (s PageSource) Path() string { return s.path }

// Path returns the metadata file path.
func (s LegacyListSource) Path() string { return s.path }

// Path returns the metadata file path.
func (s ManualSource) Path() string { return s.path }

func (PageSource) source()       {}
func (LegacyListSource) source() {}
func (ManualSource) source()     {}

// Detect picks the metadata file for dir by presence, in precedence order.
// It returns an error matching errors.ErrMetadataMissing when none exists.
func Detect(dir string) (Source, error) {
	candidates := []struct {
		name string
		make func(string) Source
	}{
		{PageFileName, func(p string) Source { return PageSource{path: p} }},
		{LegacyFileName, func(p string) Source { return LegacyListSource{path: p} }},
		{ManualFileName, func(p string) Source { return ManualSource{path: p} }},
	}

	for _, c := range candidates {
		p := filepath.Join(dir, c.name)
		info, err := os.Stat(p)
		if err == nil && info.Mode().IsRegular() {
			return c.make(p), nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, domainerrors.MetadataInvalid(err, p)
		}
	}

	return nil, domainerrors.MetadataMissingf("no metadata file in %s", dir)
}

// Parse reads src and normalizes it. Errors match errors.ErrMetadataInvalid.
func Parse(src Source) (*PartialItem, error) {
	data, err := os.ReadFile(src.Path()) //#nosec G304 -- path chosen by Detect inside the library root
	if err != nil {
		return nil, domainerrors.MetadataInvalid(err, src.Path())
	}

	var p *PartialItem
	switch src.(type) {
	case PageSource:
		p, err = parsePage(data)
	case LegacyListSource:
		p, err = ParseLegacyListing(data)
	case ManualSource:
		p, err = parseManual(data)
	default:
		err = domainerrors.Internalf("unknown metadata source %T", src)
	}
	if err != nil {
		return nil, domainerrors.MetadataInvalid(err, src.Path())
	}
	if p.Name == "" {
		return nil, domainerrors.MetadataInvalid(errors.New("listing has no name"), src.Path())
	}
	return p, nil
}
