package listing

import (
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/boothvault/asset-library/internal/domain"
)

// BinaryDirName is the payload subfolder inside every item folder.
const BinaryDirName = "Binary"

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// IsImageFile reports whether name has a supported image extension.
func IsImageFile(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// Assemble builds the base item record for the folder dir from its parsed
// metadata. Local paths are written relative to outputDir so the emitted page
// can be opened straight from disk.
func Assemble(id, dir, outputDir string, p *PartialItem) (*domain.Item, error) {
	item := &domain.Item{
		ID:             id,
		NameOriginal:   p.Name,
		AuthorOriginal: p.Author,
		Tags:           nonNil(p.Tags),
		Variations:     p.Variations,
		Description:    p.Description,
		Category:       p.Category,
		URL:            p.URL,
		IsAdult:        p.IsAdult,
		IsAvatar:       p.IsAvatar(),
		PriceText:      p.Price,
		RelatedIDs:     []string{},
	}
	item.PriceValue, item.PriceCurrency = ParsePrice(p.Price)

	local, err := localImages(dir)
	if err != nil {
		return nil, err
	}
	item.Images = resolveImages(p.ImageURLs, local, outputDir)

	item.BinaryFiles, err = binaryFiles(filepath.Join(dir, BinaryDirName), outputDir)
	if err != nil {
		return nil, err
	}

	return item, nil
}

// localImages lists loose image files directly inside dir, sorted by name.
func localImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !IsImageFile(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	slices.Sort(out)
	return out, nil
}

// resolveImages maps every remote image to a downloaded copy with the same
// base name when one exists. Without remote images, all local images are used.
func resolveImages(remote, local []string, outputDir string) []string {
	byBase := make(map[string]string, len(local))
	for _, l := range local {
		byBase[strings.ToLower(filepath.Base(l))] = l
	}

	if len(remote) == 0 {
		out := make([]string, 0, len(local))
		for _, l := range local {
			out = append(out, RelPath(outputDir, l))
		}
		return out
	}

	out := make([]string, 0, len(remote))
	for _, r := range remote {
		if l, ok := byBase[strings.ToLower(remoteBase(r))]; ok {
			out = append(out, RelPath(outputDir, l))
			continue
		}
		out = append(out, r)
	}
	return out
}

func remoteBase(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return path.Base(ref)
	}
	return path.Base(u.Path)
}

func binaryFiles(root, outputDir string) ([]domain.BinaryFile, error) {
	files := []domain.BinaryFile{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == root {
				return filepath.SkipDir
			}
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && p != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, domain.BinaryFile{
			Name: d.Name(),
			Path: RelPath(outputDir, p),
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// RelPath returns target relative to base with forward slashes, or the
// absolute slash path when no relative form exists.
func RelPath(base, target string) string {
	if rel, err := filepath.Rel(base, target); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(target)
}

// IsRemote reports whether ref is an http(s) URL rather than a local path.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// LocalPath resolves an image reference written by Assemble back to a file
// path. It returns "" for remote references.
func LocalPath(outputDir, ref string) string {
	if ref == "" || IsRemote(ref) {
		return ""
	}
	p := filepath.FromSlash(ref)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(outputDir, p)
}
