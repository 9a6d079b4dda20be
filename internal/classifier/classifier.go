// Package classifier flags adult listings by keyword.
package classifier

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/boothvault/asset-library/internal/jsonfile"
	"github.com/boothvault/asset-library/internal/normalize"
)

// DefaultKeywords is the built-in keyword set. ASCII entries match on word
// boundaries, everything else matches as a substring.
//
// Bare "エロ" is left out on purpose: it is a substring of "イエロー" (yellow).
var DefaultKeywords = []string{
	"r18", "r-18", "r18g", "nsfw", "nude", "nudity", "naked", "hentai", "lewd",
	"adult only", "adults only", "18+", "xxx", "porn",
	"成人向け", "成人向", "アダルト", "18禁", "ヌード", "えっち", "エッチ", "エロ衣装", "エロい",
}

// Classifier matches text against a fixed keyword set. It is immutable after
// construction and safe for concurrent use.
type Classifier struct {
	latin    *regexp.Regexp
	cjk      []string
	keywords []string
}

// New builds a classifier from DefaultKeywords plus extra.
func New(extra ...string) *Classifier {
	seen := make(map[string]bool)
	var latin, cjk, all []string

	for _, kw := range slices.Concat(DefaultKeywords, extra) {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		all = append(all, kw)
		if isASCII(kw) {
			latin = append(latin, regexp.QuoteMeta(kw))
		} else {
			cjk = append(cjk, kw)
		}
	}

	c := &Classifier{cjk: cjk, keywords: all}
	if len(latin) > 0 {
		slices.SortFunc(latin, func(a, b string) int { return len(b) - len(a) })
		c.latin = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(?:` + strings.Join(latin, "|") + `)(?:$|[^a-z0-9])`)
	}
	return c
}

// LoadKeywords reads an optional JSON array of extra keywords. An empty path yields nil.
func LoadKeywords(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	kws, err := jsonfile.Load[[]string](path)
	if err != nil {
		return nil, fmt.Errorf("load keywords: %w", err)
	}
	return kws, nil
}

// IsAdult reports whether any keyword occurs in the title, tags or description.
func (c *Classifier) IsAdult(title string, tags []string, description string) bool {
	parts := make([]string, 0, len(tags)+2)
	parts = append(parts, title)
	parts = append(parts, tags...)
	parts = append(parts, description)

	// Newlines keep a keyword from spanning two fields.
	text := normalizeWidth(strings.Join(parts, "\n"))
	if c.latin != nil && c.latin.MatchString(text) {
		return true
	}

	folded := strings.ToLower(text)
	for _, kw := range c.cjk {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

// Keywords returns the effective keyword list.
func (c *Classifier) Keywords() []string {
	return slices.Clone(c.keywords)
}

func normalizeWidth(s string) string {
	if isASCII(s) {
		return s
	}
	return normalize.Width(s)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
