// Package relations links avatar listings to the accessories made for them.
//
// The match is a heuristic. An avatar contributes a profile of name fragments
// and shared body-model names, and an accessory matches when its normalized
// title, tags or variations mention one of them. False positives and misses
// are expected; the goal is discoverability.
package relations

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/boothvault/asset-library/internal/domain"
	"github.com/boothvault/asset-library/internal/jsonfile"
	"github.com/boothvault/asset-library/internal/normalize"
	"github.com/boothvault/asset-library/internal/translate"
)

// DefaultStopwords are generic listing words that never identify an avatar.
var DefaultStopwords = []string{
	"3d", "3dmodel", "and", "avatar", "avatars", "body", "booth", "character",
	"compatible", "costume", "edition", "for", "free", "full", "model", "new",
	"original", "outfit", "package", "pc", "quest", "sample", "set", "texture",
	"the", "unity", "ver", "version", "vrc", "vrchat", "with",
}

// DefaultBodyModels are base bodies shared by several avatars. Accessories
// usually name the body rather than every avatar built on it.
var DefaultBodyModels = []string{
	"mamehinata", "まめひなた",
	"rusk", "ラスク",
	"shinano", "しなの",
	"manuka", "マヌカ",
	"karin", "カリン",
	"kikyo", "桔梗",
	"selestia", "セレスティア",
	"moe",
	"lasyusha", "ラシューシャ",
	"chiffon", "シフォン",
	"milltina", "ミルティナ",
	"sio",
	"grus", "グルス",
	"rindo", "竜胆",
	"mizuki", "瑞希",
	"airi", "愛莉",
	"uzuki", "卯月",
	"hakua", "狐雪",
}

// Options holds the tunable thresholds of the resolver.
type Options struct {
	// MinFragmentLen is the minimum rune length of a latin name fragment.
	MinFragmentLen int
	// MinCJKFragmentLen is the minimum rune length of a CJK name fragment.
	MinCJKFragmentLen int
	Stopwords         []string
	BodyModels        []string
}

// DefaultOptions returns the built-in thresholds and lists.
func DefaultOptions() Options {
	return Options{
		MinFragmentLen:    3,
		MinCJKFragmentLen: 2,
		Stopwords:         DefaultStopwords,
		BodyModels:        DefaultBodyModels,
	}
}

// LoadBodyModels reads a JSON array of body-model names. An empty path or a
// missing file yields nil.
func LoadBodyModels(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	models, err := jsonfile.Load[[]string](path)
	if err != nil {
		return nil, fmt.Errorf("load body models: %w", err)
	}
	return models, nil
}

// bracketed matches text inside the quote and bracket pairs sellers use
// around avatar names: 「Aria」, 『Aria』, 【Aria】, [Aria], (Aria), "Aria".
var bracketed = regexp.MustCompile(`[「『【\[(（"“]([^」』】\])）"”]+)[」』】\])）"”]`)

// Profile is what an avatar is recognised by.
type Profile struct {
	ID         string
	Fragments  []string
	BodyModels []string
}

// Resolver matches accessories against avatar profiles. It is immutable
// after construction.
type Resolver struct {
	opts   Options
	stop   map[string]bool
	models []string
}

// New builds a resolver. Zero thresholds fall back to DefaultOptions.
func New(opts Options) *Resolver {
	def := DefaultOptions()
	if opts.MinFragmentLen <= 0 {
		opts.MinFragmentLen = def.MinFragmentLen
	}
	if opts.MinCJKFragmentLen <= 0 {
		opts.MinCJKFragmentLen = def.MinCJKFragmentLen
	}
	if opts.Stopwords == nil {
		opts.Stopwords = def.Stopwords
	}
	if opts.BodyModels == nil {
		opts.BodyModels = def.BodyModels
	}

	r := &Resolver{opts: opts, stop: make(map[string]bool, len(opts.Stopwords))}
	for _, w := range opts.Stopwords {
		if n := normalize.Text(w); n != "" {
			r.stop[n] = true
		}
	}
	for _, m := range opts.BodyModels {
		if n := normalize.Text(m); n != "" && !slices.Contains(r.models, n) {
			r.models = append(r.models, n)
		}
	}
	return r
}

// Profile builds the search profile of an avatar.
func (r *Resolver) Profile(item *domain.Item) Profile {
	p := Profile{ID: item.ID}
	seen := make(map[string]bool)
	add := func(f string) {
		if f == "" || seen[f] || r.stop[f] || !r.longEnough(f) {
			return
		}
		seen[f] = true
		p.Fragments = append(p.Fragments, f)
	}

	for _, tok := range normalize.Tokens(item.NameOriginal) {
		if normalize.IsAlnumASCII(tok) {
			add(tok)
		}
	}

	// Bracketed names in either title are taken whole. A translated title
	// without brackets contributes its plain tokens instead.
	for _, m := range bracketed.FindAllStringSubmatch(item.NameOriginal, -1) {
		add(normalize.Text(m[1]))
	}
	if item.NameTranslated != "" {
		matches := bracketed.FindAllStringSubmatch(item.NameTranslated, -1)
		for _, m := range matches {
			add(normalize.Text(m[1]))
		}
		if len(matches) == 0 {
			for _, tok := range normalize.Tokens(item.NameTranslated) {
				if normalize.IsAlnumASCII(tok) {
					add(tok)
				}
			}
		}
	}

	blob := normalize.Text(strings.Join(slices.Concat(
		[]string{item.NameOriginal, item.NameTranslated}, item.Tags, item.TagsTranslated,
	), " "))
	for _, m := range r.models {
		if mentions(blob, m) {
			p.BodyModels = append(p.BodyModels, m)
		}
	}

	return p
}

func (r *Resolver) longEnough(f string) bool {
	n := utf8.RuneCountInString(f)
	if translate.ContainsCJK(f) {
		return n >= r.opts.MinCJKFragmentLen
	}
	return n >= r.opts.MinFragmentLen
}

// blob is the comparison text of an accessory.
func blob(item *domain.Item) string {
	return normalize.Text(strings.Join(slices.Concat(
		[]string{item.NameOriginal, item.NameTranslated},
		item.Tags, item.TagsTranslated, item.Variations,
	), " "))
}

// Matches reports whether an accessory blob matches profile p.
func (r *Resolver) Matches(p Profile, accessoryBlob string) bool {
	for _, m := range p.BodyModels {
		if mentions(accessoryBlob, m) {
			return true
		}
	}
	for _, f := range p.Fragments {
		if mentions(accessoryBlob, f) {
			return true
		}
	}
	return false
}

// mentions matches latin terms on word boundaries ("sio" must not hit
// "version") and CJK terms as substrings, since CJK text has no spaces.
func mentions(blob, term string) bool {
	if translate.ContainsCJK(term) {
		return strings.Contains(blob, term)
	}
	return normalize.ContainsWord(blob, term)
}

// Resolve returns the symmetric relation over items: each related id list is
// sorted with domain.CompareIDs. Items without relations are absent.
// Avatars are only ever related to non-avatars.
func (r *Resolver) Resolve(items []*domain.Item) map[string][]string {
	var profiles []Profile
	var assets []*domain.Item
	for _, it := range items {
		if it.IsAvatar {
			profiles = append(profiles, r.Profile(it))
		} else {
			assets = append(assets, it)
		}
	}

	links := make(map[string]map[string]bool)
	link := func(a, b string) {
		if links[a] == nil {
			links[a] = make(map[string]bool)
		}
		links[a][b] = true
	}

	for _, asset := range assets {
		b := blob(asset)
		if b == "" {
			continue
		}
		for _, p := range profiles {
			if p.ID == asset.ID {
				continue
			}
			if r.Matches(p, b) {
				link(p.ID, asset.ID)
				link(asset.ID, p.ID)
			}
		}
	}

	out := make(map[string][]string, len(links))
	for id, set := range links {
		ids := make([]string, 0, len(set))
		for other := range set {
			ids = append(ids, other)
		}
		slices.SortFunc(ids, domain.CompareIDs)
		out[id] = ids
	}
	return out
}

// Apply resolves items and writes RelatedIDs on each of them. Items without
// relations get an empty, non-nil slice.
func (r *Resolver) Apply(items []*domain.Item) map[string][]string {
	rel := r.Resolve(items)
	for _, it := range items {
		if ids, ok := rel[it.ID]; ok {
			it.RelatedIDs = ids
		} else {
			it.RelatedIDs = []string{}
		}
	}
	return rel
}
