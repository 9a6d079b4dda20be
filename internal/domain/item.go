// Package domain contains the item model shared by every stage of the library build.
package domain

import (
	"cmp"
	"slices"
	"strconv"
)

// Item is one downloaded marketplace listing as it appears in the emitted database.
type Item struct {
	ID                    string       `json:"id"`
	NameOriginal          string       `json:"nameOriginal"`
	NameTranslated        string       `json:"nameTranslated,omitempty"`
	AuthorOriginal        string       `json:"authorOriginal"`
	AuthorTranslated      string       `json:"authorTranslated,omitempty"`
	Tags                  []string     `json:"tags"`
	TagsTranslated        []string     `json:"tagsTranslated,omitempty"`
	Variations            []string     `json:"variations,omitempty"`
	Description           string       `json:"description,omitempty"`
	DescriptionTranslated string       `json:"descriptionTranslated,omitempty"`
	Category              string       `json:"category,omitempty"`
	URL                   string       `json:"url,omitempty"`
	IsAdult               bool         `json:"isAdult"`
	IsAvatar              bool         `json:"isAvatar"`
	Images                []string     `json:"images"`
	Thumbnail             string       `json:"thumbnail,omitempty"`
	BlurHash              string       `json:"blurHash,omitempty"`
	BinaryFiles           []BinaryFile `json:"binaryFiles"`
	PriceValue            float64      `json:"priceValue"`
	PriceCurrency         string       `json:"priceCurrency,omitempty"`
	PriceText             string       `json:"priceText,omitempty"`
	RelatedIDs            []string     `json:"relatedIds"`
}

// BinaryFile is one downloadable payload file of an item.
type BinaryFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// DisplayName prefers the translated name.
func (i *Item) DisplayName() string {
	if i.NameTranslated != "" {
		return i.NameTranslated
	}
	return i.NameOriginal
}

// PrimaryImage returns the first image reference, or "".
func (i *Item) PrimaryImage() string {
	if len(i.Images) == 0 {
		return ""
	}
	return i.Images[0]
}

// Clone returns a deep copy so callers can derive a new record without
// touching one that is shared.
func (i *Item) Clone() *Item {
	c := *i
	c.Tags = slices.Clone(i.Tags)
	c.TagsTranslated = slices.Clone(i.TagsTranslated)
	c.Variations = slices.Clone(i.Variations)
	c.Images = slices.Clone(i.Images)
	c.BinaryFiles = slices.Clone(i.BinaryFiles)
	c.RelatedIDs = slices.Clone(i.RelatedIDs)
	return &c
}

// CompareIDs orders numeric ids ascending by value, then any non-numeric ids lexically.
func CompareIDs(a, b string) int {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		if c := cmp.Compare(na, nb); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}

// SortItems sorts items in place by CompareIDs.
func SortItems(items []*Item) {
	slices.SortFunc(items, func(a, b *Item) int { return CompareIDs(a.ID, b.ID) })
}
