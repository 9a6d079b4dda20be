// Package search keeps a Bleve full-text index over emitted item records so
// the serve command can answer queries in either language.
package search

import (
	"github.com/boothvault/asset-library/internal/domain"
)

// ItemDocument is the flattened form of an item stored in the index.
//
// Original and translated text are kept in separate fields so each can use
// the analyzer that suits its script.
type ItemDocument struct {
	ID string `json:"id"`

	Name           string   `json:"name"`
	NameOriginal   string   `json:"name_original"`
	Author         string   `json:"author"`
	AuthorOriginal string   `json:"author_original"`
	Tags           []string `json:"tags,omitempty"`
	TagsOriginal   []string `json:"tags_original,omitempty"`
	Description    string   `json:"description,omitempty"`
	Category       string   `json:"category,omitempty"`

	IsAdult  bool    `json:"is_adult"`
	IsAvatar bool    `json:"is_avatar"`
	Price    float64 `json:"price"`
}

// NewItemDocument builds the index document for item.
func NewItemDocument(item *domain.Item) *ItemDocument {
	doc := &ItemDocument{
		ID:             item.ID,
		Name:           item.DisplayName(),
		NameOriginal:   item.NameOriginal,
		Author:         item.AuthorTranslated,
		AuthorOriginal: item.AuthorOriginal,
		Tags:           item.TagsTranslated,
		TagsOriginal:   item.Tags,
		Description:    item.DescriptionTranslated,
		Category:       item.Category,
		IsAdult:        item.IsAdult,
		IsAvatar:       item.IsAvatar,
		Price:          item.PriceValue,
	}
	if doc.Author == "" {
		doc.Author = item.AuthorOriginal
	}
	if doc.Description == "" {
		doc.Description = item.Description
	}
	return doc
}

// ToMap converts the document to a map keyed by the mapped field names.
func (d *ItemDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":              d.ID,
		"name":            d.Name,
		"name_original":   d.NameOriginal,
		"author":          d.Author,
		"author_original": d.AuthorOriginal,
		"is_adult":        d.IsAdult,
		"is_avatar":       d.IsAvatar,
		"price":           d.Price,
	}

	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	if len(d.TagsOriginal) > 0 {
		m["tags_original"] = d.TagsOriginal
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Category != "" {
		m["category"] = d.Category
	}

	return m
}
