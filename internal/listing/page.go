package listing

import (
	"encoding/json"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// boothPage mirrors the subset of the marketplace item JSON we read.
type boothPage struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	IsAdult     bool   `json:"is_adult"`
	URL         string `json:"url"`
	Category    struct {
		ID     int    `json:"id"`
		Name   string `json:"name"`
		Parent struct {
			Name string `json:"name"`
		} `json:"parent"`
	} `json:"category"`
	Images []struct {
		Original string `json:"original"`
		Resized  string `json:"resized"`
	} `json:"images"`
	Shop struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"shop"`
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
	Variations []struct {
		Name string `json:"name"`
	} `json:"variations"`
}

func parsePage(data []byte) (*PartialItem, error) {
	var page boothPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, err
	}

	p := &PartialItem{
		Name:        strings.TrimSpace(page.Name),
		Author:      strings.TrimSpace(page.Shop.Name),
		AuthorURL:   page.Shop.URL,
		URL:         page.URL,
		Description: htmlToMarkdown(strings.TrimSpace(page.Description)),
		Category:    page.Category.Name,
		CategoryID:  page.Category.ID,
		Price:       strings.TrimSpace(page.Price),
		IsAdult:     page.IsAdult,
	}

	for _, img := range page.Images {
		// Prefer the full-size original over the resized preview.
		switch {
		case img.Original != "":
			p.ImageURLs = append(p.ImageURLs, img.Original)
		case img.Resized != "":
			p.ImageURLs = append(p.ImageURLs, img.Resized)
		}
	}
	for _, tag := range page.Tags {
		if name := strings.TrimSpace(tag.Name); name != "" {
			p.Tags = append(p.Tags, name)
		}
	}
	for _, v := range page.Variations {
		if name := strings.TrimSpace(v.Name); name != "" {
			p.Variations = append(p.Variations, name)
		}
	}

	return p, nil
}

// htmlTagPattern detects descriptions that carry markup rather than plain text.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

// htmlToMarkdown converts HTML descriptions to Markdown and leaves plain text alone.
func htmlToMarkdown(s string) string {
	if s == "" || !htmlTagPattern.MatchString(strings.ToLower(s)) {
		return s
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(markdown)
}
