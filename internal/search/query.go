package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query string

	// Filters; nil means either.
	Adult  *bool
	Avatar *bool

	Limit  int
	Offset int

	Highlight bool
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:     20,
		Highlight: true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"tookMs"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit represents a single search result.
type SearchHit struct {
	ID           string            `json:"id"`
	Score        float64           `json:"score"`
	Name         string            `json:"name"`
	NameOriginal string            `json:"nameOriginal,omitempty"`
	Author       string            `json:"author,omitempty"`
	IsAdult      bool              `json:"isAdult"`
	IsAvatar     bool              `json:"isAvatar"`
	Highlights   map[string]string `json:"highlights,omitempty"`
}

// Search executes a search query ordered by relevance.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.Limit <= 0 {
		params.Limit = DefaultSearchParams().Limit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	req.SortBy([]string{"-_score", "id"})

	if params.Highlight {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("name")
		req.Highlight.AddField("name_original")
	}

	req.Fields = []string{"name", "name_original", "author", "is_adult", "is_avatar"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(res.Hits)),
	}

	for _, hit := range res.Hits {
		h := SearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}
		if v, ok := hit.Fields["name"].(string); ok {
			h.Name = v
		}
		if v, ok := hit.Fields["name_original"].(string); ok {
			h.NameOriginal = v
		}
		if v, ok := hit.Fields["author"].(string); ok {
			h.Author = v
		}
		if v, ok := hit.Fields["is_adult"].(bool); ok {
			h.IsAdult = v
		}
		if v, ok := hit.Fields["is_avatar"].(bool); ok {
			h.IsAvatar = v
		}

		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, h)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
//
// Names weigh most, then authors and tags, then the description. A fuzzy
// and a prefix query on the translated name catch typos and partial input.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		match := func(field string, boost float64) query.Query {
			mq := bleve.NewMatchQuery(q)
			mq.SetField(field)
			mq.SetBoost(boost)
			return mq
		}

		textQueries := []query.Query{
			match("name", 3.0),
			match("name_original", 3.0),
			match("author", 1.5),
			match("author_original", 1.5),
			match("tags", 1.2),
			match("tags_original", 1.2),
			match("description", 0.5),
		}

		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("name")
		fuzzy.SetBoost(0.8)
		textQueries = append(textQueries, fuzzy)

		if len(q) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(q))
			prefix.SetField("name")
			prefix.SetBoost(0.5)
			textQueries = append(textQueries, prefix)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if params.Adult != nil {
		bq := bleve.NewBoolFieldQuery(*params.Adult)
		bq.SetField("is_adult")
		queries = append(queries, bq)
	}
	if params.Avatar != nil {
		bq := bleve.NewBoolFieldQuery(*params.Avatar)
		bq.SetField("is_avatar")
		queries = append(queries, bq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
