package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/boothvault/asset-library/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search library",
		Description: "Full-text search over item names, authors, tags and descriptions in both languages",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// === DTOs ===

// SearchInput contains parameters for searching the library.
type SearchInput struct {
	Query  string `query:"q" required:"true" minLength:"1" maxLength:"200" doc:"Search query"`
	Adult  string `query:"adult" enum:"true,false" doc:"Filter by adult flag"`
	Avatar string `query:"avatar" enum:"true,false" doc:"Filter by avatar flag"`
	Limit  int    `query:"limit" minimum:"0" maximum:"100" doc:"Max results (default 20)"`
	Offset int    `query:"offset" minimum:"0" doc:"Pagination offset (default 0)"`
}

// SearchHitResult contains a single search result.
type SearchHitResult struct {
	ID           string            `json:"id" doc:"Item ID"`
	Score        float64           `json:"score" doc:"Search relevance score"`
	Name         string            `json:"name" doc:"Display name"`
	NameOriginal string            `json:"nameOriginal,omitempty" doc:"Name as published"`
	Author       string            `json:"author,omitempty" doc:"Author name"`
	IsAdult      bool              `json:"isAdult" doc:"Adult content flag"`
	IsAvatar     bool              `json:"isAvatar" doc:"Avatar flag"`
	Highlights   map[string]string `json:"highlights,omitempty" doc:"Highlighted matches"`
}

// SearchResponse contains search results.
type SearchResponse struct {
	Query  string            `json:"query" doc:"Original search query"`
	Total  uint64            `json:"total" doc:"Total matches"`
	TookMs int64             `json:"tookMs" doc:"Search duration in milliseconds"`
	Hits   []SearchHitResult `json:"hits" doc:"Search results"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if s.index == nil {
		return nil, huma.Error404NotFound("search is disabled")
	}

	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.Adult = parseBoolFilter(input.Adult)
	params.Avatar = parseBoolFilter(input.Avatar)
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	params.Offset = input.Offset

	result, err := s.index.Search(ctx, params)
	if err != nil {
		s.logger.Error("search failed", "error", err, "query", input.Query)
		return nil, err
	}

	s.logger.Debug("search completed",
		"query", input.Query,
		"total", result.Total,
		"hits", len(result.Hits),
		"took_ms", result.TookMs,
	)

	resp := SearchResponse{
		Query:  input.Query,
		Total:  result.Total,
		TookMs: result.TookMs,
		Hits:   make([]SearchHitResult, 0, len(result.Hits)),
	}
	for _, hit := range result.Hits {
		resp.Hits = append(resp.Hits, SearchHitResult{
			ID:           hit.ID,
			Score:        hit.Score,
			Name:         hit.Name,
			NameOriginal: hit.NameOriginal,
			Author:       hit.Author,
			IsAdult:      hit.IsAdult,
			IsAvatar:     hit.IsAvatar,
			Highlights:   hit.Highlights,
		})
	}

	return &SearchOutput{Body: resp}, nil
}

// parseBoolFilter maps "" to no filter.
func parseBoolFilter(v string) *bool {
	switch v {
	case "true":
		b := true
		return &b
	case "false":
		b := false
		return &b
	}
	return nil
}
