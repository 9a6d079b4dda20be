package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/boothvault/asset-library/internal/domain"
	"github.com/boothvault/asset-library/internal/store"
)

func (s *Server) registerItemRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listItems",
		Method:      http.MethodGet,
		Path:        "/api/v1/items",
		Summary:     "List items",
		Description: "Returns a page of item records ordered by id",
		Tags:        []string{"Items"},
	}, s.handleListItems)

	huma.Register(s.api, huma.Operation{
		OperationID: "getItem",
		Method:      http.MethodGet,
		Path:        "/api/v1/items/{id}",
		Summary:     "Get item",
		Description: "Returns a single item record",
		Tags:        []string{"Items"},
	}, s.handleGetItem)
}

// ListItemsInput contains filter and pagination parameters.
type ListItemsInput struct {
	Adult  string `query:"adult" enum:"true,false" doc:"Filter by adult flag"`
	Avatar string `query:"avatar" enum:"true,false" doc:"Filter by avatar flag"`
	Limit  int    `query:"limit" minimum:"0" maximum:"1000" doc:"Items per page (default 100)"`
	Offset int    `query:"offset" minimum:"0" doc:"Pagination offset (default 0)"`
}

// ListItemsOutput wraps a page of items for Huma.
type ListItemsOutput struct {
	Body store.Page[*domain.Item]
}

// GetItemInput identifies one item.
type GetItemInput struct {
	ID string `path:"id" minLength:"1" maxLength:"255" doc:"Item ID (source folder name)"`
}

// GetItemOutput wraps a single item for Huma.
type GetItemOutput struct {
	Body *domain.Item
}

func (s *Server) handleListItems(ctx context.Context, input *ListItemsInput) (*ListItemsOutput, error) {
	all, err := s.store.Items.All(ctx)
	if err != nil {
		s.logger.Error("failed to list items", "error", err)
		return nil, err
	}

	rel, err := s.store.Relations(ctx)
	if err != nil {
		s.logger.Error("failed to load relations", "error", err)
		return nil, err
	}

	adult := parseBoolFilter(input.Adult)
	avatar := parseBoolFilter(input.Avatar)

	filtered := make([]*domain.Item, 0, len(all))
	for _, it := range all {
		if adult != nil && it.IsAdult != *adult {
			continue
		}
		if avatar != nil && it.IsAvatar != *avatar {
			continue
		}
		filtered = append(filtered, withRelated(it, rel))
	}
	domain.SortItems(filtered)

	page := store.Paginate(filtered, store.PageParams{Limit: input.Limit, Offset: input.Offset})
	return &ListItemsOutput{Body: page}, nil
}

func (s *Server) handleGetItem(ctx context.Context, input *GetItemInput) (*GetItemOutput, error) {
	item, err := s.store.Items.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	rel, err := s.store.Relations(ctx)
	if err != nil {
		s.logger.Error("failed to load relations", "error", err, "id", input.ID)
		return nil, err
	}
	return &GetItemOutput{Body: withRelated(item, rel)}, nil
}

// withRelated fills the related ids of a stored record from the relation map
// of the last build. Unrelated items get an empty array.
func withRelated(it *domain.Item, rel map[string][]string) *domain.Item {
	if ids, ok := rel[it.ID]; ok {
		it.RelatedIDs = ids
	} else {
		it.RelatedIDs = []string{}
	}
	return it
}
