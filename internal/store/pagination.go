package store

// PageParams selects a window of a listing.
type PageParams struct {
	Limit  int // Items per page; defaults to 100, at most 1000
	Offset int
}

// Page is one window of a listing.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// Validate clamps the parameters to sane values.
func (p *PageParams) Validate() {
	if p.Limit <= 0 {
		p.Limit = 100
	}
	if p.Limit > 1000 {
		p.Limit = 1000
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// Paginate cuts the window described by p out of all.
func Paginate[T any](all []T, p PageParams) Page[T] {
	p.Validate()

	start := min(p.Offset, len(all))
	end := min(start+p.Limit, len(all))

	items := make([]T, end-start)
	copy(items, all[start:end])

	return Page[T]{
		Items:   items,
		Total:   len(all),
		Offset:  start,
		HasMore: end < len(all),
	}
}
