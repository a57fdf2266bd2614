package models

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest normalises 1-based page and limit values.
type PageRequest struct {
	Page  int
	Limit int
}

func (r PageRequest) Normalise() PageRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = DefaultPageSize
	}
	if r.Limit > MaxPageSize {
		r.Limit = MaxPageSize
	}
	return r
}

func (r PageRequest) Offset() int {
	r = r.Normalise()
	return (r.Page - 1) * r.Limit
}

// NewPage wraps items fetched with r into a page of total rows.
func NewPage[T any](items []T, r PageRequest, total int) Page[T] {
	r = r.Normalise()
	pages := (total + r.Limit - 1) / r.Limit
	return Page[T]{
		Data: items,
		Pagination: Pagination{
			Page:       r.Page,
			Limit:      r.Limit,
			Total:      total,
			TotalPages: pages,
			HasNext:    r.Page < pages,
			HasPrev:    r.Page > 1,
		},
	}
}
