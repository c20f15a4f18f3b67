package notes

import "example.com/notes-api/internal/mathx"

const (
	DefaultPage     = 1
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// PageRequest selects a 1-based page of a listing.
type PageRequest struct {
	Page     int
	PageSize int
}

func DefaultPageRequest() PageRequest {
	return PageRequest{Page: DefaultPage, PageSize: DefaultPageSize}
}

func (p PageRequest) Validate() error {
	if p.Page < 1 {
		return invalid("page", "must be at least 1")
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		return invalid("page_size", "must be between 1 and %d", MaxPageSize)
	}
	return nil
}

func (p PageRequest) Offset() int {
	return mathx.Offset(p.Page, p.PageSize)
}

// Page is one slice of an ordered listing plus the metadata needed to walk it.
type Page struct {
	Items      []Note `json:"items"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalPages int    `json:"total_pages"`
}

// NewPage wraps items already cut to req with the listing's total count.
func NewPage(items []Note, total int, req PageRequest) Page {
	if items == nil {
		items = []Note{}
	}
	return Page{
		Items:      items,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: mathx.CeilDiv(total, req.PageSize),
	}
}

// Paginate cuts the requested page out of ordered. A page past the end
// yields no items.
func Paginate(ordered []Note, req PageRequest) Page {
	lo, hi := mathx.Window(len(ordered), req.Page, req.PageSize)
	items := make([]Note, hi-lo)
	copy(items, ordered[lo:hi])
	return NewPage(items, len(ordered), req)
}
