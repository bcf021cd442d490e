package shared

import "math"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page describes a requested window of a listing.
type Page struct {
	Page     int
	PageSize int
}

// Normalize applies defaults and bounds.
func (p Page) Normalize() Page {
	if p.PageSize <= 0 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	return p
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.PageSize
}

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total,omitempty"`
	TotalPages int  `json:"total_pages,omitempty"`
	HasNext    bool `json:"has_next"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = defaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages, HasNext: page < totalPages}
}
