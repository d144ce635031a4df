package shared

import (
	"math"
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// PageParams reads limit/offset query parameters with sane bounds.
func PageParams(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// NewPagination computes pagination metadata.
func NewPagination(limit, offset, total int) Pagination {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return Pagination{Limit: limit, Offset: offset, Total: total, TotalPages: totalPages}
}
