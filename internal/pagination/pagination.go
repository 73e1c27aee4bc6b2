package pagination

import (
	"math"
	"strings"

	"storefront/internal/apperr"
)

// Defaults applied by the HTTP layer when a query parameter is absent.
const (
	DefaultPageNumber = 0
	DefaultPageSize   = 12
	DefaultSortOrder  = "asc"
	MaxPageSize       = 100
)

// Params describes one page request. PageNumber is zero-based.
type Params struct {
	PageNumber int
	PageSize   int
	SortBy     string
	Ascending  bool
}

// SortFields maps public sort field names to storage columns.
type SortFields map[string]string

// NewParams builds Params from raw values, reading sortOrder as "asc" or "desc".
func NewParams(pageNumber, pageSize int, sortBy, sortOrder string) Params {
	return Params{
		PageNumber: pageNumber,
		PageSize:   pageSize,
		SortBy:     sortBy,
		Ascending:  !strings.EqualFold(sortOrder, "desc"),
	}
}

// Resolve validates p against the allow-list and returns the storage column to sort on.
func (p Params) Resolve(allowed SortFields) (string, error) {
	if p.PageNumber < 0 {
		return "", apperr.New(apperr.ErrInvalidPage, "page number must not be negative, got %d", p.PageNumber)
	}
	if p.PageSize <= 0 || p.PageSize > MaxPageSize {
		return "", apperr.New(apperr.ErrInvalidPage, "page size must be between 1 and %d, got %d", MaxPageSize, p.PageSize)
	}
	if p.PageNumber > math.MaxInt/p.PageSize {
		return "", apperr.New(apperr.ErrInvalidPage, "page number %d is out of range", p.PageNumber)
	}
	column, ok := allowed[p.SortBy]
	if !ok {
		return "", apperr.New(apperr.ErrInvalidSortField, "cannot sort by %q", p.SortBy)
	}
	return column, nil
}

// Offset is the number of rows preceding the page.
func (p Params) Offset() int {
	return p.PageNumber * p.PageSize
}

// Page is one page of results plus the totals needed to navigate.
type Page[T any] struct {
	Content       []T   `json:"content"`
	PageNumber    int   `json:"pageNumber"`
	PageSize      int   `json:"pageSize"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	LastPage      bool  `json:"lastPage"`
}

// NewPage wraps content fetched for p out of total matching rows.
func NewPage[T any](content []T, total int64, p Params) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := int(total / int64(p.PageSize))
	if total%int64(p.PageSize) > 0 {
		totalPages++
	}
	return Page[T]{
		Content:       content,
		PageNumber:    p.PageNumber,
		PageSize:      p.PageSize,
		TotalElements: total,
		TotalPages:    totalPages,
		LastPage:      p.PageNumber+1 >= totalPages,
	}
}
