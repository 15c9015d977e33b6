package helpers

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"waitlistlottery/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var errBadPagination = errors.New("must be a positive integer")

// PageFromQuery reads page and page_size. Missing values take the defaults and
// page_size is capped at 100; anything else that is not a positive integer is an error.
func PageFromQuery(q url.Values) (domain.PageRequest, error) {
	req := domain.PageRequest{Page: 1, Size: defaultPageSize}
	fields := []struct {
		key string
		dst *int
	}{
		{"page", &req.Page},
		{"page_size", &req.Size},
	}
	for _, f := range fields {
		s := q.Get(f.key)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return domain.PageRequest{}, fmt.Errorf("%s %w", f.key, errBadPagination)
		}
		*f.dst = n
	}
	req.Size = min(req.Size, maxPageSize)
	return req, nil
}

// PaginationMeta describes the page returned by a list endpoint.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Paginate cuts items down to the requested page.
func Paginate[T any](items []T, p domain.PageRequest) ([]T, PaginationMeta) {
	start, end := p.Window(len(items))
	return items[start:end], PaginationMeta{
		Page:       p.Page,
		PageSize:   p.Size,
		Total:      len(items),
		TotalPages: p.PageCount(len(items)),
	}
}
