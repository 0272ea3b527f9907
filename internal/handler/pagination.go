package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/repository"
	"github.com/sakif/foodgram/internal/service"
)

// Pagination holds the page-size settings for list endpoints.
type Pagination struct {
	PageSize    int
	MaxPageSize int
}

type pageRequest struct {
	page  int
	limit int
}

func (p pageRequest) options() repository.ListOptions {
	return repository.ListOptions{Limit: p.limit, Offset: (p.page - 1) * p.limit}
}

// parse reads ?page and ?limit. Both are optional; a limit above the
// maximum is clamped rather than rejected.
func (p Pagination) parse(r *http.Request) (pageRequest, error) {
	req := pageRequest{page: 1, limit: p.PageSize}
	q := r.URL.Query()

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return req, apperror.ValidationFailed("page", "must be a positive integer")
		}
		req.page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return req, apperror.ValidationFailed("limit", "must be a positive integer")
		}
		req.limit = min(n, p.MaxPageSize)
	}
	return req, nil
}

// PageResponse is the paginated list envelope.
type PageResponse[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func newPageResponse[T any](r *http.Request, req pageRequest, page *service.Page[T]) PageResponse[T] {
	resp := PageResponse[T]{Count: page.Count, Results: page.Results}
	if resp.Results == nil {
		resp.Results = []T{}
	}
	if req.page*req.limit < page.Count {
		next := pageURL(r, req.page+1)
		resp.Next = &next
	}
	if req.page > 1 {
		prev := pageURL(r, req.page-1)
		resp.Previous = &prev
	}
	return resp
}

// pageURL rebuilds the request URL with a different page number, keeping
// every other query parameter.
func pageURL(r *http.Request, page int) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}

	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page))
	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: q.Encode()}
	return u.String()
}

// recipesLimit reads ?recipes_limit. A missing, malformed or negative
// value means no cap, which the services take as -1.
func recipesLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("recipes_limit"))
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// boolQuery treats "1" and "true" as set. Anything else, including absence,
// is false.
func boolQuery(r *http.Request, name string) bool {
	switch r.URL.Query().Get(name) {
	case "1", "true", "True":
		return true
	}
	return false
}
