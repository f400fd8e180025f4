// Package pagination holds offset pagination requests and the metadata
// returned alongside a page of results.
package pagination

import (
	"math"
	"strconv"
	"strings"
)

// DefaultPerPage is used when a request does not carry a positive page size.
const DefaultPerPage = 6

// Request identifies a single page of a result set. Page is 1-based.
type Request struct {
	Page    int
	PerPage int
}

// NewRequest returns a normalized Request.
func NewRequest(page, perPage int) Request {
	return Request{Page: page, PerPage: perPage}.Normalize()
}

// ParsePage parses a raw "page" query value. Anything that is not a positive
// integer resolves to the first page rather than an error.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Normalize clamps Page to [1, MaxPage(PerPage)] and falls back to
// DefaultPerPage for a non-positive PerPage.
func (r Request) Normalize() Request {
	if r.PerPage < 1 {
		r.PerPage = DefaultPerPage
	}
	if r.Page < 1 {
		r.Page = 1
	}
	if maxPage := MaxPage(r.PerPage); r.Page > maxPage {
		r.Page = maxPage
	}
	return r
}

// MaxPage returns the highest page number whose offset and item positions
// fit in an int for the given page size.
func MaxPage(perPage int) int {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return math.MaxInt / perPage
}

// Offset returns the number of rows to skip.
func (r Request) Offset() int {
	r = r.Normalize()
	return (r.Page - 1) * r.PerPage
}

// Limit returns the maximum number of rows on the page.
func (r Request) Limit() int {
	return r.Normalize().PerPage
}

// Meta describes where a page sits in the full result set.
//
// From and To are 1-based positions of the first and last item on the page;
// both are zero when the page is empty.
type Meta struct {
	Total       int
	PerPage     int
	CurrentPage int
	LastPage    int
	From        int
	To          int
}

// NewMeta computes page metadata from the total row count, the request and the
// number of items actually returned on the page.
func NewMeta(total int, req Request, count int) Meta {
	req = req.Normalize()
	m := Meta{
		Total:       total,
		PerPage:     req.PerPage,
		CurrentPage: req.Page,
		LastPage:    LastPage(total, req.PerPage),
	}
	if count > 0 {
		m.From = req.Offset() + 1
		m.To = req.Offset() + count
	}
	return m
}

// LastPage returns the number of the last page, never less than 1.
func LastPage(total, perPage int) int {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	last := (total + perPage - 1) / perPage
	if last < 1 {
		return 1
	}
	return last
}

// HasPrev reports whether a page precedes the current one.
func (m Meta) HasPrev() bool { return m.CurrentPage > 1 }

// HasNext reports whether a page follows the current one.
func (m Meta) HasNext() bool { return m.CurrentPage < m.LastPage }
