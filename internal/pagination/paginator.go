// Package pagination splits ordered listings into fixed-size, 1-indexed pages.
package pagination

import (
	"strconv"
	"strings"
)

// PostsPerPage is the page size shared by every post listing.
const PostsPerPage = 10

// Page describes one page of a listing. Out-of-range requests are clamped
// into [1, NumPages] instead of failing.
type Page struct {
	Number     int   `json:"number"`
	PerPage    int   `json:"per_page"`
	TotalItems int64 `json:"count"`
	NumPages   int   `json:"num_pages"`
}

// New builds the page for rawPage over total items. A missing or
// unparsable rawPage selects the first page.
func New(total int64, perPage int, rawPage string) Page {
	number, err := strconv.Atoi(strings.TrimSpace(rawPage))
	if err != nil {
		number = 1
	}
	return ForNumber(total, perPage, number)
}

// ForNumber builds the page for an already parsed page number.
func ForNumber(total int64, perPage int, number int) Page {
	if perPage <= 0 {
		perPage = PostsPerPage
	}
	if total < 0 {
		total = 0
	}

	numPages := int((total + int64(perPage) - 1) / int64(perPage))
	if numPages < 1 {
		numPages = 1
	}

	switch {
	case number < 1:
		number = 1
	case number > numPages:
		number = numPages
	}

	return Page{
		Number:     number,
		PerPage:    perPage,
		TotalItems: total,
		NumPages:   numPages,
	}
}

// Offset is the number of items preceding this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Limit is the maximum number of items on this page.
func (p Page) Limit() int {
	return p.PerPage
}

func (p Page) HasNext() bool {
	return p.Number < p.NumPages
}

func (p Page) HasPrevious() bool {
	return p.Number > 1
}

// NextNumber returns the following page number, or 0 on the last page.
func (p Page) NextNumber() int {
	if !p.HasNext() {
		return 0
	}
	return p.Number + 1
}

// PreviousNumber returns the preceding page number, or 0 on the first page.
func (p Page) PreviousNumber() int {
	if !p.HasPrevious() {
		return 0
	}
	return p.Number - 1
}

// Result pairs the items of a page with its metadata.
type Result[T any] struct {
	Items []T
	Page  Page
}

// Slice returns the part of an in-memory, already ordered sequence that
// belongs to page rawPage.
func Slice[T any](items []T, perPage int, rawPage string) Result[T] {
	page := New(int64(len(items)), perPage, rawPage)
	start := page.Offset()
	end := start + page.PerPage
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	return Result[T]{Items: items[start:end], Page: page}
}
