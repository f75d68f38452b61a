// Package pagination computes page offsets and paging metadata for the
// post listing. The same Page value feeds the server-rendered index and the
// incremental JSON endpoint.
package pagination

import (
	"math"
	"strconv"
	"strings"
)

// DefaultPerPage is the listing page size when none is configured.
const DefaultPerPage = 6

// Offset returns the number of documents to skip for a 1-based page. A page
// whose offset does not fit in an int saturates at math.MaxInt, which is past
// the end of any collection.
func Offset(page, perPage int) int {
	if page < 1 || perPage < 1 {
		return 0
	}
	if page-1 > math.MaxInt/perPage {
		return math.MaxInt
	}
	return (page - 1) * perPage
}

// TotalPages returns ceil(total / perPage). No documents means no pages.
func TotalPages(total int64, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// ParsePage reads a raw page parameter. Missing or non-numeric input
// yields 1 and values below 1 are clamped to 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Request is the resolved page request, before the total is known.
type Request struct {
	Page    int
	PerPage int
}

// NewRequest normalises page and perPage.
func NewRequest(page, perPage int) Request {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return Request{Page: page, PerPage: perPage}
}

// Skip is the offset for the request.
func (r Request) Skip() int {
	return Offset(r.Page, r.PerPage)
}

// Limit is the page size for the request.
func (r Request) Limit() int {
	return r.PerPage
}

// Page is the paging metadata for one listing response.
type Page struct {
	Number     int   `json:"page"`
	PerPage    int   `json:"perPage"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasPrev    bool  `json:"hasPrev"`
	HasNext    bool  `json:"hasMore"`
	PrevPage   int   `json:"-"`
	NextPage   int   `json:"-"`
}

// Link is one entry of the numbered page navigation.
type Link struct {
	Num     int
	Current bool
}

// Resolve turns a request and the matching document count into paging metadata.
func (r Request) Resolve(total int64) Page {
	r = NewRequest(r.Page, r.PerPage)
	p := Page{
		Number:     r.Page,
		PerPage:    r.PerPage,
		Total:      total,
		TotalPages: TotalPages(total, r.PerPage),
	}
	p.HasPrev = p.Number > 1
	p.HasNext = p.Number < p.TotalPages
	if p.HasPrev {
		p.PrevPage = p.Number - 1
	}
	if p.HasNext {
		p.NextPage = p.Number + 1
	}
	return p
}

// Skip is the offset that produced this page.
func (p Page) Skip() int {
	return Offset(p.Number, p.PerPage)
}

// Links lists every page number, flagging the current one.
func (p Page) Links() []Link {
	links := make([]Link, 0, p.TotalPages)
	for i := 1; i <= p.TotalPages; i++ {
		links = append(links, Link{Num: i, Current: i == p.Number})
	}
	return links
}

// ItemsOnPage returns how many documents the page holds.
func (p Page) ItemsOnPage() int {
	if p.Number > p.TotalPages {
		return 0
	}
	// Number <= TotalPages keeps Skip below Total.
	remaining := p.Total - int64(p.Skip())
	if remaining > int64(p.PerPage) {
		return p.PerPage
	}
	return int(remaining)
}
