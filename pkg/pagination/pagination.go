package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit    = 20
	MaxLimit        = 100
	DefaultPageSize = 5
)

// Params holds offset pagination parameters extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts pagination parameters from the echo context. ok is
// false when the request asked for neither limit nor offset, in which case
// callers return the whole collection.
func FromContext(c echo.Context) (p Params, ok bool) {
	rawLimit, rawOffset := c.QueryParam("limit"), c.QueryParam("offset")
	if rawLimit == "" && rawOffset == "" {
		return Params{}, false
	}

	limit, _ := strconv.Atoi(rawLimit)
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(rawOffset)
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}, true
}

// Window returns the [start, end) bounds of the page within a collection of
// total items.
func (p Params) Window(total int) (start, end int) {
	start = p.Offset
	if start > total {
		start = total
	}
	end = start + p.Limit
	if end > total {
		end = total
	}
	return start, end
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}

// Pager tracks a 1-based current page over a collection whose size may change
// underneath it. Navigation clamps to [1, PageCount]; a change in size does
// not move the current page.
type Pager struct {
	size    int
	current int
}

func NewPager(pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pager{size: pageSize, current: 1}
}

func (p *Pager) Size() int    { return p.size }
func (p *Pager) Current() int { return p.current }

// PageCount is ceil(total / size).
func (p *Pager) PageCount(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + p.size - 1) / p.size
}

// Next moves forward one page, never past the last page.
func (p *Pager) Next(total int) {
	p.GoTo(p.current+1, total)
}

// Prev moves back one page, never below page 1.
func (p *Pager) Prev(total int) {
	p.GoTo(p.current-1, total)
}

// GoTo jumps to page n clamped to [1, max(PageCount, 1)].
func (p *Pager) GoTo(n, total int) {
	last := p.PageCount(total)
	if last < 1 {
		last = 1
	}
	if n > last {
		n = last
	}
	if n < 1 {
		n = 1
	}
	p.current = n
}

// Window returns the [start, end) slice bounds of the current page. When the
// current page lies past the end of the collection the window is empty.
func (p *Pager) Window(total int) (start, end int) {
	start = (p.current - 1) * p.size
	if start > total {
		start = total
	}
	end = start + p.size
	if end > total {
		end = total
	}
	return start, end
}

// HasPrev reports whether Prev would move.
func (p *Pager) HasPrev() bool {
	return p.current > 1
}

// HasNext reports whether Next would move.
func (p *Pager) HasNext(total int) bool {
	return p.current < p.PageCount(total)
}
