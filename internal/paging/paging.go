// Package paging holds a fully loaded collection and serves it a page at a
// time, with aggregate sums over the whole collection.
//
// A Collection is not safe for concurrent use; owners serialise access.
package paging

// DefaultPageSize is used when a Collection is created with a non-positive
// page size.
const DefaultPageSize = 8

// SumFunc extracts the two summed quantities from an item.
type SumFunc[T any] func(T) (a, b int)

// Aggregates are the two sums computed over the full collection.
type Aggregates struct {
	SumA int `json:"sum_a"`
	SumB int `json:"sum_b"`
}

// Meta is the page state in the shape list endpoints return.
type Meta struct {
	CurrentPage int  `json:"current_page"`
	PerPage     int  `json:"per_page"`
	TotalPages  int  `json:"total_pages"`
	TotalCount  int  `json:"total_count"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
}

// Collection is a client-side paged view over a full item list.
type Collection[T any] struct {
	items    []T
	pageSize int
	page     int
	sum      SumFunc[T]
	agg      Aggregates
}

// New creates an empty collection. sum may be nil when no aggregates are
// needed.
func New[T any](pageSize int, sum SumFunc[T]) *Collection[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Collection[T]{pageSize: pageSize, page: 1, sum: sum}
}

// Replace swaps in a new full collection, resets to page 1 and recomputes
// the aggregates.
func (c *Collection[T]) Replace(items []T) {
	c.setItems(items)
	c.page = 1
}

// Reload swaps in a new full collection from a background refresh. The
// current page is kept when it still exists and clamped otherwise.
func (c *Collection[T]) Reload(items []T) {
	c.setItems(items)
	c.SetPage(c.page)
}

func (c *Collection[T]) setItems(items []T) {
	c.items = append([]T(nil), items...)
	c.agg = Aggregates{}
	if c.sum == nil {
		return
	}
	for _, it := range c.items {
		a, b := c.sum(it)
		c.agg.SumA += a
		c.agg.SumB += b
	}
}

// SetPage moves to page p, clamped into [1, max(TotalPages, 1)].
// Aggregates are untouched.
func (c *Collection[T]) SetPage(p int) {
	last := c.TotalPages()
	if last < 1 {
		last = 1
	}
	switch {
	case p < 1:
		p = 1
	case p > last:
		p = last
	}
	c.page = p
}

// Next moves forward one page if there is one.
func (c *Collection[T]) Next() { c.SetPage(c.page + 1) }

// Prev moves back one page if there is one.
func (c *Collection[T]) Prev() { c.SetPage(c.page - 1) }

// Visible returns a copy of the items on the current page.
func (c *Collection[T]) Visible() []T {
	start := (c.page - 1) * c.pageSize
	if start >= len(c.items) {
		return []T{}
	}
	end := start + c.pageSize
	if end > len(c.items) {
		end = len(c.items)
	}
	return append([]T{}, c.items[start:end]...)
}

// Page returns the current page, 1-indexed.
func (c *Collection[T]) Page() int { return c.page }

// PageSize returns the fixed page size.
func (c *Collection[T]) PageSize() int { return c.pageSize }

// TotalPages returns the number of pages, 0 for an empty collection.
func (c *Collection[T]) TotalPages() int {
	return (len(c.items) + c.pageSize - 1) / c.pageSize
}

func (c *Collection[T]) HasNext() bool { return c.page < c.TotalPages() }

func (c *Collection[T]) HasPrev() bool { return c.page > 1 }

// Len returns the size of the full collection.
func (c *Collection[T]) Len() int { return len(c.items) }

// Items returns a copy of the full collection.
func (c *Collection[T]) Items() []T {
	return append([]T{}, c.items...)
}

// Aggregates returns the sums over the full collection.
func (c *Collection[T]) Aggregates() Aggregates { return c.agg }

// Meta returns the page state.
func (c *Collection[T]) Meta() Meta {
	return Meta{
		CurrentPage: c.page,
		PerPage:     c.pageSize,
		TotalPages:  c.TotalPages(),
		TotalCount:  len(c.items),
		HasNext:     c.HasNext(),
		HasPrev:     c.HasPrev(),
	}
}
