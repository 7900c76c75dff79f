package types

import "math"

// DefaultItemsPerPage is used when a table declares no initial page size.
const DefaultItemsPerPage = 10

// PageQuery is the current page of a table. Both fields are at least 1 once
// clamped.
type PageQuery struct {
	PageNumber   int `json:"pageNumber"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// Clamp returns q with PageNumber and ItemsPerPage raised to at least 1.
// PageNumber is also capped so that Offset fits in an int.
func (q PageQuery) Clamp() PageQuery {
	if q.ItemsPerPage < 1 {
		q.ItemsPerPage = 1
	}
	if q.PageNumber < 1 {
		q.PageNumber = 1
	}
	if last := math.MaxInt/q.ItemsPerPage + 1; q.PageNumber > last {
		q.PageNumber = last
	}
	return q
}

// Offset returns the zero-based index of the first item on the page.
func (q PageQuery) Offset() int {
	q = q.Clamp()
	return (q.PageNumber - 1) * q.ItemsPerPage
}

// Page is the pagination part of hub request parameters.
type Page struct {
	PageNumber   int `json:"pageNumber"`
	ItemsPerPage int `json:"itemsPerPage"`
}
