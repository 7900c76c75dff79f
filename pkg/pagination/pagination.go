// Package pagination tracks the current page of a table. Page number and page
// size are clamped to at least 1 on every write. Client-side tables slice
// the filtered and sorted items; server-side tables send the page query to
// the hub and supply the total item count reported back.
package pagination

import (
	"net/url"
	"strconv"

	"github.com/mesh-intelligence/tablecontrols/pkg/persist"
	"github.com/mesh-intelligence/tablecontrols/pkg/types"
)

// URL parameter names for the page query.
const (
	URLKeyPageNumber   = "pageNumber"
	URLKeyItemsPerPage = "itemsPerPage"
)

// StorageKey is the default storage key for the persisted page query.
const StorageKey = "pagination"

// State holds the page query of one table.
type State struct {
	def   types.PageQuery
	value *persist.Value[types.PageQuery]
}

// NewState builds page state. A zero opts.Default starts at page 1 with
// types.DefaultItemsPerPage items.
func NewState(opts persist.Options[types.PageQuery]) (*State, error) {
	if opts.Default.ItemsPerPage == 0 {
		opts.Default.ItemsPerPage = types.DefaultItemsPerPage
	}
	opts.Default = opts.Default.Clamp()
	if opts.Key == "" {
		opts.Key = StorageKey
	}
	if len(opts.URLKeys) == 0 {
		opts.URLKeys = []string{URLKeyPageNumber, URLKeyItemsPerPage}
	}
	if opts.Serialize == nil {
		opts.Serialize = SerializePage
	}
	if opts.Deserialize == nil {
		def := opts.Default
		opts.Deserialize = func(q url.Values) types.PageQuery {
			return DeserializePage(q, def)
		}
	}
	value, err := persist.New(opts)
	if err != nil {
		return nil, err
	}
	return &State{def: opts.Default, value: value}, nil
}

// Query returns the clamped page query.
func (s *State) Query() types.PageQuery {
	return s.value.Get().Clamp()
}

// PageNumber returns the current page, starting at 1.
func (s *State) PageNumber() int {
	return s.Query().PageNumber
}

// ItemsPerPage returns the page size.
func (s *State) ItemsPerPage() int {
	return s.Query().ItemsPerPage
}

// SetPageNumber moves to page n. Values below 1 select page 1.
func (s *State) SetPageNumber(n int) {
	q := s.Query()
	q.PageNumber = n
	s.value.Set(q.Clamp())
}

// SetItemsPerPage changes the page size without touching the page number.
func (s *State) SetItemsPerPage(n int) {
	q := s.Query()
	q.ItemsPerPage = n
	s.value.Set(q.Clamp())
}

// Reset returns to the default page query.
func (s *State) Reset() {
	s.value.Set(s.def)
}

// EnsurePageInRange moves to the last page when the current page lies beyond
// totalItemCount. An empty result stays on page 1.
func (s *State) EnsurePageInRange(totalItemCount int) {
	q := s.Query()
	last := Bounds(q, totalItemCount).PageCount
	if last < 1 {
		last = 1
	}
	if q.PageNumber > last {
		s.SetPageNumber(last)
	}
}

// Paginate returns the items on page q: indices [(p-1)*n, p*n). A page
// past the end is empty.
func Paginate[T any](items []T, q types.PageQuery) []T {
	q = q.Clamp()
	start := q.Offset()
	if start < 0 || start >= len(items) {
		return []T{}
	}
	end := start + min(q.ItemsPerPage, len(items)-start)
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

// ServerPage returns the hub page parameters for q.
func ServerPage(q types.PageQuery) types.Page {
	q = q.Clamp()
	return types.Page{PageNumber: q.PageNumber, ItemsPerPage: q.ItemsPerPage}
}

// PageBounds describes the current page relative to the full result.
type PageBounds struct {
	TotalItemCount int
	PageCount      int
	// FirstIndex and LastIndex are 1-based and inclusive; both are 0 when
	// the page is empty.
	FirstIndex int
	LastIndex  int
	HasPrev    bool
	HasNext    bool
}

// Bounds computes page bounds for q over totalItemCount items.
func Bounds(q types.PageQuery, totalItemCount int) PageBounds {
	q = q.Clamp()
	total := max(totalItemCount, 0)
	b := PageBounds{
		TotalItemCount: total,
		PageCount:      total / q.ItemsPerPage,
		HasPrev:        q.PageNumber > 1,
	}
	if total%q.ItemsPerPage != 0 {
		b.PageCount++
	}
	start := q.Offset()
	if start >= 0 && start < total {
		b.FirstIndex = start + 1
		b.LastIndex = start + min(q.ItemsPerPage, total-start)
	}
	b.HasNext = q.PageNumber < b.PageCount
	return b
}

// SerializePage writes q as URL parameters.
func SerializePage(q types.PageQuery) url.Values {
	return url.Values{
		URLKeyPageNumber:   {strconv.Itoa(q.PageNumber)},
		URLKeyItemsPerPage: {strconv.Itoa(q.ItemsPerPage)},
	}
}

// DeserializePage reads q from URL parameters. Missing or non-numeric
// parameters take their value from def; the result is clamped.
func DeserializePage(q url.Values, def types.PageQuery) types.PageQuery {
	out := def
	if n, err := strconv.Atoi(q.Get(URLKeyPageNumber)); err == nil {
		out.PageNumber = n
	}
	if n, err := strconv.Atoi(q.Get(URLKeyItemsPerPage)); err == nil {
		out.ItemsPerPage = n
	}
	return out.Clamp()
}
