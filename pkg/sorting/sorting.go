// Package sorting orders table items by one active column. Client-side
// sorting is stable ascending; a descending sort reverses the ascending
// result, so items with equal keys appear in reverse input order. Server-side
// sorting maps the column to a hub field name.
package sorting

import (
	"net/url"
	"slices"

	"github.com/mesh-intelligence/tablecontrols/pkg/persist"
	"github.com/mesh-intelligence/tablecontrols/pkg/types"
)

// URL parameter names for the active sort.
const (
	URLKeyColumn    = "sortColumn"
	URLKeyDirection = "sortDirection"
)

// StorageKey is the default storage key for the persisted sort.
const StorageKey = "sort"

// State holds the active sort of one table.
type State struct {
	sortable []string
	value    *persist.Value[*types.SortState]
}

// NewState builds sort state over the declared sortable columns. URL
// serialization and the storage key are filled in when opts leaves them
// empty.
func NewState(sortable []string, opts persist.Options[*types.SortState]) (*State, error) {
	if opts.Key == "" {
		opts.Key = StorageKey
	}
	if len(opts.URLKeys) == 0 {
		opts.URLKeys = []string{URLKeyColumn, URLKeyDirection}
	}
	if opts.Serialize == nil {
		opts.Serialize = SerializeSort
	}
	if opts.Deserialize == nil {
		opts.Deserialize = DeserializeSort
	}
	value, err := persist.New(opts)
	if err != nil {
		return nil, err
	}
	return &State{sortable: slices.Clone(sortable), value: value}, nil
}

// Sortable returns the declared sortable columns.
func (s *State) Sortable() []string {
	return slices.Clone(s.sortable)
}

// IsSortable reports whether column was declared sortable.
func (s *State) IsSortable(column string) bool {
	return slices.Contains(s.sortable, column)
}

// Active returns the active sort, or nil when the table is unsorted. A
// persisted column that is no longer sortable reads as unsorted.
func (s *State) Active() *types.SortState {
	active := s.value.Get()
	if active == nil || !s.IsSortable(active.ColumnKey) {
		return nil
	}
	out := *active
	if !out.Direction.Valid() {
		out.Direction = types.SortAsc
	}
	return &out
}

// SetActive replaces the active sort. Nil clears it.
func (s *State) SetActive(active *types.SortState) {
	if active == nil {
		s.value.Set(nil)
		return
	}
	next := *active
	s.value.Set(&next)
}

// Toggle sorts by column: a new column starts ascending, the active column
// flips direction. Columns that are not sortable are ignored.
func (s *State) Toggle(column string) {
	if !s.IsSortable(column) {
		return
	}
	direction := types.SortAsc
	if active := s.Active(); active != nil && active.ColumnKey == column {
		direction = active.Direction.Opposite()
	}
	s.SetActive(&types.SortState{ColumnKey: column, Direction: direction})
}

// Clear removes the active sort.
func (s *State) Clear() {
	s.SetActive(nil)
}

// Sort returns a sorted copy of items. getSortValues maps an item to its
// comparable value per column; an unsorted table returns the items in input
// order.
func Sort[T any](items []T, active *types.SortState, getSortValues func(T) map[string]any) []T {
	out := slices.Clone(items)
	if active == nil || getSortValues == nil {
		return out
	}

	keys := make([]any, len(out))
	indexed := make([]int, len(out))
	for i, item := range out {
		indexed[i] = i
		keys[i] = getSortValues(item)[active.ColumnKey]
	}

	c := newComparer()
	slices.SortStableFunc(indexed, func(a, b int) int {
		return c.compare(keys[a], keys[b])
	})
	if active.Direction == types.SortDesc {
		slices.Reverse(indexed)
	}

	sorted := make([]T, len(out))
	for i, idx := range indexed {
		sorted[i] = out[idx]
	}
	return sorted
}

// ServerSort maps the active sort to a hub sort. It returns nil when the
// table is unsorted or the column has no hub field.
func ServerSort(active *types.SortState, hubSortFieldKeys map[string]string) *types.Sort {
	if active == nil {
		return nil
	}
	field, ok := hubSortFieldKeys[active.ColumnKey]
	if !ok || field == "" {
		return nil
	}
	direction := active.Direction
	if !direction.Valid() {
		direction = types.SortAsc
	}
	return &types.Sort{Field: field, Direction: direction}
}

// SerializeSort writes the active sort as URL parameters.
func SerializeSort(active *types.SortState) url.Values {
	if active == nil {
		return url.Values{}
	}
	return url.Values{
		URLKeyColumn:    {active.ColumnKey},
		URLKeyDirection: {string(active.Direction)},
	}
}

// DeserializeSort reads the active sort from URL parameters. A missing
// column means unsorted; an unknown direction reads as ascending.
func DeserializeSort(q url.Values) *types.SortState {
	column := q.Get(URLKeyColumn)
	if column == "" {
		return nil
	}
	direction := types.SortDirection(q.Get(URLKeyDirection))
	if !direction.Valid() {
		direction = types.SortAsc
	}
	return &types.SortState{ColumnKey: column, Direction: direction}
}
