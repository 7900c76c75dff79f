// Package selection tracks which rows of a table are selected. Rows are
// identified by a caller-supplied id function, so a selection survives
// re-sorting, re-filtering and re-fetching of the same items.
//
// Whether everything is selected is derived rather than stored: it compares
// the selection with whichever universe (page, filtered or all items) was
// most recently targeted by a bulk operation.
package selection

import (
	"log/slog"
	"slices"

	"github.com/mesh-intelligence/tablecontrols/pkg/persist"
	"github.com/mesh-intelligence/tablecontrols/pkg/types"
)

// Universe names the item set a bulk selection targeted.
type Universe string

// Universes a selection can target.
const (
	UniversePage     Universe = "page"
	UniverseFiltered Universe = "filtered"
	UniverseAll      Universe = "all"
)

// Universes carries the current contents of each item set. Filtered and All
// are optional; a nil slice means the caller does not offer that action.
type Universes[T any] struct {
	Page     []T
	Filtered []T
	All      []T
}

// items returns the contents of u.
func (us Universes[T]) items(u Universe) []T {
	switch u {
	case UniverseFiltered:
		return us.Filtered
	case UniverseAll:
		return us.All
	default:
		return us.Page
	}
}

// CheckState is the tri-state of a header checkbox.
type CheckState int

// Header checkbox states.
const (
	Unchecked CheckState = iota
	Indeterminate
	Checked
)

// State is the selection of one table.
type State[T any, K comparable] struct {
	idOf   func(T) K
	ids    *persist.Value[[]K]
	target Universe
}

// NewState returns an empty selection keyed by idOf. The selection is held
// in memory only.
func NewState[T any, K comparable](idOf func(T) K, logger *slog.Logger) (*State[T, K], error) {
	if idOf == nil {
		return nil, types.ErrMissingIDFunc
	}
	ids, err := persist.New(persist.Options[[]K]{
		PersistTo: persist.StrategyState,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	return &State[T, K]{idOf: idOf, ids: ids, target: UniversePage}, nil
}

// Target returns the universe most recently targeted by a bulk selection.
// It is UniversePage until another universe is selected.
func (s *State[T, K]) Target() Universe {
	return s.target
}

// SelectNone clears the selection.
func (s *State[T, K]) SelectNone() {
	s.ids.Set(nil)
}

// SelectPage replaces the selection with exactly the ids on the page.
func (s *State[T, K]) SelectPage(page []T) {
	s.selectUniverse(UniversePage, page)
}

// SelectAllFiltered replaces the selection with every item matching the
// current filters.
func (s *State[T, K]) SelectAllFiltered(filtered []T) {
	s.selectUniverse(UniverseFiltered, filtered)
}

// SelectAll replaces the selection with every item.
func (s *State[T, K]) SelectAll(all []T) {
	s.selectUniverse(UniverseAll, all)
}

func (s *State[T, K]) selectUniverse(u Universe, items []T) {
	s.target = u
	s.ids.Set(s.idsOf(items))
}

// SelectItem adds or removes a single item.
func (s *State[T, K]) SelectItem(item T, selected bool) {
	id := s.idOf(item)
	current := s.ids.Get()
	idx := slices.Index(current, id)
	switch {
	case selected && idx < 0:
		s.ids.Set(append(slices.Clone(current), id))
	case !selected && idx >= 0:
		s.ids.Set(slices.Delete(slices.Clone(current), idx, idx+1))
	}
}

// IsSelected reports whether item is selected.
func (s *State[T, K]) IsSelected(item T) bool {
	return slices.Contains(s.ids.Get(), s.idOf(item))
}

// SelectedIDs returns the selected ids in selection order.
func (s *State[T, K]) SelectedIDs() []K {
	return slices.Clone(s.ids.Get())
}

// SelectedCount returns the number of selected ids.
func (s *State[T, K]) SelectedCount() int {
	return len(s.ids.Get())
}

// SelectedItems returns the items of universe that are selected, in
// universe order. Selected ids absent from universe are skipped.
func (s *State[T, K]) SelectedItems(universe []T) []T {
	set := s.idSet()
	out := make([]T, 0, len(set))
	for _, item := range universe {
		if _, ok := set[s.idOf(item)]; ok {
			out = append(out, item)
		}
	}
	return out
}

// AreAllSelected reports whether the selection equals the id set of the
// most recently targeted universe. An empty universe is never all selected.
func (s *State[T, K]) AreAllSelected(us Universes[T]) bool {
	items := us.items(s.target)
	if len(items) == 0 {
		return false
	}
	want := make(map[K]struct{}, len(items))
	for _, item := range items {
		want[s.idOf(item)] = struct{}{}
	}
	got := s.idSet()
	if len(got) != len(want) {
		return false
	}
	for id := range want {
		if _, ok := got[id]; !ok {
			return false
		}
	}
	return true
}

// HeaderState returns the header checkbox state for us.
func (s *State[T, K]) HeaderState(us Universes[T]) CheckState {
	switch {
	case s.AreAllSelected(us):
		return Checked
	case s.SelectedCount() > 0:
		return Indeterminate
	default:
		return Unchecked
	}
}

// ToggleAll handles a click on the header checkbox: a fully selected table
// is cleared, anything else selects the current page.
func (s *State[T, K]) ToggleAll(us Universes[T]) {
	if s.AreAllSelected(us) {
		s.SelectNone()
		return
	}
	s.SelectPage(us.Page)
}

func (s *State[T, K]) idsOf(items []T) []K {
	out := make([]K, 0, len(items))
	seen := make(map[K]struct{}, len(items))
	for _, item := range items {
		id := s.idOf(item)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *State[T, K]) idSet() map[K]struct{} {
	ids := s.ids.Get()
	set := make(map[K]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
