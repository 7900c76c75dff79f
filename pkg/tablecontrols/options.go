// Package tablecontrols composes the filter, sort, pagination and selection
// engines into the state of one data table.
//
// A State is declared once per table with New and owns every engine and
// their persisted values. Client-side tables pass the full item slice to
// State.Client; server-side tables send State.RequestParams to a
// hub.Fetcher and pass the page it returns to State.Server. Both return a
// Controls value carrying the derived items, counts and the prop bundles a
// renderer needs.
package tablecontrols

import (
	"log/slog"

	"github.com/mesh-intelligence/tablecontrols/pkg/filter"
	"github.com/mesh-intelligence/tablecontrols/pkg/persist"
	"github.com/mesh-intelligence/tablecontrols/pkg/types"
)

// Column is one rendered column.
type Column struct {
	Key   string
	Title string
}

// Options declares a table.
type Options[T any, K comparable] struct {
	Columns []Column

	FilterEnabled     bool
	SortEnabled       bool
	PaginationEnabled bool
	SelectionEnabled  bool

	FilterCategories []filter.Category[T]
	SortableColumns  []string

	InitialFilterValues types.FilterValues
	InitialSort         *types.SortState
	InitialItemsPerPage int

	// IDOf identifies a row. Required when selection is enabled.
	IDOf func(T) K
	// GetSortValues maps an item to one comparable value per sortable
	// column. Used in client mode.
	GetSortValues func(T) map[string]any
	// ImplicitPredicates are always applied before the filter categories
	// in client mode.
	ImplicitPredicates []func(T) bool

	// HubSortFieldKeys maps a column key to its hub sort field.
	HubSortFieldKeys map[string]string
	// ImplicitFilters are always sent to the hub after the category filters.
	ImplicitFilters []types.Filter

	// PersistTo is the default strategy for filter, sort and page state.
	// The per-feature fields override it.
	PersistTo           persist.Strategy
	FilterPersistTo     persist.Strategy
	SortPersistTo       persist.Strategy
	PaginationPersistTo persist.Strategy

	KeyPrefix      string
	Location       persist.Location
	LocalStorage   persist.Storage
	SessionStorage persist.Storage

	FilterProvider     persist.Provider[types.FilterValues]
	SortProvider       persist.Provider[*types.SortState]
	PaginationProvider persist.Provider[types.PageQuery]

	// KeepPageInRange moves to the last page when the total item count
	// shrinks below the current page. Off by default: a page past the end
	// renders empty.
	KeepPageInRange bool

	Logger *slog.Logger
}

func (o Options[T, K]) strategy(override persist.Strategy) persist.Strategy {
	if override != "" {
		return override
	}
	return o.PersistTo
}

// valueOptions fills the persistence fields shared by every engine.
func valueOptions[T any, K comparable, V any](o Options[T, K], strategy persist.Strategy, enabled bool, def V, provider persist.Provider[V]) persist.Options[V] {
	opts := persist.Options[V]{
		PersistTo: strategy,
		Default:   def,
		Disabled:  !enabled,
		KeyPrefix: o.KeyPrefix,
		Location:  o.Location,
		Provider:  provider,
		Logger:    o.Logger,
	}
	switch strategy {
	case persist.StrategyLocalStorage:
		opts.Storage = o.LocalStorage
	case persist.StrategySessionStorage:
		opts.Storage = o.SessionStorage
	}
	return opts
}
