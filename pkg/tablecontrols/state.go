package tablecontrols

import (
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/tablecontrols/pkg/filter"
	"github.com/mesh-intelligence/tablecontrols/pkg/hub"
	"github.com/mesh-intelligence/tablecontrols/pkg/pagination"
	"github.com/mesh-intelligence/tablecontrols/pkg/selection"
	"github.com/mesh-intelligence/tablecontrols/pkg/sorting"
	"github.com/mesh-intelligence/tablecontrols/pkg/types"
)

// State is the declared, persisted state of one table.
type State[T any, K comparable] struct {
	opts Options[T, K]

	filters   *filter.State
	sort      *sorting.State
	page      *pagination.State
	selection *selection.State[T, K]

	logger *slog.Logger
}

// New validates opts and builds the engines of a table.
func New[T any, K comparable](opts Options[T, K]) (*State[T, K], error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts.Logger = logger

	if err := filter.ValidateCategories(opts.FilterCategories); err != nil {
		return nil, fmt.Errorf("declare filters: %w", err)
	}
	if opts.SortEnabled && opts.GetSortValues == nil && len(opts.HubSortFieldKeys) == 0 {
		return nil, types.ErrMissingSortValues
	}

	s := &State[T, K]{opts: opts, logger: logger}
	var err error

	s.filters, err = filter.NewState(filter.Keys(opts.FilterCategories), valueOptions(opts,
		opts.strategy(opts.FilterPersistTo), opts.FilterEnabled, opts.InitialFilterValues.Clone(), opts.FilterProvider))
	if err != nil {
		return nil, fmt.Errorf("create filter state: %w", err)
	}

	s.sort, err = sorting.NewState(opts.SortableColumns, valueOptions(opts,
		opts.strategy(opts.SortPersistTo), opts.SortEnabled, opts.InitialSort, opts.SortProvider))
	if err != nil {
		return nil, fmt.Errorf("create sort state: %w", err)
	}

	s.page, err = pagination.NewState(valueOptions(opts,
		opts.strategy(opts.PaginationPersistTo), opts.PaginationEnabled,
		types.PageQuery{PageNumber: 1, ItemsPerPage: opts.InitialItemsPerPage}, opts.PaginationProvider))
	if err != nil {
		return nil, fmt.Errorf("create pagination state: %w", err)
	}

	if opts.SelectionEnabled {
		s.selection, err = selection.NewState(opts.IDOf, logger)
		if err != nil {
			return nil, fmt.Errorf("create selection state: %w", err)
		}
	}
	return s, nil
}

// Columns returns the declared columns.
func (s *State[T, K]) Columns() []Column {
	return s.opts.Columns
}

// FilterCategories returns the declared filter categories.
func (s *State[T, K]) FilterCategories() []filter.Category[T] {
	return s.opts.FilterCategories
}

// FilterValues returns the selected filter values.
func (s *State[T, K]) FilterValues() types.FilterValues {
	return s.filters.Values()
}

// SetFilterValues replaces the filter selection. A change returns the table
// to page 1.
func (s *State[T, K]) SetFilterValues(values types.FilterValues) {
	s.changeFilters(func() { s.filters.SetValues(values) })
}

// SetCategoryValues replaces the selection of one category. A change
// returns the table to page 1.
func (s *State[T, K]) SetCategoryValues(key string, values []string) {
	s.changeFilters(func() { s.filters.SetCategoryValues(key, values) })
}

// ClearFilters removes every filter selection.
func (s *State[T, K]) ClearFilters() {
	s.changeFilters(s.filters.ClearAll)
}

func (s *State[T, K]) changeFilters(apply func()) {
	before := s.filters.Values()
	apply()
	if before.Equal(s.filters.Values()) {
		return
	}
	if s.opts.PaginationEnabled && s.page.PageNumber() != 1 {
		s.logger.Debug("filters changed, returning to first page", "from", s.page.PageNumber())
		s.page.SetPageNumber(1)
	}
}

// ActiveSort returns the active sort, or nil when the table is unsorted.
func (s *State[T, K]) ActiveSort() *types.SortState {
	if !s.opts.SortEnabled {
		return nil
	}
	return s.sort.Active()
}

// SetSort replaces the active sort.
func (s *State[T, K]) SetSort(active *types.SortState) {
	s.sort.SetActive(active)
}

// ToggleSort sorts by column ascending, or flips the direction when column
// is already active.
func (s *State[T, K]) ToggleSort(column string) {
	s.sort.Toggle(column)
}

// ClearSort makes the table unsorted.
func (s *State[T, K]) ClearSort() {
	s.sort.Clear()
}

// PageQuery returns the current page query.
func (s *State[T, K]) PageQuery() types.PageQuery {
	return s.page.Query()
}

// SetPageNumber moves to page n, clamped to at least 1.
func (s *State[T, K]) SetPageNumber(n int) {
	s.page.SetPageNumber(n)
}

// SetItemsPerPage changes the page size. The page number is kept.
func (s *State[T, K]) SetItemsPerPage(n int) {
	s.page.SetItemsPerPage(n)
}

// Selection returns the selection engine, or nil when selection is
// disabled.
func (s *State[T, K]) Selection() *selection.State[T, K] {
	return s.selection
}

// RequestParams returns the hub request parameters for the current state.
func (s *State[T, K]) RequestParams() hub.RequestParams {
	args := hub.Args[T]{
		Categories:       s.opts.FilterCategories,
		HubSortFieldKeys: s.opts.HubSortFieldKeys,
		Page:             s.page.Query(),
		ImplicitFilters:  s.opts.ImplicitFilters,
		Sort:             s.ActiveSort(),
	}
	if s.opts.FilterEnabled {
		args.FilterValues = s.filters.Values()
	}
	return hub.BuildRequestParams(args)
}
