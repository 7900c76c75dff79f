package tablecontrols

import (
	"github.com/mesh-intelligence/tablecontrols/pkg/filter"
	"github.com/mesh-intelligence/tablecontrols/pkg/pagination"
	"github.com/mesh-intelligence/tablecontrols/pkg/selection"
	"github.com/mesh-intelligence/tablecontrols/pkg/sorting"
	"github.com/mesh-intelligence/tablecontrols/pkg/types"
)

// Controls is the derived view of a table for one render.
type Controls[T any, K comparable] struct {
	state *State[T, K]

	// FilteredItems are the items matching the filters, sorted. In server
	// mode they are the fetched page.
	FilteredItems    []T
	CurrentPageItems []T
	TotalItemCount   int
	Bounds           pagination.PageBounds
	// NumColumns counts rendered columns including the selection column.
	NumColumns int

	universes selection.Universes[T]
}

// Client filters, sorts and paginates items in memory.
func (s *State[T, K]) Client(items []T) *Controls[T, K] {
	visible := items
	if len(s.opts.ImplicitPredicates) > 0 {
		visible = make([]T, 0, len(items))
		for _, item := range items {
			if s.matchesImplicit(item) {
				visible = append(visible, item)
			}
		}
	}

	filtered := visible
	if s.opts.FilterEnabled {
		filtered = filter.Apply(visible, s.opts.FilterCategories, s.filters.Values())
	}
	if active := s.ActiveSort(); active != nil {
		filtered = sorting.Sort(filtered, active, s.opts.GetSortValues)
	}

	c := s.newControls(filtered, len(filtered))
	c.FilteredItems = filtered
	if s.opts.PaginationEnabled {
		c.CurrentPageItems = pagination.Paginate(filtered, s.page.Query())
	} else {
		c.CurrentPageItems = filtered
	}
	c.universes = selection.Universes[T]{Page: c.CurrentPageItems, Filtered: filtered, All: visible}
	return c
}

// Server wraps a page fetched from the hub. totalItemCount is the count the
// hub reported across all pages; a nil page renders as an empty table.
func (s *State[T, K]) Server(pageItems []T, totalItemCount int) *Controls[T, K] {
	if pageItems == nil {
		pageItems = []T{}
	}
	c := s.newControls(pageItems, totalItemCount)
	c.FilteredItems = pageItems
	c.CurrentPageItems = pageItems
	c.universes = selection.Universes[T]{Page: pageItems}
	return c
}

func (s *State[T, K]) newControls(items []T, total int) *Controls[T, K] {
	total = max(total, 0)
	if s.opts.PaginationEnabled && s.opts.KeepPageInRange {
		s.page.EnsurePageInRange(total)
	}
	q := s.page.Query()
	if !s.opts.PaginationEnabled {
		q = types.PageQuery{PageNumber: 1, ItemsPerPage: max(len(items), 1)}
	}
	numColumns := len(s.opts.Columns)
	if s.selection != nil {
		numColumns++
	}
	return &Controls[T, K]{
		state:          s,
		TotalItemCount: total,
		Bounds:         pagination.Bounds(q, total),
		NumColumns:     numColumns,
	}
}

func (s *State[T, K]) matchesImplicit(item T) bool {
	for _, pred := range s.opts.ImplicitPredicates {
		if !pred(item) {
			return false
		}
	}
	return true
}

// ToolbarProps summarize the table for its toolbar.
type ToolbarProps struct {
	TotalItemCount   int
	SelectedCount    int
	HasActiveFilters bool
	ClearAllFilters  func()
}

// ToolbarProps returns the toolbar bundle.
func (c *Controls[T, K]) ToolbarProps() ToolbarProps {
	s := c.state
	p := ToolbarProps{
		TotalItemCount:   c.TotalItemCount,
		HasActiveFilters: s.opts.FilterEnabled && s.filters.HasActive(),
		ClearAllFilters:  s.ClearFilters,
	}
	if s.selection != nil {
		p.SelectedCount = s.selection.SelectedCount()
	}
	return p
}

// FilterToolbarProps drive the filter controls.
type FilterToolbarProps[T any] struct {
	Categories        []filter.Category[T]
	Values            types.FilterValues
	SetValues         func(types.FilterValues)
	SetCategoryValues func(key string, values []string)
	ClearAll          func()
}

// FilterToolbarProps returns the filter toolbar bundle.
func (c *Controls[T, K]) FilterToolbarProps() FilterToolbarProps[T] {
	s := c.state
	return FilterToolbarProps[T]{
		Categories:        s.opts.FilterCategories,
		Values:            s.FilterValues(),
		SetValues:         s.SetFilterValues,
		SetCategoryValues: s.SetCategoryValues,
		ClearAll:          s.ClearFilters,
	}
}

// PaginationProps drive the pager.
type PaginationProps struct {
	Bounds          pagination.PageBounds
	PageNumber      int
	ItemsPerPage    int
	SetPageNumber   func(int)
	SetItemsPerPage func(int)
}

// PaginationProps returns the pager bundle.
func (c *Controls[T, K]) PaginationProps() PaginationProps {
	s := c.state
	q := s.page.Query()
	return PaginationProps{
		Bounds:          c.Bounds,
		PageNumber:      q.PageNumber,
		ItemsPerPage:    q.ItemsPerPage,
		SetPageNumber:   s.SetPageNumber,
		SetItemsPerPage: s.SetItemsPerPage,
	}
}

// BulkSelectorProps drive the header checkbox and its bulk menu. Actions for
// universes the table cannot offer are nil.
type BulkSelectorProps struct {
	State         selection.CheckState
	SelectedCount int
	PageCount     int
	FilteredCount int
	TotalCount    int

	SelectNone        func()
	SelectPage        func()
	SelectAllFiltered func()
	SelectAll         func()
	ToggleAll         func()
}

// BulkSelectorProps returns the bulk selector bundle. It is the zero value
// when selection is disabled.
func (c *Controls[T, K]) BulkSelectorProps() BulkSelectorProps {
	sel := c.state.selection
	if sel == nil {
		return BulkSelectorProps{}
	}
	us := c.universes
	p := BulkSelectorProps{
		State:         sel.HeaderState(us),
		SelectedCount: sel.SelectedCount(),
		PageCount:     len(us.Page),
		FilteredCount: c.TotalItemCount,
		TotalCount:    c.TotalItemCount,
		SelectNone:    sel.SelectNone,
		SelectPage:    func() { sel.SelectPage(us.Page) },
		ToggleAll:     func() { sel.ToggleAll(us) },
	}
	if us.Filtered != nil {
		p.SelectAllFiltered = func() { sel.SelectAllFiltered(us.Filtered) }
	}
	if us.All != nil {
		p.TotalCount = len(us.All)
		p.SelectAll = func() { sel.SelectAll(us.All) }
	}
	return p
}

// ColumnHeaderProps drive one column header.
type ColumnHeaderProps struct {
	Key      string
	Title    string
	Sortable bool
	// Direction is set only on the active sort column.
	Direction types.SortDirection
	// ToggleSort is nil on columns that cannot be sorted.
	ToggleSort func()
}

// ColumnHeaderProps returns the header bundle for the column with key.
// Unknown keys return a header with only the key set.
func (c *Controls[T, K]) ColumnHeaderProps(key string) ColumnHeaderProps {
	s := c.state
	p := ColumnHeaderProps{Key: key}
	for _, col := range s.opts.Columns {
		if col.Key == key {
			p.Title = col.Title
			break
		}
	}
	if !s.opts.SortEnabled || !s.sort.IsSortable(key) {
		return p
	}
	p.Sortable = true
	p.ToggleSort = func() { s.ToggleSort(key) }
	if active := s.ActiveSort(); active != nil && active.ColumnKey == key {
		p.Direction = active.Direction
	}
	return p
}

// RowProps drive one row.
type RowProps struct {
	Selected bool
	// Select is nil when selection is disabled.
	Select func(selected bool)
}

// RowProps returns the row bundle for item.
func (c *Controls[T, K]) RowProps(item T) RowProps {
	sel := c.state.selection
	if sel == nil {
		return RowProps{}
	}
	return RowProps{
		Selected: sel.IsSelected(item),
		Select:   func(selected bool) { sel.SelectItem(item, selected) },
	}
}

// Universes returns the item sets bulk selection operates on.
func (c *Controls[T, K]) Universes() selection.Universes[T] {
	return c.universes
}
