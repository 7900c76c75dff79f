package tablecontrols

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tablecontrols/pkg/filter"
	"github.com/mesh-intelligence/tablecontrols/pkg/hub"
	"github.com/mesh-intelligence/tablecontrols/pkg/persist"
	"github.com/mesh-intelligence/tablecontrols/pkg/selection"
	"github.com/mesh-intelligence/tablecontrols/pkg/types"
)

type ticket struct {
	ID       int
	Title    string
	Status   string
	Priority int
}

// tickets returns 25 tickets with distinct priorities. Every ticket whose ID
// is a multiple of 3 is open, which gives 8 open tickets.
func tickets() []ticket {
	out := make([]ticket, 25)
	for i := range out {
		status := "closed"
		if (i+1)%3 == 0 {
			status = "open"
		}
		out[i] = ticket{ID: i + 1, Title: fmt.Sprintf("ticket %d", i+1), Status: status, Priority: (i * 7) % 25}
	}
	return out
}

func priorities(items []ticket) []int {
	out := make([]int, len(items))
	for i, t := range items {
		out[i] = t.Priority
	}
	return out
}

func baseOptions() Options[ticket, int] {
	return Options[ticket, int]{
		Columns: []Column{
			{Key: "title", Title: "Title"},
			{Key: "status", Title: "Status"},
			{Key: "priority", Title: "Priority"},
		},
		FilterEnabled:     true,
		SortEnabled:       true,
		PaginationEnabled: true,
		SelectionEnabled:  true,
		FilterCategories: []filter.Category[ticket]{
			{Key: "title", Kind: types.FilterSearch, GetItemValue: func(t ticket) string { return t.Title }},
			{Key: "status", Kind: types.FilterSelect, GetItemValue: func(t ticket) string { return t.Status }},
		},
		SortableColumns: []string{"title", "priority"},
		IDOf:            func(t ticket) int { return t.ID },
		GetSortValues: func(t ticket) map[string]any {
			return map[string]any{"title": t.Title, "priority": t.Priority}
		},
		HubSortFieldKeys:    map[string]string{"priority": "priority"},
		InitialItemsPerPage: 10,
	}
}

func newTable(t *testing.T, opts Options[ticket, int]) *State[ticket, int] {
	t.Helper()
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

func TestNewRejectsBadDeclarations(t *testing.T) {
	opts := baseOptions()
	opts.FilterCategories = append(opts.FilterCategories, filter.Category[ticket]{Key: "status", Kind: types.FilterSelect})
	_, err := New(opts)
	require.ErrorIs(t, err, types.ErrDuplicateCategory)

	opts = baseOptions()
	opts.GetSortValues = nil
	opts.HubSortFieldKeys = nil
	_, err = New(opts)
	require.ErrorIs(t, err, types.ErrMissingSortValues)

	opts = baseOptions()
	opts.IDOf = nil
	_, err = New(opts)
	require.ErrorIs(t, err, types.ErrMissingIDFunc)

	opts = baseOptions()
	opts.PersistTo = persist.StrategyURLParams
	_, err = New(opts)
	require.ErrorIs(t, err, types.ErrMissingLocation)
}

func TestClientComposition(t *testing.T) {
	opts := baseOptions()
	opts.InitialFilterValues = types.FilterValues{"status": {"open"}}
	opts.InitialSort = &types.SortState{ColumnKey: "priority", Direction: types.SortDesc}
	s := newTable(t, opts)
	items := tickets()

	c := s.Client(items)
	assert.Equal(t, 8, c.TotalItemCount)
	assert.Equal(t, []int{23, 19, 15, 14, 11, 10, 6, 2}, priorities(c.CurrentPageItems))
	assert.Equal(t, 1, c.Bounds.PageCount)
	assert.Equal(t, 4, c.NumColumns)

	s.SetPageNumber(2)
	c = s.Client(items)
	assert.Empty(t, c.CurrentPageItems)
	assert.Len(t, c.FilteredItems, 8)
	assert.Zero(t, c.Bounds.FirstIndex)
	assert.Equal(t, 2, s.PageQuery().PageNumber)
}

func TestKeepPageInRange(t *testing.T) {
	opts := baseOptions()
	opts.InitialFilterValues = types.FilterValues{"status": {"open"}}
	opts.KeepPageInRange = true
	s := newTable(t, opts)

	s.SetPageNumber(5)
	c := s.Client(tickets())
	assert.Equal(t, 1, s.PageQuery().PageNumber)
	assert.Len(t, c.CurrentPageItems, 8)
}

func TestFilterChangeResetsPage(t *testing.T) {
	s := newTable(t, baseOptions())

	s.SetPageNumber(3)
	s.SetCategoryValues("status", []string{"closed"})
	assert.Equal(t, 1, s.PageQuery().PageNumber)

	s.SetPageNumber(2)
	s.SetCategoryValues("status", []string{"closed"})
	assert.Equal(t, 2, s.PageQuery().PageNumber, "unchanged filters keep the page")

	s.SetItemsPerPage(5)
	assert.Equal(t, 2, s.PageQuery().PageNumber, "page size keeps the page")

	c := s.Client(tickets())
	props := c.ToolbarProps()
	assert.True(t, props.HasActiveFilters)
	props.ClearAllFilters()
	assert.Equal(t, 1, s.PageQuery().PageNumber)
	assert.Empty(t, s.FilterValues())
}

func TestFilterToolbarProps(t *testing.T) {
	s := newTable(t, baseOptions())
	c := s.Client(tickets())

	fp := c.FilterToolbarProps()
	require.Len(t, fp.Categories, 2)
	fp.SetCategoryValues("title", []string{"TICKET 2"})

	c = s.Client(tickets())
	var ids []int
	for _, item := range c.FilteredItems {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []int{2, 20, 21, 22, 23, 24, 25}, ids)
}

func TestColumnHeaderProps(t *testing.T) {
	s := newTable(t, baseOptions())
	c := s.Client(tickets())

	status := c.ColumnHeaderProps("status")
	assert.Equal(t, "Status", status.Title)
	assert.False(t, status.Sortable)
	assert.Nil(t, status.ToggleSort)

	prio := c.ColumnHeaderProps("priority")
	require.True(t, prio.Sortable)
	prio.ToggleSort()
	prio.ToggleSort()

	c = s.Client(tickets())
	assert.Equal(t, types.SortDesc, c.ColumnHeaderProps("priority").Direction)
	assert.Empty(t, c.ColumnHeaderProps("title").Direction)
	assert.Equal(t, 24, c.CurrentPageItems[0].Priority)
}

func TestSelectionProps(t *testing.T) {
	s := newTable(t, baseOptions())
	items := tickets()
	c := s.Client(items)

	bulk := c.BulkSelectorProps()
	assert.Equal(t, selection.Unchecked, bulk.State)
	assert.Equal(t, 10, bulk.PageCount)
	assert.Equal(t, 25, bulk.TotalCount)
	require.NotNil(t, bulk.SelectAllFiltered)
	require.NotNil(t, bulk.SelectAll)

	bulk.ToggleAll()
	assert.Equal(t, selection.Checked, c.BulkSelectorProps().State)

	row := c.RowProps(c.CurrentPageItems[0])
	assert.True(t, row.Selected)
	row.Select(false)
	assert.Equal(t, selection.Indeterminate, c.BulkSelectorProps().State)
	assert.Equal(t, 9, c.ToolbarProps().SelectedCount)

	c.BulkSelectorProps().ToggleAll()
	assert.Equal(t, selection.Checked, c.BulkSelectorProps().State)
	assert.Len(t, s.Selection().SelectedIDs(), 10)

	c.BulkSelectorProps().SelectAll()
	assert.Len(t, s.Selection().SelectedIDs(), 25)
	c.BulkSelectorProps().ToggleAll()
	assert.Empty(t, s.Selection().SelectedIDs())
}

func TestSelectionDisabled(t *testing.T) {
	opts := baseOptions()
	opts.SelectionEnabled = false
	opts.IDOf = nil
	s := newTable(t, opts)
	c := s.Client(tickets())

	assert.Nil(t, s.Selection())
	assert.Equal(t, 3, c.NumColumns)
	assert.Equal(t, BulkSelectorProps{}, c.BulkSelectorProps())
	assert.Nil(t, c.RowProps(tickets()[0]).Select)
}

func TestDisabledFeaturesIgnoreState(t *testing.T) {
	opts := baseOptions()
	opts.FilterEnabled = false
	opts.PaginationEnabled = false
	opts.InitialFilterValues = types.FilterValues{"status": {"open"}}
	s := newTable(t, opts)

	c := s.Client(tickets())
	assert.Len(t, c.CurrentPageItems, 25)
	assert.Equal(t, 1, c.Bounds.PageCount)
	assert.Empty(t, s.RequestParams().Filters)
}

func TestImplicitPredicates(t *testing.T) {
	expr, err := filter.Compile(`Priority >= 20`)
	require.NoError(t, err)

	opts := baseOptions()
	opts.ImplicitPredicates = []func(ticket) bool{filter.Predicate[ticket](expr)}
	s := newTable(t, opts)

	c := s.Client(tickets())
	assert.Equal(t, 5, c.TotalItemCount)
	assert.Equal(t, 5, c.BulkSelectorProps().TotalCount)
}

func TestServerMode(t *testing.T) {
	opts := baseOptions()
	opts.ImplicitFilters = []types.Filter{{Field: "archived", Operator: types.OpEqual, Value: "false"}}
	s := newTable(t, opts)

	s.SetCategoryValues("title", []string{"foo"})
	s.ToggleSort("priority")
	s.ToggleSort("priority")
	s.SetPageNumber(2)

	params := s.RequestParams()
	assert.Equal(t, hub.RequestParams{
		Filters: []types.Filter{
			{Field: "title", Operator: types.OpLike, Value: "*foo*"},
			{Field: "archived", Operator: types.OpEqual, Value: "false"},
		},
		Sort: &types.Sort{Field: "priority", Direction: types.SortDesc},
		Page: types.Page{PageNumber: 2, ItemsPerPage: 10},
	}, params)

	fetcher := hub.FetcherFunc[ticket](func(_ context.Context, p hub.RequestParams) (hub.Result[ticket], error) {
		all := tickets()
		start := (p.Page.PageNumber - 1) * p.Page.ItemsPerPage
		return hub.Result[ticket]{Items: all[start : start+p.Page.ItemsPerPage], Total: len(all)}, nil
	})
	res, err := fetcher.Fetch(context.Background(), params)
	require.NoError(t, err)

	c := s.Server(res.Items, res.Total)
	assert.Len(t, c.CurrentPageItems, 10)
	assert.Equal(t, 25, c.TotalItemCount)
	assert.Equal(t, 11, c.Bounds.FirstIndex)
	assert.Equal(t, 20, c.Bounds.LastIndex)

	bulk := c.BulkSelectorProps()
	assert.Nil(t, bulk.SelectAllFiltered)
	assert.Nil(t, bulk.SelectAll)

	empty := s.Server(nil, 0)
	assert.Empty(t, empty.CurrentPageItems)
	assert.Zero(t, empty.Bounds.PageCount)
}

func TestURLPersistence(t *testing.T) {
	h, err := persist.NewHistory("/tickets")
	require.NoError(t, err)

	opts := baseOptions()
	opts.PersistTo = persist.StrategyURLParams
	opts.KeyPrefix = "tickets"
	opts.Location = h
	s := newTable(t, opts)

	s.SetCategoryValues("status", []string{"open"})
	s.ToggleSort("priority")
	s.SetPageNumber(2)

	q := h.Query()
	assert.Equal(t, []string{"status:open"}, q["tickets:filters"])
	assert.Equal(t, "priority", q.Get("tickets:sortColumn"))
	assert.Equal(t, "2", q.Get("tickets:pageNumber"))

	require.True(t, h.Back())
	assert.Equal(t, 1, s.PageQuery().PageNumber)
	assert.Equal(t, &types.SortState{ColumnKey: "priority", Direction: types.SortAsc}, s.ActiveSort())

	reopened := newTable(t, opts)
	assert.Equal(t, types.FilterValues{"status": {"open"}}, reopened.FilterValues())
}

func TestMixedPersistence(t *testing.T) {
	local := persist.NewMemoryStorage()
	session := persist.NewMemoryStorage()

	opts := baseOptions()
	opts.PersistTo = persist.StrategyLocalStorage
	opts.PaginationPersistTo = persist.StrategySessionStorage
	opts.KeyPrefix = "tickets"
	opts.LocalStorage = local
	opts.SessionStorage = session
	s := newTable(t, opts)

	s.SetCategoryValues("status", []string{"open"})
	s.ToggleSort("title")
	s.SetItemsPerPage(25)

	assert.Equal(t, []string{"tickets:filters", "tickets:sort"}, local.Keys())
	assert.Equal(t, []string{"tickets:pagination"}, session.Keys())

	reopened := newTable(t, opts)
	assert.Equal(t, 25, reopened.PageQuery().ItemsPerPage)
	assert.Equal(t, types.FilterValues{"status": {"open"}}, reopened.FilterValues())
}
