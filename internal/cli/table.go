package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/tablecontrols/pkg/filter"
	"github.com/mesh-intelligence/tablecontrols/pkg/tablecontrols"
	"github.com/mesh-intelligence/tablecontrols/pkg/types"
)

// record is one loaded JSON object.
type record = map[string]any

// tableOptions declares the table for a configured dataset. Persistence
// fields are filled in by the caller.
func tableOptions(ds datasetConfig) tablecontrols.Options[record, string] {
	opts := tablecontrols.Options[record, string]{
		FilterEnabled:       true,
		SortEnabled:         true,
		PaginationEnabled:   true,
		SelectionEnabled:    true,
		InitialItemsPerPage: ds.ItemsPerPage,
		HubSortFieldKeys:    map[string]string{},
	}
	idField := ds.IDField
	opts.IDOf = func(r record) string { return cellText(r[idField]) }

	var sortable []string
	for _, c := range ds.Columns {
		opts.Columns = append(opts.Columns, tablecontrols.Column{Key: c.Key, Title: c.title()})
		if c.Sortable {
			sortable = append(sortable, c.Key)
			opts.HubSortFieldKeys[c.Key] = c.hubField()
		}
		if c.Filter == "" {
			continue
		}
		key := c.Key
		opts.FilterCategories = append(opts.FilterCategories, filter.Category[record]{
			Key:          key,
			Title:        c.title(),
			Kind:         types.FilterKind(c.Filter),
			ServerField:  c.hubField(),
			GetItemValue: func(r record) string { return cellText(r[key]) },
		})
	}
	opts.SortableColumns = sortable
	opts.GetSortValues = func(r record) map[string]any {
		values := make(map[string]any, len(sortable))
		for _, key := range sortable {
			values[key] = r[key]
		}
		return values
	}
	return opts
}

// cellText renders a decoded JSON value as plain text.
func cellText(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// labelColor returns the label background for a cell, or "" when the
// column is not a label column.
func labelColor(c columnConfig, r record) string {
	switch {
	case c.Color == "":
		return ""
	case strings.HasPrefix(c.Color, "#"):
		return c.Color
	default:
		return cellText(r[c.Color])
	}
}

// parseFilterFlags turns "key=value" flags into per-category selections.
// Repeating a key ORs its values; "key=" clears the category.
func parseFilterFlags(flags []string, categories []string) (types.FilterValues, error) {
	known := make(map[string]bool, len(categories))
	for _, key := range categories {
		known[key] = true
	}
	values := types.FilterValues{}
	for _, f := range flags {
		key, value, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("filter %q: expected key=value", f)
		}
		key = strings.TrimSpace(key)
		if !known[key] {
			return nil, fmt.Errorf("filter %q: no filter on column %q", f, key)
		}
		if _, seen := values[key]; !seen {
			values[key] = []string{}
		}
		if value != "" {
			values[key] = append(values[key], value)
		}
	}
	return values, nil
}

// parseSortFlag parses "column" or "column:asc|desc". "none" clears the
// sort and returns nil.
func parseSortFlag(flag string, sortable []string) (active *types.SortState, err error) {
	if flag == "none" {
		return nil, nil
	}
	column, dir, hasDir := strings.Cut(flag, ":")
	direction := types.SortAsc
	if hasDir {
		direction = types.SortDirection(strings.ToLower(dir))
		if !direction.Valid() {
			return nil, fmt.Errorf("sort %q: direction must be asc or desc", flag)
		}
	}
	for _, key := range sortable {
		if key == column {
			return &types.SortState{ColumnKey: column, Direction: direction}, nil
		}
	}
	return nil, fmt.Errorf("sort %q: column %q is not sortable", flag, column)
}
