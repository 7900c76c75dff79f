package filter

import "github.com/mesh-intelligence/tablecontrols/pkg/types"

// Matches reports whether item satisfies every active category.
func Matches[T any](item T, categories []Category[T], values types.FilterValues) bool {
	for _, c := range categories {
		selected := values[c.Key]
		if len(selected) == 0 || c.GetItemValue == nil {
			continue
		}
		itemValue := c.GetItemValue(item)
		matched := false
		for _, s := range selected {
			if c.matchValue(itemValue, s) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// Apply returns the items that match, in input order. The input is not
// modified.
func Apply[T any](items []T, categories []Category[T], values types.FilterValues) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if Matches(item, categories, values) {
			out = append(out, item)
		}
	}
	return out
}

// ServerFilters converts the active categories into hub filters in
// declaration order. Filters produced by one category for several values
// share the category key as their Group.
func ServerFilters[T any](categories []Category[T], values types.FilterValues) []types.Filter {
	var out []types.Filter
	for _, c := range categories {
		selected := values[c.Key]
		if len(selected) == 0 {
			continue
		}
		var filters []types.Filter
		if c.ToServerExpression != nil {
			filters = c.ToServerExpression(selected)
		} else {
			field, op := c.serverField(), c.serverOperator()
			for _, s := range selected {
				filters = append(filters, types.Filter{Field: field, Operator: op, Value: c.serverValue(s)})
			}
		}
		if len(filters) > 1 {
			for i := range filters {
				if filters[i].Group == "" {
					filters[i].Group = c.Key
				}
			}
		}
		out = append(out, filters...)
	}
	return out
}
