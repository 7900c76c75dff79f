// Package filter decides which items a table shows. In client mode it
// matches items against the selected values of each filter category; in
// server mode it turns the same selections into hub filter expressions.
//
// Categories are ANDed with each other and a category's selected values are
// ORed. A category with no selected values adds no constraint, and selections
// for keys that no longer have a declared category are ignored so that state
// persisted by an older release never breaks a table.
package filter

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/tablecontrols/pkg/types"
)

// Option is one choice offered by a select or checkbox category.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// Category is one independently toggleable filtering dimension.
type Category[T any] struct {
	Key         string
	Title       string
	Kind        types.FilterKind
	Placeholder string
	Options     []Option

	// GetItemValue extracts the value matched in client mode. A category
	// without it constrains nothing client side.
	GetItemValue func(T) string

	// ServerField is the hub field name. Defaults to Key.
	ServerField string
	// Operator defaults to like for search and = otherwise.
	Operator types.Operator
	// ServerValue rewrites one selected value for the hub. Defaults to
	// "*v*" for search and the value itself otherwise.
	ServerValue func(string) string
	// ToServerExpression replaces the default conversion entirely.
	ToServerExpression func(values []string) []types.Filter
}

// ValidateCategories checks keys, kinds and operators once, when a table is
// declared.
func ValidateCategories[T any](categories []Category[T]) error {
	seen := make(map[string]bool, len(categories))
	for _, c := range categories {
		if c.Key == "" || strings.Contains(c.Key, ":") {
			return fmt.Errorf("%w: %q", types.ErrInvalidCategoryKey, c.Key)
		}
		if seen[c.Key] {
			return fmt.Errorf("%w: %q", types.ErrDuplicateCategory, c.Key)
		}
		seen[c.Key] = true
		if err := c.Kind.Validate(); err != nil {
			return fmt.Errorf("category %q: %w", c.Key, err)
		}
		if c.Operator != "" {
			if err := c.Operator.Validate(); err != nil {
				return fmt.Errorf("category %q: %w", c.Key, err)
			}
		}
	}
	return nil
}

// Keys returns the category keys in declaration order.
func Keys[T any](categories []Category[T]) []string {
	keys := make([]string, len(categories))
	for i, c := range categories {
		keys[i] = c.Key
	}
	return keys
}

// matchValue applies the category's predicate to one selected value.
func (c Category[T]) matchValue(itemValue, selected string) bool {
	if c.Kind == types.FilterSearch {
		return strings.Contains(strings.ToLower(itemValue), strings.ToLower(selected))
	}
	return itemValue == selected
}

func (c Category[T]) serverField() string {
	if c.ServerField != "" {
		return c.ServerField
	}
	return c.Key
}

func (c Category[T]) serverOperator() types.Operator {
	if c.Operator != "" {
		return c.Operator
	}
	if c.Kind == types.FilterSearch {
		return types.OpLike
	}
	return types.OpEqual
}

func (c Category[T]) serverValue(v string) string {
	if c.ServerValue != nil {
		return c.ServerValue(v)
	}
	if c.Kind == types.FilterSearch {
		return "*" + v + "*"
	}
	return v
}
