package types

import (
	"fmt"
	"slices"
)

// FilterKind selects how a filter category matches item values.
type FilterKind string

// Filter kinds.
const (
	FilterSearch   FilterKind = "search"
	FilterSelect   FilterKind = "select"
	FilterCheckbox FilterKind = "checkbox"
)

// Validate returns ErrUnknownFilterKind for anything outside the declared kinds.
func (k FilterKind) Validate() error {
	switch k {
	case FilterSearch, FilterSelect, FilterCheckbox:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFilterKind, string(k))
	}
}

// FilterValues maps a filter category key to its selected values, in
// selection order. A missing or empty slice means the category is inactive.
type FilterValues map[string][]string

// Clone returns a deep copy with empty categories dropped.
func (v FilterValues) Clone() FilterValues {
	out := make(FilterValues, len(v))
	for key, values := range v {
		if len(values) == 0 {
			continue
		}
		out[key] = slices.Clone(values)
	}
	return out
}

// Active reports whether any category has at least one selected value.
func (v FilterValues) Active() bool {
	for _, values := range v {
		if len(values) > 0 {
			return true
		}
	}
	return false
}

// Equal reports whether both maps hold the same active categories with the
// same values in the same order.
func (v FilterValues) Equal(other FilterValues) bool {
	a, b := v.Clone(), other.Clone()
	if len(a) != len(b) {
		return false
	}
	for key, values := range a {
		if !slices.Equal(values, b[key]) {
			return false
		}
	}
	return true
}

// Operator is a hub filter operator. The set is closed; Validate rejects
// anything else so typos surface when a table is declared.
type Operator string

// Hub filter operators.
const (
	OpEqual        Operator = "="
	OpNotEqual     Operator = "!="
	OpLike         Operator = "like"
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
)

// operatorSymbols maps each operator to its hub query-string symbol.
var operatorSymbols = map[Operator]string{
	OpEqual:        "=",
	OpNotEqual:     "!=",
	OpLike:         "~",
	OpGreater:      ">",
	OpGreaterEqual: ">=",
	OpLess:         "<",
	OpLessEqual:    "<=",
}

// Validate returns ErrUnknownOperator when o is not a supported operator.
func (o Operator) Validate() error {
	if _, ok := operatorSymbols[o]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownOperator, string(o))
	}
	return nil
}

// Symbol returns the hub wire symbol for o, or the operator text itself when
// it is not a known operator.
func (o Operator) Symbol() string {
	if sym, ok := operatorSymbols[o]; ok {
		return sym
	}
	return string(o)
}

// Filter is one server-side filter expression. Filters that share a
// non-empty Group are alternatives (ORed); everything else is ANDed.
type Filter struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
	Group    string   `json:"-"`
}
