package filter

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Expression is a compiled boolean expression evaluated against one item,
// for example `status == "open" && priority > 2`. Items are usually
// map[string]any records or structs with exported fields.
type Expression struct {
	source  string
	program *vm.Program
}

// Compile parses source and checks that it yields a boolean.
func Compile(source string) (*Expression, error) {
	program, err := expr.Compile(source, expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter expression: %w", err)
	}
	return &Expression{source: source, program: program}, nil
}

// String returns the expression source.
func (e *Expression) String() string {
	return e.source
}

// Match evaluates the expression with item as its environment. Evaluation
// errors, such as a missing field, count as no match.
func (e *Expression) Match(item any) bool {
	out, err := expr.Run(e.program, item)
	if err != nil {
		return false
	}
	matched, _ := out.(bool)
	return matched
}

// Predicate adapts e to a typed item predicate.
func Predicate[T any](e *Expression) func(T) bool {
	return func(item T) bool {
		return e.Match(item)
	}
}
