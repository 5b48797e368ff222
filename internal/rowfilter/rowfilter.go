// Package rowfilter evaluates boolean expressions against table rows.
// It backs the --where flag of the fetch command: the expression is
// compiled once and evaluated per row with the row's fields bound as
// variables.
package rowfilter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/derpledex/databridge/internal/table"
)

// Common errors for row filters
var (
	// ErrEmptyExpression is returned when the expression is empty or whitespace
	ErrEmptyExpression = errors.New("expression cannot be empty")
	// ErrInvalidExpression is returned when the expression syntax is invalid
	ErrInvalidExpression = errors.New("invalid expression syntax")
)

// EvalError carries context for a per-row evaluation failure.
type EvalError struct {
	Expression string
	RowIndex   int
	Err        error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("expression evaluation failed at row %d: %v", e.RowIndex, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// Filter is a compiled row predicate.
type Filter struct {
	expression string
	program    *vm.Program
}

// New compiles the given expression into a row filter.
// Fields referenced by the expression that are absent from a row
// evaluate as nil rather than failing compilation.
func New(expression string) (*Filter, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, ErrEmptyExpression
	}

	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}

	return &Filter{expression: expression, program: program}, nil
}

// Expression returns the source text of the filter.
func (f *Filter) Expression() string { return f.expression }

// Match evaluates the filter against a single row.
func (f *Filter) Match(row table.Row) (bool, error) {
	output, err := expr.Run(f.program, map[string]interface{}(row))
	if err != nil {
		return false, err
	}
	return toBool(output), nil
}

// Apply returns a new table containing only the rows matching the
// filter. Row order is preserved. An evaluation error aborts the
// filter and is returned as an *EvalError.
func (f *Filter) Apply(tbl *table.Table) (*table.Table, error) {
	out := table.New()
	for i := 0; i < tbl.Len(); i++ {
		row := tbl.Row(i)
		keep, err := f.Match(row)
		if err != nil {
			return nil, &EvalError{Expression: f.expression, RowIndex: i, Err: err}
		}
		if keep {
			out.Append(row)
		}
	}
	return out, nil
}

// toBool converts an expression result to a boolean.
func toBool(value interface{}) bool {
	if value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	default:
		return true
	}
}
