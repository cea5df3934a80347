// Package query builds parameterized SQL fragments from typed predicates.
//
// Column identifiers come only from package-level constants declared by
// callers; user input reaches SQL exclusively through bind arguments. A Where
// is built once and rendered for both the page query and its count query, so
// the two always agree.
package query

import (
	"strings"

	"golang.org/x/text/cases"
)

// FoldFunction is the SQL scalar function expected to apply Fold to a column.
const FoldFunction = "casefold"

// Column is a qualified column identifier such as "p.title".
type Column string

// Predicate is one boolean SQL expression with its bind arguments.
type Predicate struct {
	clause string
	args   []any
}

// Clause returns the SQL text of the predicate.
func (p Predicate) Clause() string { return p.clause }

// Args returns a copy of the bind arguments.
func (p Predicate) Args() []any { return append([]any(nil), p.args...) }

// IsZero reports whether the predicate is empty.
func (p Predicate) IsZero() bool { return p.clause == "" }

// Eq matches col = value.
func Eq(col Column, value any) Predicate {
	return Predicate{clause: string(col) + " = ?", args: []any{value}}
}

// IsNull matches rows where col is NULL.
func IsNull(col Column) Predicate {
	return Predicate{clause: string(col) + " IS NULL"}
}

// IsFalse matches rows where an integer flag column is 0.
func IsFalse(col Column) Predicate {
	return Predicate{clause: string(col) + " = 0"}
}

// FoldEq matches col case-insensitively against value.
func FoldEq(col Column, value string) Predicate {
	return Predicate{
		clause: FoldFunction + "(" + string(col) + ") = ?",
		args:   []any{Fold(value)},
	}
}

// FoldContains matches rows whose col contains term, ignoring case.
func FoldContains(col Column, term string) Predicate {
	return Predicate{
		clause: "instr(" + FoldFunction + "(" + string(col) + "), ?) > 0",
		args:   []any{Fold(term)},
	}
}

// Or joins predicates with OR. Zero predicates are skipped.
func Or(preds ...Predicate) Predicate {
	return join(" OR ", preds)
}

// And joins predicates with AND. Zero predicates are skipped.
func And(preds ...Predicate) Predicate {
	return join(" AND ", preds)
}

func join(sep string, preds []Predicate) Predicate {
	clauses := make([]string, 0, len(preds))
	var args []any
	for _, p := range preds {
		if p.IsZero() {
			continue
		}
		clauses = append(clauses, p.clause)
		args = append(args, p.args...)
	}
	switch len(clauses) {
	case 0:
		return Predicate{}
	case 1:
		return Predicate{clause: clauses[0], args: args}
	default:
		return Predicate{clause: "(" + strings.Join(clauses, sep) + ")", args: args}
	}
}

// Where is an immutable conjunction of predicates.
type Where struct {
	preds []Predicate
}

// And returns a new Where with preds appended. Zero predicates are skipped.
func (w Where) And(preds ...Predicate) Where {
	next := make([]Predicate, 0, len(w.preds)+len(preds))
	next = append(next, w.preds...)
	for _, p := range preds {
		if !p.IsZero() {
			next = append(next, p)
		}
	}
	return Where{preds: next}
}

// Len reports the number of predicates.
func (w Where) Len() int { return len(w.preds) }

// SQL renders " WHERE a AND b" (leading space) or "" when empty.
func (w Where) SQL() (string, []any) {
	if len(w.preds) == 0 {
		return "", nil
	}
	clauses := make([]string, 0, len(w.preds))
	var args []any
	for _, p := range w.preds {
		clauses = append(clauses, p.clause)
		args = append(args, p.args...)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Direction is a sort direction.
type Direction bool

const (
	Asc  Direction = false
	Desc Direction = true
)

func (d Direction) sql() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// OrderTerm sorts by one column.
type OrderTerm struct {
	Column    Column
	Direction Direction
}

// Order is an ordered list of sort terms.
type Order []OrderTerm

// OrderBy returns a single-term order.
func OrderBy(col Column, dir Direction) Order {
	return Order{{Column: col, Direction: dir}}
}

// Then appends a tie-breaking term.
func (o Order) Then(col Column, dir Direction) Order {
	next := make(Order, 0, len(o)+1)
	next = append(next, o...)
	return append(next, OrderTerm{Column: col, Direction: dir})
}

// SQL renders " ORDER BY a DESC, b DESC" or "".
func (o Order) SQL() string {
	if len(o) == 0 {
		return ""
	}
	parts := make([]string, 0, len(o))
	for _, term := range o {
		parts = append(parts, string(term.Column)+" "+term.Direction.sql())
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// Limit renders " LIMIT ? OFFSET ?" with its arguments.
func Limit(limit, offset int) (string, []any) {
	if offset < 0 {
		offset = 0
	}
	return " LIMIT ? OFFSET ?", []any{limit, offset}
}

// Fold returns the Unicode case-folded form of s used for case-insensitive
// comparisons on both sides of a predicate.
func Fold(s string) string {
	return cases.Fold().String(s)
}
