// Package query compiles list filters into parameterized SQL.
//
// A types.Filter is first reduced to a slice of typed Predicate values,
// one per criterion that is set, in a fixed field order. A Dialect then
// compiles those predicates into a WHERE clause plus its argument list.
// Values only ever travel as bind arguments; the generated SQL text is
// built from column names and operators known at compile time.
//
// HOW A FILTER BECOMES SQL:
// ─────────────────────────
// For GET /api/users?name=an&status=active&age_min=18&limit=5 the steps are:
//
//	FromFilter →  [{name contains "an"} {status = "active"} {age >= 18}]
//	Select     →  SELECT id, name, ... FROM users
//	              WHERE instr(name, ?) > 0 AND status = ? AND age >= ?
//	              ORDER BY created_at DESC, id DESC LIMIT ?
//	args       →  ["an", "active", 18, 5]
//
// The Postgres dialect produces the same statement with $1..$4 markers and
// strpos() in place of instr(). Count reuses the same predicates, so the
// total always describes the same set the page was cut from.
//
// Containment uses instr/strpos rather than LIKE: the match is
// case-sensitive and "%" or "_" in the input are ordinary characters.
package query

import (
	"fmt"
	"strings"

	"github.com/aanand-mishra/users-api/internal/types"
)

// Op is a comparison operator understood by every Dialect.
type Op int

const (
	Eq Op = iota
	Contains
	Gte
	Lte
)

func (o Op) String() string {
	switch o {
	case Eq:
		return "="
	case Contains:
		return "contains"
	case Gte:
		return ">="
	case Lte:
		return "<="
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Column names of the users table.
const (
	ColID        = "id"
	ColName      = "name"
	ColEmail     = "email"
	ColAge       = "age"
	ColStatus    = "status"
	ColCreatedAt = "created_at"
	ColUpdatedAt = "updated_at"
)

// Columns is the fixed select list, in scan order.
var Columns = []string{ColID, ColName, ColEmail, ColAge, ColStatus, ColCreatedAt, ColUpdatedAt}

// Predicate is a single "field op value" condition.
type Predicate struct {
	Field string
	Op    Op
	Value any
}

// FromFilter returns one predicate per set criterion of f, ordered name,
// email, status, age_min, age_max. Pagination is not a predicate.
func FromFilter(f types.Filter) []Predicate {
	var preds []Predicate
	if f.Name != "" {
		preds = append(preds, Predicate{Field: ColName, Op: Contains, Value: f.Name})
	}
	if f.Email != "" {
		preds = append(preds, Predicate{Field: ColEmail, Op: Contains, Value: f.Email})
	}
	if f.Status != "" {
		preds = append(preds, Predicate{Field: ColStatus, Op: Eq, Value: string(f.Status)})
	}
	if f.AgeMin != nil {
		preds = append(preds, Predicate{Field: ColAge, Op: Gte, Value: *f.AgeMin})
	}
	if f.AgeMax != nil {
		preds = append(preds, Predicate{Field: ColAge, Op: Lte, Value: *f.AgeMax})
	}
	return preds
}

// Assignment is one "column = value" pair of an UPDATE statement.
type Assignment struct {
	Column string
	Value  any
}

// FromUpdate returns one assignment per supplied field of in, ordered
// name, email, age, status.
func FromUpdate(in types.UpdateUserInput) []Assignment {
	var set []Assignment
	if in.Name != nil {
		set = append(set, Assignment{Column: ColName, Value: *in.Name})
	}
	if in.Email != nil {
		set = append(set, Assignment{Column: ColEmail, Value: *in.Email})
	}
	if in.Age != nil {
		set = append(set, Assignment{Column: ColAge, Value: *in.Age})
	}
	if in.Status != nil {
		set = append(set, Assignment{Column: ColStatus, Value: string(*in.Status)})
	}
	return set
}

// Dialect holds the engine-specific parts of statement compilation.
type Dialect struct {
	Name string

	// Placeholder returns the bind marker for the n-th argument (1-based).
	Placeholder func(n int) string

	// Contains renders a case-sensitive substring test of col against the
	// bind marker ph.
	Contains func(col, ph string) string

	// OffsetWithoutLimit is the LIMIT clause to emit when only an offset is
	// set, for engines that cannot take OFFSET alone. Empty if not needed.
	OffsetWithoutLimit string
}

// ─────────────────────────────────────────────────────────────────────────────
// builder accumulates SQL text and bind arguments for one statement.
// bind appends a value and returns its marker, so marker numbering always
// matches argument position, which "$n" dialects depend on.
type builder struct {
	d    Dialect
	sb   strings.Builder
	args []any
}

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.d.Placeholder(len(b.args))
}

func (b *builder) where(preds []Predicate) {
	for i, p := range preds {
		if i == 0 {
			b.sb.WriteString(" WHERE ")
		} else {
			b.sb.WriteString(" AND ")
		}
		ph := b.bind(p.Value)
		switch p.Op {
		case Contains:
			b.sb.WriteString(b.d.Contains(p.Field, ph))
		default:
			fmt.Fprintf(&b.sb, "%s %s %s", p.Field, p.Op, ph)
		}
	}
}

// Where compiles preds into a WHERE clause (with a leading space) and its
// arguments. No predicates compile to an empty clause.
func (d Dialect) Where(preds []Predicate) (string, []any) {
	b := &builder{d: d}
	b.where(preds)
	return b.sb.String(), b.args
}

// ─────────────────────────────────────────────────────────────────────────────
// Select compiles the list query for f: every column, the filter's
// predicates, newest first, then LIMIT and OFFSET when set.
//
// id DESC breaks ties between rows created in the same instant, so a page
// boundary never falls between two equal timestamps in different orders.
//
// An offset without a limit is honored. SQLite grammar requires a LIMIT
// before OFFSET, so its dialect emits "LIMIT -1" (no limit) first.
func (d Dialect) Select(table string, f types.Filter) (string, []any) {
	b := &builder{d: d}
	fmt.Fprintf(&b.sb, "SELECT %s FROM %s", strings.Join(Columns, ", "), table)
	b.where(FromFilter(f))
	fmt.Fprintf(&b.sb, " ORDER BY %s DESC, %s DESC", ColCreatedAt, ColID)

	switch {
	case f.Limit != nil:
		b.sb.WriteString(" LIMIT " + b.bind(*f.Limit))
	case f.Offset != nil && d.OffsetWithoutLimit != "":
		b.sb.WriteString(" " + d.OffsetWithoutLimit)
	}
	if f.Offset != nil {
		b.sb.WriteString(" OFFSET " + b.bind(*f.Offset))
	}
	return b.sb.String(), b.args
}

// Count compiles the total-count query for f. It shares predicate
// compilation with Select and ignores pagination.
func (d Dialect) Count(table string, f types.Filter) (string, []any) {
	where, args := d.Where(FromFilter(f))
	return "SELECT COUNT(*) FROM " + table + where, args
}

// Update compiles "UPDATE table SET ... WHERE id = ?" for a non-empty set
// of assignments.
func (d Dialect) Update(table string, set []Assignment, id int64) (string, []any) {
	b := &builder{d: d}
	fmt.Fprintf(&b.sb, "UPDATE %s SET ", table)
	for i, a := range set {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		fmt.Fprintf(&b.sb, "%s = %s", a.Column, b.bind(a.Value))
	}
	fmt.Fprintf(&b.sb, " WHERE %s = %s", ColID, b.bind(id))
	return b.sb.String(), b.args
}

// Placeholders returns n bind markers separated by commas, starting at
// argument 1.
func (d Dialect) Placeholders(n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = d.Placeholder(i + 1)
	}
	return strings.Join(marks, ", ")
}

// SQLite uses "?" markers and instr() for containment.
var SQLite = Dialect{
	Name:        "sqlite",
	Placeholder: func(int) string { return "?" },
	Contains: func(col, ph string) string {
		return fmt.Sprintf("instr(%s, %s) > 0", col, ph)
	},
	OffsetWithoutLimit: "LIMIT -1",
}

// Postgres uses "$n" markers and strpos() for containment.
var Postgres = Dialect{
	Name:        "postgres",
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	Contains: func(col, ph string) string {
		return fmt.Sprintf("strpos(%s, %s) > 0", col, ph)
	},
}
