package query_test

import (
	"strings"
	"testing"

	"github.com/aanand-mishra/users-api/internal/storage/query"
	"github.com/aanand-mishra/users-api/internal/types"
	"github.com/stretchr/testify/assert"
)

func intp(n int) *int { return &n }

const selectCols = "SELECT id, name, email, age, status, created_at, updated_at FROM users"

func TestFromFilter_FixedOrder(t *testing.T) {
	f := types.Filter{
		AgeMax: intp(65),
		AgeMin: intp(18),
		Status: types.StatusActive,
		Email:  "@example.com",
		Name:   "ann",
		Limit:  intp(10),
		Offset: intp(0),
	}

	got := query.FromFilter(f)

	assert.Equal(t, []query.Predicate{
		{Field: "name", Op: query.Contains, Value: "ann"},
		{Field: "email", Op: query.Contains, Value: "@example.com"},
		{Field: "status", Op: query.Eq, Value: "active"},
		{Field: "age", Op: query.Gte, Value: 18},
		{Field: "age", Op: query.Lte, Value: 65},
	}, got)
}

func TestFromFilter_EmptyFilterHasNoPredicates(t *testing.T) {
	assert.Empty(t, query.FromFilter(types.Filter{}))
}

func TestFromFilter_ZeroAgeIsAConstraint(t *testing.T) {
	got := query.FromFilter(types.Filter{AgeMin: intp(0)})
	assert.Equal(t, []query.Predicate{{Field: "age", Op: query.Gte, Value: 0}}, got)
}

func TestSelect_SQLite(t *testing.T) {
	tests := []struct {
		name     string
		filter   types.Filter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "no criteria",
			filter:  types.Filter{},
			wantSQL: selectCols + " ORDER BY created_at DESC, id DESC",
		},
		{
			name:   "all criteria with page",
			filter: types.Filter{Name: "a", Email: "b", Status: types.StatusInactive, AgeMin: intp(1), AgeMax: intp(2), Limit: intp(10), Offset: intp(20)},
			wantSQL: selectCols +
				" WHERE instr(name, ?) > 0 AND instr(email, ?) > 0 AND status = ? AND age >= ? AND age <= ?" +
				" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
			wantArgs: []any{"a", "b", "inactive", 1, 2, 10, 20},
		},
		{
			name:     "limit only",
			filter:   types.Filter{Limit: intp(5)},
			wantSQL:  selectCols + " ORDER BY created_at DESC, id DESC LIMIT ?",
			wantArgs: []any{5},
		},
		{
			name:     "offset without limit",
			filter:   types.Filter{Offset: intp(3)},
			wantSQL:  selectCols + " ORDER BY created_at DESC, id DESC LIMIT -1 OFFSET ?",
			wantArgs: []any{3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := query.SQLite.Select("users", tt.filter)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestSelect_PostgresNumbersPlaceholders(t *testing.T) {
	f := types.Filter{Name: "a", Status: types.StatusActive, AgeMax: intp(65), Limit: intp(10), Offset: intp(0)}

	sql, args := query.Postgres.Select("users", f)

	assert.Equal(t, selectCols+
		" WHERE strpos(name, $1) > 0 AND status = $2 AND age <= $3"+
		" ORDER BY created_at DESC, id DESC LIMIT $4 OFFSET $5", sql)
	assert.Equal(t, []any{"a", "active", 65, 10, 0}, args)
}

func TestSelect_PostgresOffsetWithoutLimit(t *testing.T) {
	sql, args := query.Postgres.Select("users", types.Filter{Offset: intp(7)})

	assert.True(t, strings.HasSuffix(sql, "ORDER BY created_at DESC, id DESC OFFSET $1"), sql)
	assert.Equal(t, []any{7}, args)
}

func TestCount_SharesPredicatesAndIgnoresPage(t *testing.T) {
	f := types.Filter{Email: "x", AgeMin: intp(18), Limit: intp(10), Offset: intp(30)}

	countSQL, countArgs := query.SQLite.Count("users", f)
	selectSQL, selectArgs := query.SQLite.Select("users", f)

	assert.Equal(t, "SELECT COUNT(*) FROM users WHERE instr(email, ?) > 0 AND age >= ?", countSQL)
	assert.Equal(t, []any{"x", 18}, countArgs)

	where, _ := query.SQLite.Where(query.FromFilter(f))
	assert.Contains(t, selectSQL, where)
	assert.Equal(t, countArgs, selectArgs[:len(countArgs)])
}

func TestWhere_ValuesNeverInlined(t *testing.T) {
	hostile := "'; DROP TABLE users; --"

	sql, args := query.SQLite.Where(query.FromFilter(types.Filter{Name: hostile, Email: "%_"}))

	assert.NotContains(t, sql, "DROP")
	assert.NotContains(t, sql, "%")
	assert.Equal(t, []any{hostile, "%_"}, args)
}

func TestWhere_Empty(t *testing.T) {
	sql, args := query.Postgres.Where(nil)
	assert.Empty(t, sql)
	assert.Empty(t, args)
}

func TestUpdate_OnlySuppliedColumns(t *testing.T) {
	age := 40
	status := types.StatusInactive
	in := types.UpdateUserInput{Age: &age, Status: &status}

	sql, args := query.Postgres.Update("users", query.FromUpdate(in), 9)

	assert.Equal(t, "UPDATE users SET age = $1, status = $2 WHERE id = $3", sql)
	assert.Equal(t, []any{40, "inactive", int64(9)}, args)
}

func TestFromUpdate_Empty(t *testing.T) {
	assert.Empty(t, query.FromUpdate(types.UpdateUserInput{}))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?, ?, ?", query.SQLite.Placeholders(3))
	assert.Equal(t, "$1, $2", query.Postgres.Placeholders(2))
}

func TestOpString(t *testing.T) {
	assert.Equal(t, ">=", query.Gte.String())
	assert.Equal(t, "contains", query.Contains.String())
	assert.Equal(t, "Op(42)", query.Op(42).String())
}
