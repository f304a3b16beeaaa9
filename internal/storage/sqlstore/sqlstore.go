// Package sqlstore implements storage.Storage on top of database/sql.
//
// The engine-specific parts (placeholders, containment, DDL and how a
// unique violation is reported) are supplied by the backend packages
// through Options; everything else is shared.
//
// HOW ERRORS LEAVE THIS PACKAGE:
// ──────────────────────────────
// The handlers never see a driver error. Every failure is translated
// before it is returned:
//
//	unique violation on email   → *types.ConstraintError{DuplicateEmail}
//	anything else from the DB   → *types.StorageError{Op, Err}
//	no row with that id         → nil result, nil error
//
// The third line matters: "not found" is an answer, not a failure, so
// FindByID and Update return (nil, nil) and Delete returns (false, nil).
//
// HOW A WRITE RETURNS THE STORED ROW:
// ───────────────────────────────────
// Create runs INSERT ... RETURNING id, then reads the row back by id.
// The read picks up the values the database filled in itself (the
// timestamps), so the caller gets exactly what a later GET would return.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/storage/query"
	"github.com/aanand-mishra/users-api/internal/types"
)

const table = "users"

// Options configures a Store for one engine.
type Options struct {
	Dialect query.Dialect

	// Schema is run statement by statement when the store is created.
	// Every statement must be idempotent.
	Schema []string

	// IsUniqueViolation reports whether err is the engine's unique
	// constraint failure. email is the only unique column besides id.
	IsUniqueViolation func(err error) bool
}

// Store is a *sql.DB plus the dialect used to talk to it.
// A Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db   *sql.DB
	opts Options
}

var _ storage.Storage = (*Store)(nil)

// New creates the schema on db if needed and returns a ready Store.
// The Store takes ownership of db; Close closes it.
func New(ctx context.Context, db *sql.DB, opts Options) (*Store, error) {
	for _, stmt := range opts.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("sqlstore.New: create schema: %w", err)
		}
	}
	return &Store{db: db, opts: opts}, nil
}

// DB exposes the underlying pool. The application goes through the
// Storage methods only; DB exists so backend tests can issue raw
// statements that bypass validation, such as a row with an illegal status.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &types.StorageError{Op: "Ping", Err: err}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ─────────────────────────────────────────────────────────────────────────────
// rowScanner is satisfied by both *sql.Row and *sql.Rows, so one scan
// function serves single-row lookups and list iteration alike.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser reads one row in query.Columns order.
//
// age is nullable in the table. database/sql cannot scan NULL into an int,
// so it goes through sql.NullInt64 and becomes a *int only when Valid.
func scanUser(row rowScanner) (types.User, error) {
	var (
		u      types.User
		age    sql.NullInt64
		status string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &age, &status, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return types.User{}, err
	}
	if age.Valid {
		a := int(age.Int64)
		u.Age = &a
	}
	u.Status = types.Status(status)
	return u, nil
}

// writeErr translates a failed INSERT or UPDATE into the domain taxonomy.
func (s *Store) writeErr(op, step string, err error) error {
	if s.opts.IsUniqueViolation != nil && s.opts.IsUniqueViolation(err) {
		return &types.ConstraintError{Kind: types.DuplicateEmail}
	}
	return &types.StorageError{Op: op, Err: fmt.Errorf("%s: %w", step, err)}
}

// ─────────────────────────────────────────────────────────────────────────────
// Create inserts a user and re-reads it so storage-side defaults and
// timestamps are returned.
//
// The statement text is fixed; only the bind arguments carry user input:
//
//	INSERT INTO users (name, email, age, status) VALUES (?, ?, ?, ?) RETURNING id
//
// A duplicate email is reported by the engine as a unique violation and
// comes back as *types.ConstraintError. Nothing is written in that case.
func (s *Store) Create(ctx context.Context, in types.CreateUserInput) (types.User, error) {
	status := in.Status
	if status == "" {
		status = types.StatusActive
	}

	d := s.opts.Dialect
	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s, %s, %s, %s) VALUES (%s) RETURNING %s",
		table, query.ColName, query.ColEmail, query.ColAge, query.ColStatus,
		d.Placeholders(4), query.ColID,
	)

	// A nil interface binds as SQL NULL; a nil *int would be handed to the
	// driver as a typed pointer.
	var age any
	if in.Age != nil {
		age = *in.Age
	}

	var id int64
	err := s.db.QueryRowContext(ctx, stmt, in.Name, in.Email, age, string(status)).Scan(&id)
	if err != nil {
		return types.User{}, s.writeErr("Create", "insert", err)
	}

	u, err := s.FindByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	if u == nil {
		return types.User{}, &types.StorageError{Op: "Create", Err: fmt.Errorf("user %d vanished after insert", id)}
	}
	return *u, nil
}

// FindByID returns nil, nil when no user has the id.
func (s *Store) FindByID(ctx context.Context, id int64) (*types.User, error) {
	stmt := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = %s",
		strings.Join(query.Columns, ", "), table, query.ColID, s.opts.Dialect.Placeholder(1),
	)

	u, err := scanUser(s.db.QueryRowContext(ctx, stmt, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &types.StorageError{Op: "FindByID", Err: fmt.Errorf("scan: %w", err)}
	}
	return &u, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// FindAll returns the users matching f, newest first, paged by f.Limit and
// f.Offset. The SQL comes from the query package; see query.Dialect.Select
// for the exact shape.
//
// The result is never nil: no match is an empty slice, which encodes as
// [] rather than null in the JSON response.
func (s *Store) FindAll(ctx context.Context, f types.Filter) ([]types.User, error) {
	stmt, args := s.opts.Dialect.Select(table, f)

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, &types.StorageError{Op: "FindAll", Err: fmt.Errorf("query: %w", err)}
	}
	// rows holds a pooled connection until it is closed.
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, &types.StorageError{Op: "FindAll", Err: fmt.Errorf("scan row: %w", err)}
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.StorageError{Op: "FindAll", Err: fmt.Errorf("rows iteration: %w", err)}
	}
	return users, nil
}

// Count returns how many users match f's criteria. Limit and Offset in f
// do not affect the result.
func (s *Store) Count(ctx context.Context, f types.Filter) (int, error) {
	stmt, args := s.opts.Dialect.Count(table, f)

	var n int
	if err := s.db.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, &types.StorageError{Op: "Count", Err: fmt.Errorf("scan: %w", err)}
	}
	return n, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Update writes only the supplied columns; updated_at is refreshed by the
// schema's trigger.
//
// HOW A PARTIAL UPDATE WORKS:
// ───────────────────────────
//  1. Read the current row. Missing id → (nil, nil).
//  2. No fields supplied → return the row as read. No statement runs, so
//     updated_at does not move.
//  3. Otherwise build "UPDATE users SET <supplied columns> WHERE id = ?"
//     from query.FromUpdate and run it.
//  4. Read the row again and return its new state.
func (s *Store) Update(ctx context.Context, id int64, in types.UpdateUserInput) (*types.User, error) {
	current, err := s.FindByID(ctx, id)
	if err != nil || current == nil {
		return current, err
	}
	if in.IsEmpty() {
		return current, nil
	}

	stmt, args := s.opts.Dialect.Update(table, query.FromUpdate(in), id)
	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, s.writeErr("Update", "exec", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, &types.StorageError{Op: "Update", Err: fmt.Errorf("rows affected: %w", err)}
	}
	if n == 0 {
		// Deleted between the read and the write.
		return nil, nil
	}

	return s.FindByID(ctx, id)
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete removes the user with id. RowsAffected tells "removed" (true)
// apart from "there was nothing to remove" (false).
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", table, query.ColID, s.opts.Dialect.Placeholder(1))

	res, err := s.db.ExecContext(ctx, stmt, id)
	if err != nil {
		return false, &types.StorageError{Op: "Delete", Err: fmt.Errorf("exec: %w", err)}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &types.StorageError{Op: "Delete", Err: fmt.Errorf("rows affected: %w", err)}
	}
	return n > 0, nil
}
