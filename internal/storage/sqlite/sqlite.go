// Package sqlite provides a SQLite-backed storage.Storage.
//
// HOW THE DRIVER GETS REGISTERED:
// ───────────────────────────────
// Importing github.com/mattn/go-sqlite3 runs its init(), which registers
// the "sqlite3" driver with database/sql. The import is named rather than
// blank because IsUniqueViolation inspects the driver's sqlite3.Error.
//
// IN-MEMORY DATABASES:
// ────────────────────
// Every connection SQLite opens on ":memory:" gets its own private
// database. database/sql keeps a pool of connections, so a pooled
// in-memory store would create the schema on one connection and find no
// table on the next. New caps the pool at one connection for such paths.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aanand-mishra/users-api/internal/storage/query"
	"github.com/aanand-mishra/users-api/internal/storage/sqlstore"
	"github.com/mattn/go-sqlite3"
)

// timestamp is the storage-side clock, with millisecond precision so
// rows inserted within the same second still order by creation time.
const timestamp = `strftime('%Y-%m-%d %H:%M:%f', 'now')`

// Schema is run on every startup. Each statement is idempotent.
//
//	id          integer primary key, assigned by SQLite
//	email       unique across all rows
//	age         nullable
//	status      constrained to the two enumerated values
//	updated_at  refreshed by the trigger after every UPDATE
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         INTEGER  PRIMARY KEY AUTOINCREMENT,
		name       TEXT     NOT NULL,
		email      TEXT     NOT NULL UNIQUE,
		age        INTEGER,
		status     TEXT     NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive')),
		created_at DATETIME NOT NULL DEFAULT (` + timestamp + `),
		updated_at DATETIME NOT NULL DEFAULT (` + timestamp + `)
	)`,
	`CREATE INDEX IF NOT EXISTS users_created_at_idx ON users (created_at)`,
	`CREATE TRIGGER IF NOT EXISTS users_touch_updated_at
	AFTER UPDATE ON users
	FOR EACH ROW
	BEGIN
		UPDATE users SET updated_at = ` + timestamp + ` WHERE id = NEW.id;
	END`,
}

// New opens the SQLite database at path, creates the users table if it
// does not already exist, and returns a ready store. busyTimeout bounds how
// long a statement waits on a database locked by another writer.
func New(ctx context.Context, path string, busyTimeout time.Duration) (*sqlstore.Store, error) {
	db, err := sql.Open("sqlite3", dsn(path, busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}
	if isMemory(path) {
		// One connection means one database; callers queue on the pool.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	}

	store, err := sqlstore.New(ctx, db, Options())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: %w", err)
	}
	return store, nil
}

// Options returns the SQLite dialect, schema and error classifier.
func Options() sqlstore.Options {
	return sqlstore.Options{
		Dialect:           query.SQLite,
		Schema:            Schema,
		IsUniqueViolation: IsUniqueViolation,
	}
}

// IsUniqueViolation reports whether err is SQLITE_CONSTRAINT_UNIQUE.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// dsn appends driver parameters to path, keeping any the caller set.
// WAL lets readers proceed while a writer holds the lock.
func dsn(path string, busyTimeout time.Duration) string {
	var params []string
	if busyTimeout > 0 && !strings.Contains(path, "_busy_timeout") {
		params = append(params, fmt.Sprintf("_busy_timeout=%d", busyTimeout.Milliseconds()))
	}
	if !isMemory(path) && !strings.Contains(path, "_journal_mode") {
		params = append(params, "_journal_mode=WAL")
	}
	if len(params) == 0 {
		return path
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

// isMemory reports whether path names an in-memory database, either the
// bare ":memory:" name or a URI carrying mode=memory.
func isMemory(path string) bool {
	return path == ":memory:" ||
		strings.HasPrefix(path, "file::memory:") ||
		strings.Contains(path, "mode=memory")
}
