// Package postgres provides a PostgreSQL-backed storage.Storage using the
// pgx driver through its database/sql adapter.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aanand-mishra/users-api/internal/storage/query"
	"github.com/aanand-mishra/users-api/internal/storage/sqlstore"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Schema is run on every startup. Each statement is idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         BIGSERIAL   PRIMARY KEY,
		name       TEXT        NOT NULL,
		email      TEXT        NOT NULL UNIQUE,
		age        INTEGER,
		status     TEXT        NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
	)`,
	`CREATE INDEX IF NOT EXISTS users_created_at_idx ON users (created_at)`,
	`CREATE OR REPLACE FUNCTION users_touch_updated_at() RETURNS trigger AS $$
	BEGIN
		NEW.updated_at = clock_timestamp();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS users_touch_updated_at ON users`,
	`CREATE TRIGGER users_touch_updated_at
	BEFORE UPDATE ON users
	FOR EACH ROW EXECUTE FUNCTION users_touch_updated_at()`,
}

// New connects to the database at dsn, verifies the connection, creates
// the schema if needed and returns a ready store.
func New(ctx context.Context, dsn string) (*sqlstore.Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: open db: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	store, err := sqlstore.New(ctx, db, Options())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres.New: %w", err)
	}
	return store, nil
}

// Options returns the Postgres dialect, schema and error classifier.
func Options() sqlstore.Options {
	return sqlstore.Options{
		Dialect:           query.Postgres,
		Schema:            Schema,
		IsUniqueViolation: IsUniqueViolation,
	}
}

// IsUniqueViolation reports whether err carries SQLSTATE 23505.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
