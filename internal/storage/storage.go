// Package storage defines the Storage interface: the contract any
// database backend must satisfy to serve the users API.
//
// Handlers depend only on this interface. The sqlite and postgres
// packages each return an implementation backed by sqlstore.Store.
package storage

import (
	"context"

	"github.com/aanand-mishra/users-api/internal/types"
)

// Storage is the record store contract.
//
// Absence is not an error: FindByID and Update return a nil *types.User
// when no row has the id, and Delete reports false. Errors are one of
// *types.ConstraintError (duplicate email on Create/Update) or
// *types.StorageError (anything else the engine reported).
type Storage interface {
	// Create inserts a new user and returns it as stored, with id,
	// timestamps and defaults filled in.
	Create(ctx context.Context, in types.CreateUserInput) (types.User, error)

	// FindByID fetches a single user by primary key.
	FindByID(ctx context.Context, id int64) (*types.User, error)

	// FindAll returns the users matching f, newest first, paged by
	// f.Limit and f.Offset. Returns an empty slice (not nil) on no match.
	FindAll(ctx context.Context, f types.Filter) ([]types.User, error)

	// Count returns how many users match f, ignoring pagination.
	Count(ctx context.Context, f types.Filter) (int, error)

	// Update applies the fields set in in and returns the user's new state.
	// An empty update returns the current row without writing.
	Update(ctx context.Context, id int64, in types.UpdateUserInput) (*types.User, error)

	// Delete removes a user and reports whether a row was removed.
	Delete(ctx context.Context, id int64) (bool, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection pool.
	Close() error
}
