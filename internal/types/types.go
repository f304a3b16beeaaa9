// Package types holds all shared data structures (models) used across
// the application. Handlers, validation, and storage all import types
// without depending on each other.
package types

import "time"

// Status is the lifecycle state of a user. It is always one of the
// enumerated values below, never empty once persisted.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// User represents a row of the users table.
//
// Age is a pointer because the column is nullable: nil means "no age on
// record", which is different from an age of 0.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       *int      `json:"age"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserPayload is the raw, untrusted body of a create or update request.
// Every field is a pointer so "absent" (or JSON null) can be told apart
// from a zero value. Unknown JSON keys are ignored by the decoder.
type UserPayload struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Age    *int    `json:"age"`
	Status *string `json:"status"`
}

// CreateUserInput is a normalized creation request. Only the validation
// package should construct one from external input.
type CreateUserInput struct {
	Name   string `validate:"required"`
	Email  string `validate:"required,simple_email"`
	Age    *int   `validate:"omitnil,gte=0,lte=150"`
	Status Status `validate:"oneof=active inactive"`
}

// UpdateUserInput is a normalized partial update. Nil fields are left
// untouched by the store.
type UpdateUserInput struct {
	Name   *string `validate:"omitnil,min=1"`
	Email  *string `validate:"omitnil,min=1,simple_email"`
	Age    *int    `validate:"omitnil,gte=0,lte=150"`
	Status *Status `validate:"omitnil,oneof=active inactive"`
}

// IsEmpty reports whether the update carries no fields at all.
func (in UpdateUserInput) IsEmpty() bool {
	return in.Name == nil && in.Email == nil && in.Age == nil && in.Status == nil
}

// Filter describes a list query. Zero values and nil pointers mean the
// criterion is not applied; an all-zero Filter matches every user.
//
// Name and Email are case-sensitive substring matches, Status is an exact
// match, and AgeMin/AgeMax are inclusive bounds.
type Filter struct {
	Name   string
	Email  string
	Status Status
	AgeMin *int
	AgeMax *int

	// Limit and Offset bound the page. Nil means unbounded / start at 0.
	Limit  *int
	Offset *int
}

// Unpaged returns a copy of f with pagination removed.
func (f Filter) Unpaged() Filter {
	f.Limit = nil
	f.Offset = nil
	return f
}

// Pagination is the page metadata sent alongside a list response.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// NewPagination computes page metadata for a page of size limit starting
// at offset inside a result set of total entries.
func NewPagination(total, limit, offset int) Pagination {
	return Pagination{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	}
}
