// Package user contains the HTTP handlers for the User resource.
//
// Each exported function is a factory: it receives the storage once at
// route registration and returns the http.HandlerFunc that serves every
// request. Input is normalized by the validation package before storage
// is touched.
//
// REQUEST FLOW SHARED BY EVERY HANDLER:
// ─────────────────────────────────────
//  1. Pull the raw input: {id} from the chi route, the JSON body, or the
//     query string.
//  2. Normalize it with the validation package. A rejection becomes a
//     400 here and storage is never called.
//  3. Call exactly the storage operation the route names.
//  4. Translate the outcome: nil / false from storage is a 404, a
//     *types.ConstraintError a 409, anything else a 500. response.WriteError
//     owns that mapping so every handler answers the same way.
//
// All bodies share one envelope:
//
//	{ "success": true,  "data": ..., "message": "...", "pagination": {...} }
//	{ "success": false, "message": "...", "error": "..." }
package user

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/types"
	"github.com/aanand-mishra/users-api/internal/utils/response"
	"github.com/aanand-mishra/users-api/internal/validation"
	"github.com/go-chi/chi/v5"
)

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/users.
//
// Request body (JSON):
//
//	{ "name": "Rakesh", "email": "rakesh@test.com", "age": 35, "status": "active" }
//
// 201 with the stored user, 400 on invalid input, 409 on a duplicate email.
func New(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a user")

		var payload types.UserPayload
		err := json.NewDecoder(r.Body).Decode(&payload)
		if errors.Is(err, io.EOF) {
			response.WriteError(w, &types.ValidationError{
				Kind: types.InvalidFormat, Field: "body", Message: "request body is empty",
			})
			return
		}
		if err != nil {
			response.WriteError(w, bodyError(err))
			return
		}

		in, err := validation.NormalizeCreate(payload)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		u, err := store.Create(r.Context(), in)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		slog.Info("user created", slog.Int64("id", u.ID))
		response.WriteJSON(w, http.StatusCreated, response.OK(u, "User created successfully"))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /api/users/{id}. A non-integer id is a 400, an
// unknown one a 404.
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "id")
		slog.Info("getting a user", slog.String("id", raw))

		id, err := validation.ParseID(raw)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		u, err := store.FindByID(r.Context(), id)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		if u == nil {
			response.WriteNotFound(w)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.OK(u, ""))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /api/users.
//
// Query parameters: name, email, status, age_min, age_max, limit, offset.
// The response carries the page and { total, limit, offset, hasMore }.
//
// Two queries run: FindAll for the page itself and Count over the same
// criteria with pagination removed. hasMore is offset+limit < total.
//
//	GET /api/users?status=active&limit=2&offset=0
//	→ { "success": true, "data": [ {...}, {...} ],
//	    "pagination": { "total": 7, "limit": 2, "offset": 0, "hasMore": true } }
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := validation.NormalizeFilter(r.URL.Query())
		if err != nil {
			response.WriteError(w, err)
			return
		}

		// The raw query string is never logged: it can carry an e-mail
		// address under a key the redactor does not know. Each criterion
		// goes out under its own attribute name so "email" is masked.
		slog.Info("listing users",
			slog.String("name", f.Name),
			slog.String("email", f.Email),
			slog.String("status", string(f.Status)),
			slog.Int("limit", *f.Limit),
			slog.Int("offset", *f.Offset),
		)

		users, err := store.FindAll(r.Context(), f)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		total, err := store.Count(r.Context(), f.Unpaged())
		if err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK,
			response.Page(users, types.NewPagination(total, *f.Limit, *f.Offset)))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/users/{id}.
//
// Only the fields present in the body are changed. An empty body or one
// with no recognized field returns the user unchanged.
//
//	PUT /api/users/3   { "age": 36 }
//	→ 200 with the whole user, name/email/status as they were
//
// Error responses:
//
//	400  bad id, malformed JSON, or a supplied field out of range
//	404  no user with that id
//	409  the new email belongs to another user
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "id")
		slog.Info("updating a user", slog.String("id", raw))

		id, err := validation.ParseID(raw)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		var payload types.UserPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
			response.WriteError(w, bodyError(err))
			return
		}

		in, err := validation.NormalizeUpdate(payload)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		u, err := store.Update(r.Context(), id, in)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		if u == nil {
			response.WriteNotFound(w)
			return
		}

		slog.Info("user updated", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, response.OK(u, "User updated successfully"))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /api/users/{id}. Deleting the same id twice gives
// 200 then 404.
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "id")
		slog.Info("deleting a user", slog.String("id", raw))

		id, err := validation.ParseID(raw)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		deleted, err := store.Delete(r.Context(), id)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		if !deleted {
			response.WriteNotFound(w)
			return
		}

		slog.Info("user deleted", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, response.OK(nil, "User deleted successfully"))
	}
}

// bodyError turns a JSON decode failure into a validation error.
func bodyError(err error) error {
	return &types.ValidationError{
		Kind:    types.InvalidFormat,
		Field:   "body",
		Message: "invalid request body: " + err.Error(),
	}
}
