// Package router wires the HTTP routes onto a chi router.
//
// Route table:
//
//	GET    /healthz          → storage ping
//	GET    /api/users        → list users (filters + pagination)
//	POST   /api/users        → create a user
//	GET    /api/users/{id}   → get one user
//	PUT    /api/users/{id}   → partially update a user
//	DELETE /api/users/{id}   → delete a user
//
// Every response, including unknown routes, wrong methods and recovered
// panics, uses the JSON envelope from the response package.
package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/aanand-mishra/users-api/internal/http/handlers/user"
	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/utils/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// New returns the application's http.Handler backed by store.
func New(store storage.Storage) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(recoverer)

	r.Get("/healthz", health(store))

	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", user.GetList(store))
		r.Post("/", user.New(store))
		r.Get("/{id}", user.GetByID(store))
		r.Put("/{id}", user.Update(store))
		r.Delete("/{id}", user.Delete(store))
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.WriteJSON(w, http.StatusNotFound, response.Fail("Route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.WriteJSON(w, http.StatusMethodNotAllowed, response.Fail("Method not allowed"))
	})
	return r
}

// recoverer turns a panic in a downstream handler into a logged 500 with
// the JSON envelope. If the handler already wrote its status line only
// the log entry is emitted. http.ErrAbortHandler is re-raised so net/http
// can abort the connection as it expects.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}

			slog.Error("panic recovered",
				slog.String("panic", fmt.Sprint(v)),
				slog.String("stack", string(debug.Stack())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
			if ww.Status() == 0 {
				response.WriteJSON(ww, http.StatusInternalServerError, response.Fail("Internal server error"))
			}
		}()

		next.ServeHTTP(ww, r)
	})
}

func health(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			response.WriteJSON(w, http.StatusServiceUnavailable, response.Fail("storage unavailable"))
			return
		}
		response.WriteJSON(w, http.StatusOK, response.OK(map[string]string{"status": "ok"}, ""))
	}
}
