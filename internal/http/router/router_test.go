package router_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aanand-mishra/users-api/internal/http/router"
	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/storage/sqlite"
	"github.com/aanand-mishra/users-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success    bool              `json:"success"`
	Data       json.RawMessage   `json:"data"`
	Message    string            `json:"message"`
	Error      string            `json:"error"`
	Pagination *types.Pagination `json:"pagination"`
}

func newServer(t *testing.T) http.Handler {
	t.Helper()
	store, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "users.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return router.New(store)
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	return w, env
}

func createUser(t *testing.T, h http.Handler, body string) types.User {
	t.Helper()
	w, env := do(t, h, http.MethodPost, "/api/users", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var u types.User
	require.NoError(t, json.Unmarshal(env.Data, &u))
	return u
}

func TestCreateAndGet(t *testing.T) {
	h := newServer(t)

	u := createUser(t, h, `{"name":"Rakesh","email":"rakesh@test.com","age":35}`)
	assert.Equal(t, "Rakesh", u.Name)
	assert.Equal(t, types.StatusActive, u.Status)

	w, env := do(t, h, http.MethodGet, "/api/users/"+itoa(u.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	var got types.User
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, 35, *got.Age)
}

func TestCreate_Errors(t *testing.T) {
	h := newServer(t)
	createUser(t, h, `{"name":"Ann","email":"ann@example.com"}`)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"empty body", "", http.StatusBadRequest, "request body is empty"},
		{"malformed json", `{"name":`, http.StatusBadRequest, "invalid request body"},
		{"wrong type", `{"name":"A","email":"a@b.co","age":"old"}`, http.StatusBadRequest, "invalid request body"},
		{"missing name", `{"email":"x@y.co"}`, http.StatusBadRequest, "field name is required"},
		{"bad email", `{"name":"X","email":"not-an-email"}`, http.StatusBadRequest, "invalid email format"},
		{"age out of range", `{"name":"X","email":"x@y.co","age":200}`, http.StatusBadRequest, "age must be between 0 and 150"},
		{"duplicate email", `{"name":"Other","email":"ann@example.com"}`, http.StatusConflict, "Email already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, h, http.MethodPost, "/api/users", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.False(t, env.Success)
			assert.Contains(t, env.Message, tt.wantMsg)
		})
	}

	_, env := do(t, h, http.MethodGet, "/api/users", "")
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.Total, "rejected creates persist nothing")
}

func TestGet_Errors(t *testing.T) {
	h := newServer(t)

	w, env := do(t, h, http.MethodGet, "/api/users/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid user ID", env.Message)

	w, env = do(t, h, http.MethodGet, "/api/users/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", env.Message)
}

func TestList_FiltersAndPagination(t *testing.T) {
	h := newServer(t)
	createUser(t, h, `{"name":"Teen","email":"teen@example.com","age":15}`)
	createUser(t, h, `{"name":"Adult","email":"adult@example.com","age":30}`)
	createUser(t, h, `{"name":"Retired","email":"retired@example.com","age":70,"status":"inactive"}`)
	newest := createUser(t, h, `{"name":"Worker","email":"worker@example.com","age":45}`)

	w, env := do(t, h, http.MethodGet, "/api/users?status=active&age_min=18&age_max=65&limit=1&offset=0", "")
	require.Equal(t, http.StatusOK, w.Code)

	var page []types.User
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page, 1)
	assert.Equal(t, newest.ID, page[0].ID)
	assert.Equal(t, types.Pagination{Total: 2, Limit: 1, Offset: 0, HasMore: true}, *env.Pagination)

	_, env = do(t, h, http.MethodGet, "/api/users?limit=oops&age_min=x", "")
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page, 4)
	assert.Equal(t, types.Pagination{Total: 4, Limit: 10, Offset: 0, HasMore: false}, *env.Pagination)

	w, _ = do(t, h, http.MethodGet, "/api/users?status=unknown", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestList_EmptyIsArray(t *testing.T) {
	h := newServer(t)

	_, env := do(t, h, http.MethodGet, "/api/users", "")
	assert.JSONEq(t, `[]`, string(env.Data))
	assert.Equal(t, 0, env.Pagination.Total)
}

func TestUpdate(t *testing.T) {
	h := newServer(t)
	u := createUser(t, h, `{"name":"Ann","email":"ann@example.com","age":20}`)
	createUser(t, h, `{"name":"Bob","email":"bob@example.com"}`)
	path := "/api/users/" + itoa(u.ID)

	w, env := do(t, h, http.MethodPut, path, `{"age":21}`)
	require.Equal(t, http.StatusOK, w.Code)
	var got types.User
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 21, *got.Age)
	assert.Equal(t, "Ann", got.Name)

	w, env = do(t, h, http.MethodPut, path, `{"unknown":"field"}`)
	require.Equal(t, http.StatusOK, w.Code, "no recognized fields is a no-op")
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 21, *got.Age)

	w, _ = do(t, h, http.MethodPut, path, "")
	assert.Equal(t, http.StatusOK, w.Code, "empty body is a no-op")

	w, env = do(t, h, http.MethodPut, path, `{"email":"bob@example.com"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email already exists", env.Message)

	w, _ = do(t, h, http.MethodPut, path, `{"age":-4}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, h, http.MethodPut, "/api/users/777", `{"name":"Ghost"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, h, http.MethodPut, "/api/users/x", `{"name":"Ghost"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDelete(t *testing.T) {
	h := newServer(t)
	u := createUser(t, h, `{"name":"Ann","email":"ann@example.com"}`)
	path := "/api/users/" + itoa(u.ID)

	w, env := do(t, h, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User deleted successfully", env.Message)

	w, _ = do(t, h, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndUnknownRoute(t *testing.T) {
	h := newServer(t)

	w, env := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	w, _ = do(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMethodNotAllowedIsJSON(t *testing.T) {
	h := newServer(t)

	w, env := do(t, h, http.MethodPatch, "/api/users", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Method not allowed", env.Message)
}

// panickingStore fails loudly on lookup; the embedded interface is never
// reached by the routes exercised below.
type panickingStore struct {
	storage.Storage
}

func (panickingStore) FindByID(context.Context, int64) (*types.User, error) {
	panic("lookup exploded")
}

func TestPanicIsRecoveredAsJSON(t *testing.T) {
	h := router.New(panickingStore{})

	w, env := do(t, h, http.MethodGet, "/api/users/1", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Internal server error", env.Message)
	assert.NotContains(t, w.Body.String(), "lookup exploded")
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
