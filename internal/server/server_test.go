package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/starwars-api/internal/auth"
	"github.com/sakif/starwars-api/internal/handler"
	"github.com/sakif/starwars-api/internal/model"
	"github.com/sakif/starwars-api/internal/repository/sqldb"
	"github.com/sakif/starwars-api/internal/seed"
)

// =========================================================================
// TEST HELPERS
// =========================================================================

// newTestServer wires the real stack over an in-memory SQLite store loaded
// with the embedded catalog.
func newTestServer(t *testing.T) (*httptest.Server, *sqldb.DB) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqldb.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	catalog, err := seed.Default()
	require.NoError(t, err)
	_, err = seed.NewSeeder(db, auth.NewPasswordHasher(bcrypt.MinCost), logger).Load(context.Background(), catalog)
	require.NoError(t, err)

	srv := New(Config{
		Port:            0,
		CurrentUserID:   1,
		CORSOrigins:     []string{"*"},
		ShutdownTimeout: time.Second,
	}, db, logger)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, db
}

func do(t *testing.T, method, url string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

// =========================================================================
// FAVORITES SCENARIO
// =========================================================================

func TestTatooineScenario(t *testing.T) {
	ts, db := newTestServer(t)
	url := ts.URL + "/favorite/planet/1"

	resp, body := do(t, http.MethodPost, url)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var first model.Favorite
	require.NoError(t, json.Unmarshal([]byte(body), &first))
	assert.Equal(t, "Tatooine", first.Name)
	assert.Equal(t, int64(1), first.UserID)

	resp, body = do(t, http.MethodPost, url)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "repeat add reports already exists")
	var second model.Favorite
	require.NoError(t, json.Unmarshal([]byte(body), &second))
	assert.Equal(t, first, second)

	rows, err := db.ListFavorites(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	resp, body = do(t, http.MethodDelete, url)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true,"message":"Favorite deleted"}`, body)

	resp, body = do(t, http.MethodDelete, url)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, `"error":"not_found"`)
	assert.Contains(t, body, `"message"`)
}

func TestFavorites_CharacterAndListing(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := do(t, http.MethodPost, ts.URL+"/favorite/character/1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := do(t, http.MethodGet, ts.URL+"/user/favorite")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"id":1,"name":"Luke Skywalker","user_id":1}]`, body)

	resp, body = do(t, http.MethodGet, ts.URL+"/user/1/favorite")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"id":1,"name":"Luke Skywalker","user_id":1}]`, body)

	resp, _ = do(t, http.MethodGet, ts.URL+"/user/99/favorite")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, ts.URL+"/favorite/character/1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = do(t, http.MethodGet, ts.URL+"/user/1/favorite")
	assert.JSONEq(t, `[]`, body)
}

func TestFavorites_Errors(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name      string
		method    string
		path      string
		want      int
		wantError string
	}{
		{"add missing character", http.MethodPost, "/favorite/character/999", http.StatusNotFound, "not_found"},
		{"remove missing planet", http.MethodDelete, "/favorite/planet/999", http.StatusNotFound, "not_found"},
		{"remove never favorited", http.MethodDelete, "/favorite/planet/2", http.StatusNotFound, "not_found"},
		{"non-numeric id", http.MethodPost, "/favorite/planet/abc", http.StatusBadRequest, "validation_error"},
		{"unknown kind", http.MethodPost, "/favorite/starship/1", http.StatusNotFound, "not_found"},
		{"unknown path", http.MethodGet, "/nope", http.StatusNotFound, "not_found"},
		{"wrong method", http.MethodPut, "/favorite/planet/1", http.StatusMethodNotAllowed, "method_not_allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.method, ts.URL+tt.path)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

			var got handler.ErrorResponse
			require.NoError(t, json.Unmarshal([]byte(body), &got), "body: %q", body)
			assert.Equal(t, tt.wantError, got.Error)
			assert.NotEmpty(t, got.Message)
		})
	}
}

// =========================================================================
// CATALOG / USERS
// =========================================================================

func TestCatalogEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/character/1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var luke map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &luke))
	assert.EqualValues(t, 1, luke["id"])
	assert.EqualValues(t, 1, luke["planet_id"], "homeworld is a raw id")

	resp, body = do(t, http.MethodGet, ts.URL+"/planet/1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"rotation_period":23`)

	resp, _ = do(t, http.MethodGet, ts.URL+"/planet/4040")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, http.MethodGet, ts.URL+"/character/4040")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = do(t, http.MethodGet, ts.URL+"/planet")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var planets []model.Planet
	require.NoError(t, json.Unmarshal([]byte(body), &planets))
	assert.NotEmpty(t, planets)
}

func TestUsersHidePassword(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/user")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"id":1,"email":"luke@rebellion.org"}]`, body)
	assert.NotContains(t, body, "$2")
}

func TestTrailingSlashTolerated(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := do(t, http.MethodGet, ts.URL+"/planet/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/favorite/planet/1/")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestRequestIDAndCORS(t *testing.T) {
	ts, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/favorite/planet/1", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Less(t, resp.StatusCode, 300)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

// =========================================================================
// ROUTE INDEX
// =========================================================================

func TestRouteIndexListsEveryRoute(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var index struct {
		Routes []handler.Route `json:"routes"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &index))

	got := map[string]bool{}
	for _, r := range index.Routes {
		got[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /character",
		"GET /character/{id}",
		"GET /planet",
		"GET /planet/{id}",
		"GET /user",
		"GET /user/favorite",
		"POST /favorite/character/{id}",
		"POST /favorite/planet/{id}",
		"DELETE /favorite/character/{id}",
		"DELETE /favorite/planet/{id}",
	} {
		assert.True(t, got[want], "route index is missing %q (have %s)", want, strings.Join(keys(got), ", "))
	}
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := sqldb.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	srv := New(Config{Port: 0, CurrentUserID: 1, CORSOrigins: []string{"*"}, ShutdownTimeout: time.Second}, db, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}
}
