package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/bravo68web/ghcrm/pkg/client"
)

const sessionCookie = "ghcrm.sid"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fakeServer answers the client API for one account. Every request but
// login needs the session cookie.
func fakeServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var signOuts atomic.Int32
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req client.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized", "message": "wrong credentials provided"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "ok", Path: "/"})
		writeJSON(w, http.StatusOK, client.User{ID: 1, Email: req.Email, FirstName: "Ada", LastName: "Lovelace"})
	})

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(sessionCookie); err != nil || c.Value != "ok" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized", "message": "authentication required"})
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("POST /api/v1/auth/sign-out", func(w http.ResponseWriter, r *http.Request) {
		signOuts.Add(1)
		writeJSON(w, http.StatusOK, map[string]string{"message": "signed out"})
	})

	mux.HandleFunc("GET /api/v1/auth", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, client.User{ID: 1, Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace"})
	}))

	mux.HandleFunc("GET /api/v1/repositories", authed(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("search") == "none" {
			writeJSON(w, http.StatusOK, client.RepositoryList{Items: []client.Repository{}, Page: 1, Limit: 10})
			return
		}
		writeJSON(w, http.StatusOK, client.RepositoryList{
			Items: []client.Repository{{ID: 7, FullName: "vuejs/vue", Stars: 180000, CreatedAt: 1374151488}},
			Total: 1, Page: 1, Limit: 10,
		})
	}))

	mux.HandleFunc("POST /api/v1/repositories", authed(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["path"] == "vuejs/vue" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "conflict", "message": "repository already exists"})
			return
		}
		writeJSON(w, http.StatusCreated, client.Repository{ID: 8, FullName: body["path"], Stars: 5})
	}))

	mux.HandleFunc("PUT /api/v1/repositories/{id}/refresh", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, client.Repository{ID: 7, FullName: "vuejs/vue", Stars: 181234})
	}))

	mux.HandleFunc("DELETE /api/v1/repositories/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "7" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "message": "repository not found"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	mux.HandleFunc("GET /api/v1/repositories/search", authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []client.SearchResult{{ID: 1, FullName: "facebook/react", StargazersCount: 200000}})
	}))

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, &signOuts
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewCommandRegistry().RegisterCLI()
	cmd.Writer = &buf
	cmd.ErrWriter = &buf
	cmd.ExitErrHandler = func(context.Context, *cli.Command, error) {}
	err := cmd.Run(context.Background(), append([]string{"ghcrm"}, args...))
	return buf.String(), err
}

func creds(ts *httptest.Server) []string {
	return []string{"--api", ts.URL, "--email", "ada@example.com", "--password", "secret"}
}

func TestRepoCommands(t *testing.T) {
	ts, signOuts := fakeServer(t)

	out, err := run(t, append([]string{"repo", "list"}, creds(ts)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "vuejs/vue")
	assert.Contains(t, out, "Showing 1-1 of 1")

	out, err = run(t, append(append([]string{"repo", "list"}, creds(ts)...), "--search", "none")...)
	require.NoError(t, err)
	assert.Contains(t, out, `No repositories match "none"`)

	out, err = run(t, append(append([]string{"repo", "add"}, creds(ts)...), "facebook/react")...)
	require.NoError(t, err)
	assert.Contains(t, out, "facebook/react")

	_, err = run(t, append(append([]string{"repo", "add"}, creds(ts)...), "vuejs/vue")...)
	require.EqualError(t, err, "repository already exists")

	out, err = run(t, append(append([]string{"repo", "refresh"}, creds(ts)...), "7")...)
	require.NoError(t, err)
	assert.Contains(t, out, "181234")

	out, err = run(t, append(append([]string{"repo", "delete"}, creds(ts)...), "7")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted repository 7")

	_, err = run(t, append(append([]string{"repo", "delete"}, creds(ts)...), "9")...)
	require.EqualError(t, err, "repository not found")

	out, err = run(t, append(append([]string{"repo", "search"}, creds(ts)...), "react")...)
	require.NoError(t, err)
	assert.Contains(t, out, "facebook/react")

	assert.Positive(t, signOuts.Load())
}

func TestRepoCommandArgumentErrors(t *testing.T) {
	ts, _ := fakeServer(t)

	_, err := run(t, append(append([]string{"repo", "delete"}, creds(ts)...), "abc")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive integer")

	_, err = run(t, append(append([]string{"repo", "search"}, creds(ts)...), "re")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 3 characters")

	_, err = run(t, "repo", "list", "--api", ts.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--email and --password")

	_, err = run(t, "repo", "list", "--api", ts.URL, "--email", "ada@example.com", "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrong credentials provided")
}

func TestAuthCommands(t *testing.T) {
	ts, _ := fakeServer(t)

	out, err := run(t, append([]string{"auth", "login"}, creds(ts)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as ada@example.com")

	out, err = run(t, append([]string{"auth", "whoami"}, creds(ts)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Ada Lovelace")
}

func TestOpenAPICommandWritesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openapi.yaml")

	_, err := run(t, "openapi", "--out", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "openapi: 3.0.3")
	assert.Contains(t, string(data), "/api/v1/repositories/{id}/refresh")
}

func TestRootCommandWelcome(t *testing.T) {
	out, err := run(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome to GitHub CRM!")
}
