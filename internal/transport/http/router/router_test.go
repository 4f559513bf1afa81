package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bravo68web/ghcrm/internal/application/dto"
	"github.com/bravo68web/ghcrm/internal/config"
	"github.com/bravo68web/ghcrm/internal/domain/models"
	"github.com/bravo68web/ghcrm/internal/infrastructure/database"
	"github.com/bravo68web/ghcrm/internal/infrastructure/session"
	"github.com/bravo68web/ghcrm/internal/injectable"
	"github.com/bravo68web/ghcrm/internal/server"
	"github.com/bravo68web/ghcrm/internal/transport/http/router"
	apperrors "github.com/bravo68web/ghcrm/pkg/errors"
)

type stubGitHub struct {
	mu    sync.Mutex
	repos map[string]*models.UpstreamRepository
	fail  error
}

func (s *stubGitHub) FetchByPath(_ context.Context, path string) (*models.UpstreamRepository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	r, ok := s.repos[strings.ToLower(path)]
	if !ok {
		return nil, apperrors.NewAppError(apperrors.CodeNotFound, "repository not found on GitHub", apperrors.ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

func (s *stubGitHub) SearchByQuery(_ context.Context, query string) ([]*models.UpstreamRepository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.UpstreamRepository
	for _, r := range s.repos {
		if strings.Contains(strings.ToLower(r.FullName), strings.ToLower(query)) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stars > out[j].Stars })
	return out, nil
}

func (s *stubGitHub) setStars(fullName string, stars int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repos[strings.ToLower(fullName)].Stars = stars
}

func upstream(fullName string, stars int) *models.UpstreamRepository {
	owner, name, _ := strings.Cut(fullName, "/")
	return &models.UpstreamRepository{
		ID:         int64(len(fullName) * 1000),
		Owner:      owner,
		Name:       name,
		FullName:   fullName,
		HTMLURL:    "https://github.com/" + fullName,
		Stars:      stars,
		Forks:      stars / 10,
		OpenIssues: 3,
		CreatedAt:  time.Date(2013, 5, 24, 16, 15, 54, 0, time.UTC),
	}
}

func newTestServer(t *testing.T, repos ...*models.UpstreamRepository) (*httptest.Server, *stubGitHub) {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		Session: config.SessionConfig{
			Store:      "memory",
			Secret:     "router-test-secret-0123456789",
			CookieName: "ghcrm.sid",
			TTL:        time.Hour,
		},
	}

	db, err := database.NewDatabase(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "ghcrm.db"),
	})
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	gh := &stubGitHub{repos: make(map[string]*models.UpstreamRepository)}
	for _, r := range repos {
		gh.repos[strings.ToLower(r.FullName)] = r
	}

	deps := injectable.NewDependencies(cfg, db, session.NewMemoryStore(100, time.Hour), gh)
	s := server.New(cfg, db)
	router.NewRouter(s, deps).RegisterRoutes()

	ts := httptest.NewServer(s.Engine)
	t.Cleanup(func() {
		ts.Close()
		_ = deps.Close()
		_ = db.Close()
	})
	return ts, gh
}

type apiClient struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, ts *httptest.Server) *apiClient {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &apiClient{t: t, base: ts.URL, http: &http.Client{Jar: jar}}
}

func (c *apiClient) do(method, path string, body any) (int, []byte) {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, data
}

func (c *apiClient) signUp(email, phone string) dto.UserResponse {
	c.t.Helper()
	status, body := c.do(http.MethodPost, "/api/v1/auth/sign-up", dto.SignUpRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Phone:     phone,
		Password:  "correct-horse",
	})
	require.Equal(c.t, http.StatusCreated, status, string(body))

	var user dto.UserResponse
	require.NoError(c.t, json.Unmarshal(body, &user))
	return user
}

func errorKind(t *testing.T, body []byte) string {
	t.Helper()
	var resp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(body, &resp), string(body))
	assert.NotEmpty(t, resp.Message)
	return resp.Error
}

func TestAuthFlow(t *testing.T) {
	ts, _ := newTestServer(t)
	c := newClient(t, ts)

	status, body := c.do(http.MethodGet, "/api/v1/auth", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "null", string(body))

	user := c.signUp("ada@example.com", "+441234")
	assert.Equal(t, "ada@example.com", user.Email)

	status, body = c.do(http.MethodGet, "/api/v1/auth", nil)
	assert.Equal(t, http.StatusOK, status)
	var me dto.UserResponse
	require.NoError(t, json.Unmarshal(body, &me))
	assert.Equal(t, user.ID, me.ID)

	status, _ = c.do(http.MethodPost, "/api/v1/auth/sign-out", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = c.do(http.MethodGet, "/api/v1/auth", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "null", string(body))

	status, body = c.do(http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{Email: "ada@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", errorKind(t, body))

	status, _ = c.do(http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{Email: "ADA@example.com", Password: "correct-horse"})
	assert.Equal(t, http.StatusOK, status)

	status, _ = c.do(http.MethodGet, "/api/v1/repositories", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestSignUpConflictsAndValidation(t *testing.T) {
	ts, _ := newTestServer(t)
	c := newClient(t, ts)
	c.signUp("ada@example.com", "+441234")

	other := newClient(t, ts)
	status, body := other.do(http.MethodPost, "/api/v1/auth/sign-up", dto.SignUpRequest{
		FirstName: "A", LastName: "B", Email: "ada@example.com", Phone: "+449999", Password: "correct-horse",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", errorKind(t, body))

	status, body = other.do(http.MethodPost, "/api/v1/auth/sign-up", dto.SignUpRequest{
		FirstName: "A", LastName: "B", Email: "b@example.com", Phone: "+449999", Password: "short",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", errorKind(t, body))
}

func TestSignOutEverywhereRevokesOtherSessions(t *testing.T) {
	ts, _ := newTestServer(t)

	laptop := newClient(t, ts)
	laptop.signUp("ada@example.com", "+441234")

	phone := newClient(t, ts)
	status, _ := phone.do(http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.Equal(t, http.StatusOK, status)

	status, _ = laptop.do(http.MethodPost, "/api/v1/auth/sign-out?all=true", nil)
	require.Equal(t, http.StatusOK, status)

	status, body := phone.do(http.MethodGet, "/api/v1/repositories", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", errorKind(t, body))
}

func TestRepositoriesRequireSession(t *testing.T) {
	ts, _ := newTestServer(t)
	c := newClient(t, ts)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/repositories"},
		{http.MethodPost, "/api/v1/repositories"},
		{http.MethodPut, "/api/v1/repositories/1/refresh"},
		{http.MethodDelete, "/api/v1/repositories/1"},
		{http.MethodGet, "/api/v1/repositories/search?query=react"},
	} {
		status, body := c.do(tc.method, tc.path, nil)
		assert.Equal(t, http.StatusUnauthorized, status, tc.path)
		assert.Equal(t, "unauthorized", errorKind(t, body))
	}
}

func TestRepositoryLifecycle(t *testing.T) {
	ts, gh := newTestServer(t, upstream("facebook/react", 200000), upstream("vuejs/vue", 180000))
	c := newClient(t, ts)
	c.signUp("ada@example.com", "+441234")

	status, body := c.do(http.MethodPost, "/api/v1/repositories", dto.AddRepositoryRequest{Path: "facebook/react"})
	require.Equal(t, http.StatusCreated, status, string(body))
	var react dto.RepositoryResponse
	require.NoError(t, json.Unmarshal(body, &react))
	assert.Equal(t, "facebook/react", react.FullName)
	assert.Equal(t, 200000, react.Stars)
	assert.Equal(t, time.Date(2013, 5, 24, 16, 15, 54, 0, time.UTC).Unix(), react.CreatedAt)

	status, _ = c.do(http.MethodPost, "/api/v1/repositories", dto.AddRepositoryRequest{Path: "vuejs/vue"})
	require.Equal(t, http.StatusCreated, status)

	status, body = c.do(http.MethodPost, "/api/v1/repositories", dto.AddRepositoryRequest{Path: "facebook/react"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", errorKind(t, body))

	for _, path := range []string{"not-a-path", "../..", "./x", "a/.."} {
		status, body = c.do(http.MethodPost, "/api/v1/repositories", dto.AddRepositoryRequest{Path: path})
		assert.Equal(t, http.StatusBadRequest, status, path)
		assert.Equal(t, "validation_error", errorKind(t, body), path)
	}

	status, body = c.do(http.MethodPost, "/api/v1/repositories", dto.AddRepositoryRequest{Path: "ghost/missing"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", errorKind(t, body))

	status, body = c.do(http.MethodGet, "/api/v1/repositories?search=vue", nil)
	require.Equal(t, http.StatusOK, status)
	var list dto.RepositoryListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.EqualValues(t, 1, list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "vuejs/vue", list.Items[0].FullName)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 10, list.Limit)

	status, body = c.do(http.MethodGet, "/api/v1/repositories?search=zzz", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &list))
	assert.EqualValues(t, 0, list.Total)
	assert.Empty(t, list.Items)
	assert.Contains(t, string(body), `"items":[]`)

	gh.setStars("facebook/react", 210000)
	status, body = c.do(http.MethodPut, "/api/v1/repositories/"+itoa(react.ID)+"/refresh", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var refreshed dto.RepositoryResponse
	require.NoError(t, json.Unmarshal(body, &refreshed))
	assert.Equal(t, 210000, refreshed.Stars)
	assert.Equal(t, react.CreatedAt, refreshed.CreatedAt)

	status, body = c.do(http.MethodDelete, "/api/v1/repositories/"+itoa(react.ID), nil)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Empty(t, body)

	status, body = c.do(http.MethodDelete, "/api/v1/repositories/"+itoa(react.ID), nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", errorKind(t, body))

	status, body = c.do(http.MethodPut, "/api/v1/repositories/abc/refresh", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", errorKind(t, body))
}

func TestRepositoriesAreScopedToTheSessionUser(t *testing.T) {
	ts, _ := newTestServer(t, upstream("facebook/react", 200000))

	ada := newClient(t, ts)
	ada.signUp("ada@example.com", "+441234")
	status, body := ada.do(http.MethodPost, "/api/v1/repositories", dto.AddRepositoryRequest{Path: "facebook/react"})
	require.Equal(t, http.StatusCreated, status)
	var repo dto.RepositoryResponse
	require.NoError(t, json.Unmarshal(body, &repo))

	bob := newClient(t, ts)
	bob.signUp("bob@example.com", "+445678")

	status, _ = bob.do(http.MethodDelete, "/api/v1/repositories/"+itoa(repo.ID), nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = bob.do(http.MethodPost, "/api/v1/repositories", dto.AddRepositoryRequest{Path: "facebook/react"})
	assert.Equal(t, http.StatusCreated, status)
}

func TestListValidationAndUpstreamFailures(t *testing.T) {
	ts, gh := newTestServer(t, upstream("facebook/react", 200000))
	c := newClient(t, ts)
	c.signUp("ada@example.com", "+441234")

	for _, q := range []string{"page=0", "limit=0", "limit=101", "page=x", "page=9223372036854775807"} {
		status, body := c.do(http.MethodGet, "/api/v1/repositories?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, status, q)
		assert.Equal(t, "validation_error", errorKind(t, body))
	}

	gh.mu.Lock()
	gh.fail = apperrors.UpstreamError("lookup", nil)
	gh.mu.Unlock()

	status, body := c.do(http.MethodPost, "/api/v1/repositories", dto.AddRepositoryRequest{Path: "facebook/react"})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "upstream_error", errorKind(t, body))
}

func TestSearchRepositories(t *testing.T) {
	ts, _ := newTestServer(t, upstream("facebook/react", 200000), upstream("reactjs/react-redux", 23000))
	c := newClient(t, ts)
	c.signUp("ada@example.com", "+441234")

	status, body := c.do(http.MethodGet, "/api/v1/repositories/search?query=re", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "[]", string(body))

	status, body = c.do(http.MethodGet, "/api/v1/repositories/search?query=react", nil)
	require.Equal(t, http.StatusOK, status)
	var results []dto.SearchResultResponse
	require.NoError(t, json.Unmarshal(body, &results))
	require.Len(t, results, 2)
	assert.Equal(t, "facebook/react", results[0].FullName)
	assert.Equal(t, "facebook", results[0].Owner.Login)
	assert.Equal(t, 200000, results[0].StargazersCount)
}

func TestProbesAndMetrics(t *testing.T) {
	ts, _ := newTestServer(t)
	c := newClient(t, ts)

	for _, path := range []string{"/", "/healthz", "/readyz"} {
		status, body := c.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, status, path)
		assert.Contains(t, string(body), `"status":"ok"`)
	}

	c.do(http.MethodGet, "/api/v1/auth", nil)

	status, body := c.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "ghcrm_http_requests_total")
}

func TestOpenAPIDocument(t *testing.T) {
	ts, _ := newTestServer(t)
	c := newClient(t, ts)

	status, body := c.do(http.MethodGet, "/api/v1/openapi.json", nil)
	require.Equal(t, http.StatusOK, status)

	var doc struct {
		OpenAPI string                                `json:"openapi"`
		Paths   map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "3.0.3", doc.OpenAPI)
	assert.Contains(t, doc.Paths, "/api/v1/repositories/{id}/refresh")
	assert.Contains(t, doc.Paths["/api/v1/repositories"], "post")
	assert.Contains(t, doc.Paths["/api/v1/auth/sign-out"], "post")
	assert.Contains(t, string(body), "cookieAuth")
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
