package service

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bravo68web/ghcrm/internal/config"
	"github.com/bravo68web/ghcrm/internal/domain/models"
	"github.com/bravo68web/ghcrm/internal/infrastructure/database"
	gormrepo "github.com/bravo68web/ghcrm/internal/infrastructure/repository"
	"github.com/bravo68web/ghcrm/internal/infrastructure/session"
	apperrors "github.com/bravo68web/ghcrm/pkg/errors"
)

// fakeUpstream serves a fixed catalogue and counts calls
type fakeUpstream struct {
	mu       sync.Mutex
	repos    map[string]*models.UpstreamRepository
	aliases  map[string]string
	fetches  int
	searches int
	failWith error
}

func newFakeUpstream(repos ...*models.UpstreamRepository) *fakeUpstream {
	f := &fakeUpstream{repos: map[string]*models.UpstreamRepository{}, aliases: map[string]string{}}
	for _, r := range repos {
		f.repos[r.FullName] = r
	}
	return f
}

func (f *fakeUpstream) FetchByPath(_ context.Context, path string) (*models.UpstreamRepository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.failWith != nil {
		return nil, f.failWith
	}
	if canonical, ok := f.aliases[path]; ok {
		path = canonical
	}
	r, ok := f.repos[path]
	if !ok {
		return nil, apperrors.NotFound("repository", apperrors.ErrNotFound)
	}
	copied := *r
	return &copied, nil
}

func (f *fakeUpstream) SearchByQuery(_ context.Context, query string) ([]*models.UpstreamRepository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []*models.UpstreamRepository
	for name, r := range f.repos {
		if strings.Contains(name, query) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (f *fakeUpstream) set(r *models.UpstreamRepository) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repos[r.FullName] = r
}

func upstreamRepo(fullName string, stars int) *models.UpstreamRepository {
	owner, name, _ := models.SplitFullName(fullName)
	return &models.UpstreamRepository{
		Owner:     owner,
		Name:      name,
		FullName:  fullName,
		HTMLURL:   "https://github.com/" + fullName,
		Stars:     stars,
		Forks:     stars / 10,
		CreatedAt: time.Date(2014, 7, 1, 0, 0, 0, 0, time.UTC),
	}
}

type testEnv struct {
	repoService *RepoService
	userService *UserService
	authService *AuthServiceImpl
	upstream    *fakeUpstream
	sessions    *session.MemoryStore
}

func newTestEnv(t *testing.T, upstream *fakeUpstream) *testEnv {
	t.Helper()

	db, err := database.NewDatabase(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "ghcrm.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.RunMigrations())

	users := gormrepo.NewUserRepository(db.DB())
	sessions := session.NewMemoryStore(100, time.Hour)
	auth := NewAuthService(users, sessions, &config.SessionConfig{Secret: "test-secret-test-secret", TTL: time.Hour})

	return &testEnv{
		repoService: NewRepoService(gormrepo.NewRepoRepository(db.DB()), upstream),
		userService: NewUserService(users, auth),
		authService: auth,
		upstream:    upstream,
		sessions:    sessions,
	}
}

func (e *testEnv) signUp(t *testing.T, email, phone string) *models.User {
	t.Helper()
	user, err := e.userService.SignUp(context.Background(), signUpRequest(email, phone))
	require.NoError(t, err)
	return user
}
