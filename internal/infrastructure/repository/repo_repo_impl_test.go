package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bravo68web/ghcrm/internal/config"
	"github.com/bravo68web/ghcrm/internal/domain/models"
	"github.com/bravo68web/ghcrm/internal/domain/repository"
	"github.com/bravo68web/ghcrm/internal/infrastructure/database"
	apperror "github.com/bravo68web/ghcrm/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewDatabase(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "ghcrm.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.RunMigrations())
	return db.DB()
}

func createUser(t *testing.T, users repository.UserRepository, n int) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@example.com", n)
	user := &models.User{FirstName: "User", LastName: fmt.Sprint(n), Email: email, Phone: fmt.Sprint(n)}
	require.NoError(t, users.CreateWithAuth(context.Background(), &models.AuthUser{Email: email, Password: "hash"}, user))
	return user
}

func tracked(userID uint, fullName string, stars int) *models.Repository {
	owner, name, _ := models.SplitFullName(fullName)
	return &models.Repository{
		Owner: owner, Name: name, FullName: fullName,
		URL:       "https://github.com/" + fullName,
		Stars:     stars,
		CreatedAt: time.Date(2013, 5, 24, 16, 15, 54, 0, time.UTC),
		UserID:    userID,
	}
}

func TestRepoRepositoryCreateIsUniquePerUser(t *testing.T) {
	db := newTestDB(t)
	repos := NewRepoRepository(db)
	users := NewUserRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, 1)
	bob := createUser(t, users, 2)

	require.NoError(t, repos.Create(ctx, tracked(alice.ID, "facebook/react", 200000)))
	require.NoError(t, repos.Create(ctx, tracked(bob.ID, "facebook/react", 200000)))

	err := repos.Create(ctx, tracked(alice.ID, "facebook/react", 1))
	assert.True(t, apperror.IsConflict(err))

	_, total, err := repos.ListByUser(ctx, alice.ID, repository.ListFilter{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	exists, err := repos.ExistsByFullName(ctx, bob.ID, "facebook/react")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRepoRepositoryListFiltersAndPages(t *testing.T) {
	db := newTestDB(t)
	repos := NewRepoRepository(db)
	user := createUser(t, NewUserRepository(db), 1)
	ctx := context.Background()

	for _, name := range []string{"facebook/react", "vuejs/vue", "sveltejs/svelte", "acme/100%_real"} {
		require.NoError(t, repos.Create(ctx, tracked(user.ID, name, 1)))
	}

	tests := []struct {
		name      string
		filter    repository.ListFilter
		wantNames []string
		wantTotal int64
	}{
		{"newest first", repository.ListFilter{Limit: 10}, []string{"acme/100%_real", "sveltejs/svelte", "vuejs/vue", "facebook/react"}, 4},
		{"case insensitive owner match", repository.ListFilter{Search: "VUEJS", Limit: 10}, []string{"vuejs/vue"}, 1},
		{"name match", repository.ListFilter{Search: "vue", Limit: 10}, []string{"vuejs/vue"}, 1},
		{"full name match", repository.ListFilter{Search: "k/re", Limit: 10}, []string{"facebook/react"}, 1},
		{"no match", repository.ListFilter{Search: "zzz", Limit: 10}, []string{}, 0},
		{"percent is literal", repository.ListFilter{Search: "0%_", Limit: 10}, []string{"acme/100%_real"}, 1},
		{"underscore is literal", repository.ListFilter{Search: "_", Limit: 10}, []string{"acme/100%_real"}, 1},
		{"second page", repository.ListFilter{Limit: 3, Offset: 3}, []string{"facebook/react"}, 4},
		{"page past the end", repository.ListFilter{Limit: 3, Offset: 30}, []string{}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := repos.ListByUser(ctx, user.ID, tt.filter)
			require.NoError(t, err)

			names := make([]string, 0, len(got))
			for _, r := range got {
				names = append(names, r.FullName)
			}
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, tt.wantTotal, total)
		})
	}
}

func TestRepoRepositoryIsScopedByUser(t *testing.T) {
	db := newTestDB(t)
	repos := NewRepoRepository(db)
	users := NewUserRepository(db)
	ctx := context.Background()

	owner := createUser(t, users, 1)
	other := createUser(t, users, 2)

	repo := tracked(owner.ID, "golang/go", 10)
	require.NoError(t, repos.Create(ctx, repo))

	_, err := repos.FindByIDAndUser(ctx, repo.ID, other.ID)
	assert.True(t, apperror.IsNotFound(err))

	assert.True(t, apperror.IsNotFound(repos.Delete(ctx, repo.ID, other.ID)))

	require.NoError(t, repos.Delete(ctx, repo.ID, owner.ID))
	assert.True(t, apperror.IsNotFound(repos.Delete(ctx, repo.ID, owner.ID)))
}

func TestRepoRepositoryUpdateCountsKeepsIdentity(t *testing.T) {
	db := newTestDB(t)
	repos := NewRepoRepository(db)
	user := createUser(t, NewUserRepository(db), 1)
	ctx := context.Background()

	repo := tracked(user.ID, "golang/go", 10)
	require.NoError(t, repos.Create(ctx, repo))

	changed := *repo
	changed.Stars, changed.Forks, changed.OpenIssues = 11, 2, 3
	changed.Name = "renamed"
	require.NoError(t, repos.UpdateCounts(ctx, &changed))

	got, err := repos.FindByIDAndUser(ctx, repo.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 11, got.Stars)
	assert.Equal(t, 2, got.Forks)
	assert.Equal(t, 3, got.OpenIssues)
	assert.Equal(t, "go", got.Name)
	assert.True(t, repo.CreatedAt.Equal(got.CreatedAt))
}
