package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bravo68web/ghcrm/internal/domain/models"
	apperror "github.com/bravo68web/ghcrm/pkg/errors"
)

func TestCreateWithAuthLinksProfile(t *testing.T) {
	users := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	auth := &models.AuthUser{Email: "ada@example.com", Password: "hash"}
	user := &models.User{FirstName: "Ada", LastName: "Lovelace", Email: auth.Email, Phone: "+100"}
	require.NoError(t, users.CreateWithAuth(ctx, auth, user))
	assert.NotZero(t, user.ID)
	assert.Equal(t, auth.ID, user.AuthUserID)

	gotAuth, err := users.FindAuthByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", gotAuth.Password)

	gotUser, err := users.FindByAuthUserID(ctx, gotAuth.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, gotUser.ID)

	exists, err := users.ExistsByPhone(ctx, "+100")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateWithAuthRollsBackOnProfileConflict(t *testing.T) {
	users := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	first := &models.User{FirstName: "A", LastName: "A", Email: "a@example.com", Phone: "1"}
	require.NoError(t, users.CreateWithAuth(ctx, &models.AuthUser{Email: "a@example.com", Password: "x"}, first))

	// Fresh email but a taken phone: the auth_user row must not survive
	dup := &models.User{FirstName: "B", LastName: "B", Email: "b@example.com", Phone: "1"}
	err := users.CreateWithAuth(ctx, &models.AuthUser{Email: "b@example.com", Password: "x"}, dup)
	assert.True(t, apperror.IsConflict(err))

	_, err = users.FindAuthByEmail(ctx, "b@example.com")
	assert.True(t, apperror.IsNotFound(err))

	_, err = users.FindByID(ctx, 999)
	assert.True(t, apperror.IsNotFound(err))
}
