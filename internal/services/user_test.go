package services

import (
	"context"
	"testing"

	"github.com/shrutimovaliya24/softcool/internal/metrics"
	"github.com/shrutimovaliya24/softcool/internal/models"
	"github.com/shrutimovaliya24/softcool/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuth(t *testing.T, backend store.Store) *AuthManager {
	t.Helper()
	a, err := NewAuthManager(context.Background(), newJSON(backend), zap.NewNop(), metrics.NewNoop())
	require.NoError(t, err)
	return a
}

func TestLoginPersistsIdentity(t *testing.T) {
	ctx := context.Background()
	backend := newBackend()
	auth := newAuth(t, backend)
	assert.False(t, auth.IsAuthenticated())
	assert.False(t, auth.HasSignedUp())

	require.NoError(t, auth.Login(ctx, models.UserIdentity{Email: "asha@gmail.com", Name: "Asha"}))

	reloaded := newAuth(t, backend)
	user, ok := reloaded.Current()
	require.True(t, ok)
	assert.Equal(t, "asha@gmail.com", user.Email)
	assert.Equal(t, models.ProviderGoogle, user.Provider)
	assert.True(t, reloaded.HasSignedUp())

	raw, err := backend.Get(ctx, store.KeyHasSignedUp)
	require.NoError(t, err)
	assert.Equal(t, `"true"`, string(raw))
}

func TestLogoutKeepsSignupFlag(t *testing.T) {
	ctx := context.Background()
	backend := newBackend()
	auth := newAuth(t, backend)
	require.NoError(t, auth.Login(ctx, models.UserIdentity{Email: "asha@gmail.com"}))

	require.NoError(t, auth.Logout(ctx))
	assert.False(t, auth.IsAuthenticated())
	assert.True(t, auth.HasSignedUp())

	_, err := backend.Get(ctx, store.KeyUser)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.True(t, newAuth(t, backend).HasSignedUp())
}

func TestLoginRequiresEmail(t *testing.T) {
	backend := newBackend()
	auth := newAuth(t, backend)
	err := auth.Login(context.Background(), models.UserIdentity{Name: "nobody"})
	assert.ErrorIs(t, err, ErrMissingEmail)
	assert.Equal(t, 0, backend.Len())
}

func TestCorruptUserIsPurged(t *testing.T) {
	ctx := context.Background()
	backend := newBackend()
	require.NoError(t, backend.Set(ctx, store.KeyUser, []byte("nope")))

	auth := newAuth(t, backend)
	assert.False(t, auth.IsAuthenticated())
	_, err := backend.Get(ctx, store.KeyUser)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
