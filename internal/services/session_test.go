package services

import (
	"context"
	"testing"

	"github.com/shrutimovaliya24/softcool/internal/metrics"
	"github.com/shrutimovaliya24/softcool/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistryReusesSessions(t *testing.T) {
	ctx := context.Background()
	registry := NewSessionRegistry(newBackend(), zap.NewNop(), metrics.NewNoop())

	a, err := registry.Get(ctx, "device-a")
	require.NoError(t, err)
	again, err := registry.Get(ctx, "device-a")
	require.NoError(t, err)
	assert.Same(t, a, again)

	_, err = registry.Get(ctx, "device-b")
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Len())

	_, err = registry.Get(ctx, "")
	assert.Error(t, err)
}

func TestDevicesDoNotShareState(t *testing.T) {
	ctx := context.Background()
	registry := NewSessionRegistry(newBackend(), zap.NewNop(), metrics.NewNoop())

	a, err := registry.Get(ctx, "device-a")
	require.NoError(t, err)
	require.NoError(t, a.Login(ctx, models.UserIdentity{Email: "asha@gmail.com"}))
	_, err = a.Cart.AddToCart(ctx, doctorPillow())
	require.NoError(t, err)

	b, err := registry.Get(ctx, "device-b")
	require.NoError(t, err)
	assert.False(t, b.Auth.IsAuthenticated())
	assert.Empty(t, b.Cart.Items())
}

func TestSessionLoginRescopesOrders(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)
	require.NoError(t, sess.Login(ctx, models.UserIdentity{Email: "a@gmail.com"}))
	order, err := sess.Orders.AddOrder(ctx, sampleDraft())
	require.NoError(t, err)

	require.NoError(t, sess.Logout(ctx))
	require.NoError(t, sess.Login(ctx, models.UserIdentity{Email: "b@gmail.com"}))
	assert.Empty(t, sess.Orders.Orders())
	_, err = sess.Orders.GetOrderByID(ctx, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	require.NoError(t, sess.Login(ctx, models.UserIdentity{Email: "a@gmail.com"}))
	require.Len(t, sess.Orders.Orders(), 1)
}

func TestCloseFlushesAndForgets(t *testing.T) {
	ctx := context.Background()
	backend := newBackend()
	registry := NewSessionRegistry(backend, zap.NewNop(), metrics.NewNoop())

	sess, err := registry.Get(ctx, "device-a")
	require.NoError(t, err)
	require.NoError(t, sess.Login(ctx, models.UserIdentity{Email: "asha@gmail.com"}))
	_, err = sess.Cart.AddToCart(ctx, doctorPillow())
	require.NoError(t, err)

	require.NoError(t, registry.Close(ctx))
	assert.Equal(t, 0, registry.Len())

	reopened, err := NewSessionRegistry(backend, zap.NewNop(), metrics.NewNoop()).Get(ctx, "device-a")
	require.NoError(t, err)
	assert.True(t, reopened.Auth.IsAuthenticated())
	assert.Equal(t, 1, reopened.Cart.TotalItems())
}
