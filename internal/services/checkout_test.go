package services

import (
	"context"
	"strings"
	"testing"

	"github.com/shrutimovaliya24/softcool/internal/metrics"
	"github.com/shrutimovaliya24/softcool/internal/models"
	"github.com/shrutimovaliya24/softcool/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	sess, err := NewSession(context.Background(), "device-1", newBackend(), zap.NewNop(), metrics.NewNoop())
	require.NoError(t, err)
	return sess
}

func checkoutRequest() models.CheckoutRequest {
	return models.CheckoutRequest{PaymentMethod: models.PaymentCOD, ShippingInfo: sampleShipping()}
}

func TestShippingFor(t *testing.T) {
	assert.Equal(t, 100.0, ShippingFor(1250))
	assert.Equal(t, 100.0, ShippingFor(2000))
	assert.Equal(t, 0.0, ShippingFor(2000.5))
}

func TestCheckoutCreatesOrderAndClearsCart(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)
	require.NoError(t, sess.Login(ctx, models.UserIdentity{Email: "asha@gmail.com", Name: "Asha"}))
	_, err := sess.Cart.AddToCart(ctx, doctorPillow())
	require.NoError(t, err)

	svc := NewCheckoutService(zap.NewNop(), metrics.NewNoop())
	order, err := svc.Checkout(ctx, sess, checkoutRequest())
	require.NoError(t, err)

	assert.Equal(t, 1250.0, order.Subtotal)
	assert.Equal(t, 100.0, order.Shipping)
	assert.Equal(t, 1350.0, order.Total)
	assert.Equal(t, "asha@gmail.com", order.UserID)
	require.Len(t, order.Items, 1)
	assert.Empty(t, sess.Cart.Items())

	got, err := sess.Orders.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, got.OrderNumber)
}

func TestCheckoutFreeShipping(t *testing.T) {
	ctx := context.Background()
	sess := newTestSession(t)
	require.NoError(t, sess.Login(ctx, models.UserIdentity{Email: "asha@gmail.com"}))
	for range 2 {
		_, err := sess.Cart.AddToCart(ctx, doctorPillow())
		require.NoError(t, err)
	}

	order, err := NewCheckoutService(zap.NewNop(), metrics.NewNoop()).Checkout(ctx, sess, checkoutRequest())
	require.NoError(t, err)
	assert.Equal(t, 0.0, order.Shipping)
	assert.Equal(t, 2500.0, order.Total)
}

func TestCheckoutRejections(t *testing.T) {
	ctx := context.Background()
	svc := NewCheckoutService(zap.NewNop(), metrics.NewNoop())

	sess := newTestSession(t)
	_, err := svc.Checkout(ctx, sess, checkoutRequest())
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, sess.Login(ctx, models.UserIdentity{Email: "asha@gmail.com"}))
	_, err = svc.Checkout(ctx, sess, checkoutRequest())
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = sess.Cart.AddToCart(ctx, doctorPillow())
	require.NoError(t, err)

	req := checkoutRequest()
	req.PaymentMethod = "card"
	req.ShippingInfo.Phone = "12345"
	req.ShippingInfo.Pincode = "39500"
	req.ShippingInfo.Email = "not-an-email"
	req.ShippingInfo.City = " "
	_, err = svc.Checkout(ctx, sess, req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{
		"paymentMethod": "Please choose cash on delivery or online payment",
		"phone":         "Please enter a valid 10-digit phone number",
		"pincode":       "Please enter a valid 6-digit pincode",
		"email":         "Please enter a valid email address",
		"city":          "City is required",
	}, verr.Fields)
	assert.Len(t, sess.Cart.Items(), 1, "a rejected checkout keeps the cart")
	assert.Empty(t, sess.Orders.Orders())
}

// hookStore runs afterOrders once, right after the order list is written
type hookStore struct {
	store.Store
	afterOrders func()
}

func (h *hookStore) Set(ctx context.Context, key string, value []byte) error {
	if err := h.Store.Set(ctx, key, value); err != nil {
		return err
	}
	if strings.HasSuffix(key, ":"+store.KeyOrders) && h.afterOrders != nil {
		hook := h.afterOrders
		h.afterOrders = nil
		hook()
	}
	return nil
}

func TestCheckoutKeepsItemsAddedDuringCheckout(t *testing.T) {
	ctx := context.Background()
	backend := &hookStore{Store: newBackend()}
	sess, err := NewSession(ctx, "device-1", backend, zap.NewNop(), metrics.NewNoop())
	require.NoError(t, err)
	require.NoError(t, sess.Login(ctx, models.UserIdentity{Email: "asha@gmail.com"}))
	_, err = sess.Cart.AddToCart(ctx, doctorPillow())
	require.NoError(t, err)

	backend.afterOrders = func() {
		_, err := sess.Cart.AddToCart(ctx, doctorPillow())
		require.NoError(t, err)
		_, err = sess.Cart.AddToCart(ctx, models.CartItem{ID: 2, Name: "Paradise Pillow", Price: 999})
		require.NoError(t, err)
	}

	order, err := NewCheckoutService(zap.NewNop(), metrics.NewNoop()).Checkout(ctx, sess, checkoutRequest())
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 1, order.Items[0].Quantity)

	items := sess.Cart.Items()
	require.Len(t, items, 2)
	assert.Equal(t, models.CartItem{ID: 1, Name: "Doctor Pillow", Price: 1250, Image: "/img/doctor-pillow.jpg", Quantity: 1}, items[0])
	assert.Equal(t, int64(2), items[1].ID)
	assert.Equal(t, 1, items[1].Quantity)
}
