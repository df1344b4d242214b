package services

import (
	"context"
	"testing"

	"github.com/shrutimovaliya24/softcool/internal/metrics"
	"github.com/shrutimovaliya24/softcool/internal/models"
	"github.com/shrutimovaliya24/softcool/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeIdentity struct {
	user *models.UserIdentity
}

func (f *fakeIdentity) Current() (models.UserIdentity, bool) {
	if f.user == nil {
		return models.UserIdentity{}, false
	}
	return *f.user, true
}

func (f *fakeIdentity) set(email string) {
	if email == "" {
		f.user = nil
		return
	}
	f.user = &models.UserIdentity{Email: email, Name: email, Provider: models.ProviderGoogle}
}

func loggedIn(email string) *fakeIdentity {
	f := &fakeIdentity{}
	f.set(email)
	return f
}

func newBackend() *store.MemoryStore {
	return store.NewMemoryStore(metrics.NewNoop())
}

func newJSON(backend store.Store) *store.JSONStore {
	return store.NewJSON(backend, zap.NewNop(), metrics.NewNoop())
}

func newCart(t *testing.T, backend store.Store, auth IdentitySource) *CartManager {
	t.Helper()
	c, err := NewCartManager(context.Background(), newJSON(backend), auth, zap.NewNop(), metrics.NewNoop())
	require.NoError(t, err)
	return c
}

func newOrders(t *testing.T, backend store.Store, auth IdentitySource) *OrderManager {
	t.Helper()
	o, err := NewOrderManager(context.Background(), newJSON(backend), auth, zap.NewNop(), metrics.NewNoop())
	require.NoError(t, err)
	return o
}

func doctorPillow() models.CartItem {
	return models.CartItem{ID: 1, Name: "Doctor Pillow", Price: 1250, Image: "/img/doctor-pillow.jpg"}
}

func sampleShipping() models.ShippingInfo {
	return models.ShippingInfo{
		FirstName: "Asha",
		LastName:  "Rao",
		Email:     "asha@gmail.com",
		Phone:     "98765 43210",
		Address:   "12 MG Road",
		City:      "Surat",
		State:     "Gujarat",
		Pincode:   "395007",
	}
}
