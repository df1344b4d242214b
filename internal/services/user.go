package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shrutimovaliya24/softcool/internal/metrics"
	"github.com/shrutimovaliya24/softcool/internal/models"
	"github.com/shrutimovaliya24/softcool/internal/store"
	"go.uber.org/zap"
)

// ErrNotAuthenticated is returned by operations that need an identity
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrMissingEmail is returned when logging in without an email address
var ErrMissingEmail = errors.New("Enter valid email. Email address is required.")

// IdentitySource reports the identity of the current device, if any
type IdentitySource interface {
	Current() (models.UserIdentity, bool)
}

// AuthManager holds the identity of one device.
//
// The identity is asserted by the client (email pattern check or OAuth popup
// relay) and is never cryptographically verified.
type AuthManager struct {
	mu          sync.RWMutex
	store       *store.JSONStore
	logger      *zap.Logger
	metrics     *metrics.AppMetrics
	user        *models.UserIdentity
	hasSignedUp bool
}

// NewAuthManager loads the persisted identity
func NewAuthManager(ctx context.Context, st *store.JSONStore, logger *zap.Logger, m *metrics.AppMetrics) (*AuthManager, error) {
	a := &AuthManager{
		store:   st,
		logger:  logger,
		metrics: m,
	}

	var user models.UserIdentity
	found, err := st.Load(ctx, store.KeyUser, &user)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if found && user.Email != "" {
		a.user = &user
	}

	var flag string
	found, err = st.Load(ctx, store.KeyHasSignedUp, &flag)
	if err != nil {
		return nil, fmt.Errorf("failed to load signup flag: %w", err)
	}
	a.hasSignedUp = found && flag == "true"

	return a, nil
}

// Login stores identity and marks the device as signed up
func (a *AuthManager) Login(ctx context.Context, identity models.UserIdentity) error {
	if identity.Email == "" {
		return ErrMissingEmail
	}
	if identity.Provider == "" {
		identity.Provider = models.ProviderGoogle
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.Save(ctx, store.KeyUser, identity); err != nil {
		return err
	}
	if err := a.store.Save(ctx, store.KeyHasSignedUp, "true"); err != nil {
		return err
	}

	a.user = &identity
	a.hasSignedUp = true

	a.logger.Info("User logged in",
		zap.String("email", identity.Email),
		zap.String("provider", identity.Provider))
	return nil
}

// Logout forgets the identity. The signed-up flag survives.
func (a *AuthManager) Logout(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.Delete(ctx, store.KeyUser); err != nil {
		return err
	}
	a.user = nil
	return nil
}

// Current returns the logged-in identity
func (a *AuthManager) Current() (models.UserIdentity, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.user == nil {
		return models.UserIdentity{}, false
	}
	return *a.user, true
}

// IsAuthenticated reports whether an identity is present
func (a *AuthManager) IsAuthenticated() bool {
	_, ok := a.Current()
	return ok
}

// HasSignedUp reports whether this device ever completed a login or signup
func (a *AuthManager) HasSignedUp() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.hasSignedUp
}
