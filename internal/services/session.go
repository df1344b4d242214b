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

// Session bundles the state managers of one device
type Session struct {
	DeviceID string
	Auth     *AuthManager
	Cart     *CartManager
	Orders   *OrderManager
}

// NewSession loads every manager from the device namespace of backend
func NewSession(ctx context.Context, deviceID string, backend store.Store, logger *zap.Logger, m *metrics.AppMetrics) (*Session, error) {
	logger = logger.With(zap.String("device_id", deviceID))
	st := store.NewJSON(store.Scoped(backend, "device:"+deviceID), logger, m)

	auth, err := NewAuthManager(ctx, st, logger, m)
	if err != nil {
		return nil, err
	}
	cart, err := NewCartManager(ctx, st, auth, logger, m)
	if err != nil {
		return nil, err
	}
	orders, err := NewOrderManager(ctx, st, auth, logger, m)
	if err != nil {
		return nil, err
	}

	return &Session{
		DeviceID: deviceID,
		Auth:     auth,
		Cart:     cart,
		Orders:   orders,
	}, nil
}

// Login sets the identity and rescopes the order list to it
func (s *Session) Login(ctx context.Context, identity models.UserIdentity) error {
	if err := s.Auth.Login(ctx, identity); err != nil {
		return err
	}
	return s.Orders.Reload(ctx)
}

// Logout clears the identity and rescopes the order list
func (s *Session) Logout(ctx context.Context) error {
	if err := s.Auth.Logout(ctx); err != nil {
		return err
	}
	return s.Orders.Reload(ctx)
}

// Flush writes in-memory state back to the store
func (s *Session) Flush(ctx context.Context) error {
	return errors.Join(s.Cart.Flush(ctx), s.Orders.Flush(ctx))
}

// SessionRegistry creates device sessions on first use and keeps them
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	backend  store.Store
	logger   *zap.Logger
	metrics  *metrics.AppMetrics
}

// NewSessionRegistry creates an empty registry over backend
func NewSessionRegistry(backend store.Store, logger *zap.Logger, m *metrics.AppMetrics) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		backend:  backend,
		logger:   logger,
		metrics:  m,
	}
}

// Get returns the session for deviceID, loading it if needed
func (r *SessionRegistry) Get(ctx context.Context, deviceID string) (*Session, error) {
	if deviceID == "" {
		return nil, errors.New("empty device id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[deviceID]; ok {
		return sess, nil
	}

	sess, err := NewSession(ctx, deviceID, r.backend, r.logger, r.metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	r.sessions[deviceID] = sess
	return sess, nil
}

// Len returns the number of loaded sessions
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close flushes every loaded session and forgets them
func (r *SessionRegistry) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for id, sess := range r.sessions {
		if err := sess.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("device %s: %w", id, err))
		}
	}
	r.logger.Info("Sessions flushed", zap.Int("sessions", len(r.sessions)), zap.Int("errors", len(errs)))
	r.sessions = make(map[string]*Session)
	return errors.Join(errs...)
}
