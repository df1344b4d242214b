package services

import (
	"context"
	"slices"
	"sync"

	"github.com/shrutimovaliya24/softcool/internal/metrics"
	"github.com/shrutimovaliya24/softcool/internal/store"
	"github.com/shrutimovaliya24/softcool/internal/verify"
)

// VerifiedEmails remembers addresses that completed an OAuth round trip
type VerifiedEmails struct {
	mu      sync.Mutex
	store   *store.JSONStore
	metrics *metrics.AppMetrics
}

// NewVerifiedEmails creates the registry over the server namespace store
func NewVerifiedEmails(st *store.JSONStore, m *metrics.AppMetrics) *VerifiedEmails {
	return &VerifiedEmails{store: st, metrics: m}
}

// Add records email, normalized, if it is not already present
func (v *VerifiedEmails) Add(ctx context.Context, email string) error {
	email = verify.Normalize(email)

	v.mu.Lock()
	defer v.mu.Unlock()

	emails, err := v.load(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(emails, email) {
		return nil
	}

	if err := v.store.Save(ctx, store.KeyVerifiedEmails, append(emails, email)); err != nil {
		return err
	}
	v.metrics.Add(ctx, v.metrics.VerifiedEmailsAdd, 1)
	return nil
}

// IsVerified reports whether email was recorded
func (v *VerifiedEmails) IsVerified(ctx context.Context, email string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	emails, err := v.load(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(emails, verify.Normalize(email)), nil
}

func (v *VerifiedEmails) load(ctx context.Context) ([]string, error) {
	var emails []string
	if _, err := v.store.Load(ctx, store.KeyVerifiedEmails, &emails); err != nil {
		return nil, err
	}
	return emails, nil
}
