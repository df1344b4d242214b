// Package store is the persistent key-value layer behind the cart, favorites,
// orders and identity state. Values are opaque JSON blobs; there are no
// transactions and no locking across writers, so the last write wins.
package store

import (
	"context"
	"errors"
	"strings"
)

// Keys persisted per device.
const (
	KeyCart        = "cart"
	KeyFavorites   = "favorites"
	KeyOrders      = "orders"
	KeyUser        = "user"
	KeyHasSignedUp = "hasSignedUp"

	// KeyVerifiedEmails lives in the server namespace, not a device one.
	KeyVerifiedEmails = "verified-emails"
)

// ErrNotFound is returned by Get when the key has never been set.
var ErrNotFound = errors.New("key not found")

// Store is a durable key-value store of raw JSON values.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type scoped struct {
	parent Store
	prefix string
}

// Scoped returns a view of s where every key is prefixed with namespace.
// Each device gets its own namespace, mirroring one browser's storage.
func Scoped(s Store, namespace string) Store {
	return &scoped{parent: s, prefix: namespace + ":"}
}

func (s *scoped) Get(ctx context.Context, key string) ([]byte, error) {
	return s.parent.Get(ctx, s.prefix+key)
}

func (s *scoped) Set(ctx context.Context, key string, value []byte) error {
	return s.parent.Set(ctx, s.prefix+key, value)
}

func (s *scoped) Delete(ctx context.Context, key string) error {
	return s.parent.Delete(ctx, s.prefix+key)
}

// BaseKey strips any namespace prefixes from key. Metrics use it so that
// device ids never become attribute values.
func BaseKey(key string) string {
	if i := strings.LastIndexByte(key, ':'); i >= 0 {
		return key[i+1:]
	}
	return key
}
