package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/shrutimovaliya24/softcool/internal/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// JSONStore reads and writes typed values over a Store.
//
// Load is fail-soft: a missing key reports found=false, and a value that does
// not decode is purged and also reported as found=false. Neither surfaces as
// an error; only backend failures do.
type JSONStore struct {
	store   Store
	logger  *zap.Logger
	metrics *metrics.AppMetrics
}

// NewJSON wraps s
func NewJSON(s Store, logger *zap.Logger, m *metrics.AppMetrics) *JSONStore {
	return &JSONStore{store: s, logger: logger, metrics: m}
}

// Load decodes key into dst. dst must be a non-nil pointer; it is
// left untouched unless found is true.
func (j *JSONStore) Load(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := j.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	// decode into a fresh value so a type mismatch cannot half-fill dst
	target := reflect.ValueOf(dst)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return false, fmt.Errorf("load %s: destination must be a non-nil pointer", key)
	}
	fresh := reflect.New(target.Type().Elem())
	if err := json.Unmarshal(raw, fresh.Interface()); err != nil {
		j.purge(ctx, key, err)
		return false, nil
	}
	target.Elem().Set(fresh.Elem())
	return true, nil
}

// Save encodes v and writes the whole value under key
func (j *JSONStore) Save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := j.store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes key
func (j *JSONStore) Delete(ctx context.Context, key string) error {
	if err := j.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (j *JSONStore) purge(ctx context.Context, key string, cause error) {
	j.logger.Warn("Purging unreadable store entry",
		zap.String("key", key),
		zap.Error(cause))
	j.metrics.Add(ctx, j.metrics.StoreKeysPurged, 1, attribute.String("store.key", BaseKey(key)))
	if err := j.store.Delete(ctx, key); err != nil {
		j.logger.Error("Failed to purge store entry", zap.String("key", key), zap.Error(err))
	}
}
