package store

import (
	"context"
	"sync"
	"time"

	"github.com/shrutimovaliya24/softcool/internal/metrics"
)

// MemoryStore keeps values in process memory. State is lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	items   map[string][]byte
	metrics *metrics.AppMetrics
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(m *metrics.AppMetrics) *MemoryStore {
	return &MemoryStore{
		items:   make(map[string][]byte),
		metrics: m,
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	s.mu.RLock()
	v, ok := s.items[key]
	s.mu.RUnlock()
	s.metrics.RecordStoreOp(ctx, "memory", "GET", BaseKey(key), start, true)
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	s.mu.Lock()
	s.items[key] = append([]byte(nil), value...)
	s.mu.Unlock()
	s.metrics.RecordStoreOp(ctx, "memory", "SET", BaseKey(key), start, true)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	s.metrics.RecordStoreOp(ctx, "memory", "DELETE", BaseKey(key), start, true)
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
