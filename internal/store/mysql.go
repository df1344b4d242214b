package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shrutimovaliya24/softcool/internal/db"
	"github.com/shrutimovaliya24/softcool/internal/metrics"
)

const (
	getQuery    = "SELECT v FROM kv_store WHERE k = ?"
	setQuery    = "INSERT INTO kv_store (k, v) VALUES (?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v)"
	deleteQuery = "DELETE FROM kv_store WHERE k = ?"
)

// SQLStore persists values in the kv_store MySQL table
type SQLStore struct {
	db      *db.DB
	metrics *metrics.AppMetrics
}

// NewSQLStore creates a store over database. The schema must already exist.
func NewSQLStore(database *db.DB, m *metrics.AppMetrics) *SQLStore {
	return &SQLStore{db: database, metrics: m}
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()

	var v []byte
	err := s.db.QueryRowContext(ctx, getQuery, key).Scan(&v)
	s.metrics.RecordStoreOp(ctx, "mysql", "GET", BaseKey(key), start, err == nil || errors.Is(err, sql.ErrNoRows))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	return v, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()

	_, err := s.db.ExecContext(ctx, setQuery, key, string(value))
	s.metrics.RecordStoreOp(ctx, "mysql", "SET", BaseKey(key), start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	start := time.Now()

	_, err := s.db.ExecContext(ctx, deleteQuery, key)
	s.metrics.RecordStoreOp(ctx, "mysql", "DELETE", BaseKey(key), start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}
