package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shrutimovaliya24/softcool/internal/metrics"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCollection is the collection values are kept in.
const MongoCollection = "kv_store"

type kvDocument struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoStore persists values as documents keyed by _id
type MongoStore struct {
	coll    *mongo.Collection
	metrics *metrics.AppMetrics
}

// NewMongoStore creates a store over coll
func NewMongoStore(coll *mongo.Collection, m *metrics.AppMetrics) *MongoStore {
	return &MongoStore{coll: coll, metrics: m}
}

func (s *MongoStore) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()

	var doc kvDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	s.metrics.RecordStoreOp(ctx, "mongodb", "GET", BaseKey(key), start, err == nil || errors.Is(err, mongo.ErrNoDocuments))

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find key: %w", err)
	}
	return []byte(doc.Value), nil
}

func (s *MongoStore) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()

	update := bson.M{"$set": bson.M{"value": string(value), "updatedAt": time.Now().UTC()}}
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	s.metrics.RecordStoreOp(ctx, "mongodb", "SET", BaseKey(key), start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to upsert key: %w", err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, key string) error {
	start := time.Now()

	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": key})
	s.metrics.RecordStoreOp(ctx, "mongodb", "DELETE", BaseKey(key), start, err == nil)
	if err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}
