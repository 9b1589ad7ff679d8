package repository

import (
	"context"
	"fmt"
	"time"

	"clinicops/pkg/config"
	"clinicops/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const WriteLockCollectionName = "Write_locks"

// WriteLockRepository provides operations for advisory locks serializing
// channel and budget writes per (tenant, key).
type WriteLockRepository interface {
	Acquire(ctx context.Context, tenantID int64, key string) (*model.WriteLock, error)
	Release(ctx context.Context, lockID string) error
}

type mongoWriteLockRepository struct {
	collection *mongo.Collection
}

func NewMongoWriteLockRepository(cfg *config.Config) WriteLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoWriteLockRepository{
		collection: db.Collection(WriteLockCollectionName),
	}
}

// Acquire inserts the lock document. A duplicate key error means another
// writer holds the lock.
func (r *mongoWriteLockRepository) Acquire(ctx context.Context, tenantID int64, key string) (*model.WriteLock, error) {
	lock := &model.WriteLock{
		ID:        fmt.Sprintf("%d:%s", tenantID, key),
		TenantID:  tenantID,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		return nil, err
	}
	return lock, nil
}

func (r *mongoWriteLockRepository) Release(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	return err
}
