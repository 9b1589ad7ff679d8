package model

import "time"

// WriteLock is an advisory lock document. The _id encodes the guarded
// (tenant, key) pair so the unique index on _id serializes writers.
type WriteLock struct {
	ID        string    `bson:"_id"`
	TenantID  int64     `bson:"tenant_id"`
	CreatedAt time.Time `bson:"created_at"`
}
