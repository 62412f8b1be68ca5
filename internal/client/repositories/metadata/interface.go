// Package metadata stores small engine-wide key/value facts in the local
// SQLite store, such as the time of the last confirmed sync.
package metadata

import (
	"context"
	"time"
)

const (
	KeyLastSyncedAt = "last_synced_at"
	KeyLastPulledAt = "last_pulled_at"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)

	// GetTime decodes a timestamp value; a missing key yields (nil, nil).
	GetTime(ctx context.Context, key string) (*time.Time, error)
	SetTime(ctx context.Context, key string, t time.Time) error
}
