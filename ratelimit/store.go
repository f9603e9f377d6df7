package ratelimit

//go:generate mockgen -source=store.go -destination=../internal/mock/ratelimit_store_mock.go -package=mock

import (
	"context"
	"time"
)

// Record is the counter for one client key within one window.
type Record struct {
	Key         string
	Count       int
	WindowStart time.Time
}

// Store counts requests per key. Take must be atomic per key:
//
//   - with no record, or when now is at or past WindowStart+window, the
//     record is reset to Count 1 starting at now;
//   - otherwise Count is incremented, but never beyond limit+1.
//
// Take returns the record as it stands after the update.
type Store interface {
	Take(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Record, error)
}
