package ratelimit

import (
	"context"
	"time"
)

// Store persists request counts per key. Record accounts one request and
// returns how many landed inside the current window, pruning entries that
// fell out of it.
type Store interface {
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}
