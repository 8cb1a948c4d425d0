package store

import (
	"context"
	"time"

	"github.com/tutur3u/timegrid/internal/metrics"
)

// observeDB times one repository call. Use as `defer observeDB(ctx, op)()`.
func observeDB(ctx context.Context, operation string) func() {
	start := time.Now()
	return func() {
		metrics.ObserveDBLatency(ctx, operation, start)
	}
}
