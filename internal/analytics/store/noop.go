package store

import (
	"context"
	"time"

	"github.com/quickqr/engine/internal/analytics"
	"go.uber.org/zap"
)

// Noop logs events instead of persisting them. Used when the aggregator
// runs without a configured database.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new no-op analytics store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveScan(_ context.Context, event *analytics.ScanEvent) error {
	n.logger.Info("scan event received",
		zap.String("code", event.Code),
		zap.String("outcome", string(event.Outcome)),
		zap.Time("timestamp", event.Timestamp),
	)

	return nil
}

func (n *Noop) SaveDownload(_ context.Context, event *analytics.DownloadEvent) error {
	n.logger.Info("download event received",
		zap.String("code", event.Code),
		zap.String("format", event.Format),
		zap.Time("timestamp", event.Timestamp),
	)

	return nil
}

func (n *Noop) CountsFor(_ context.Context, _ string, _, _ time.Time) (*analytics.Summary, error) {
	return &analytics.Summary{ByDay: []analytics.DayCount{}}, nil
}

// Compile-time check.
var _ analytics.Store = (*Noop)(nil)
