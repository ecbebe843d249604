package analytics

import (
	"context"
	"time"
)

// DayCount is the number of allowed scans in one UTC day.
type DayCount struct {
	Day   string `json:"day"`
	Scans int64  `json:"scans"`
}

// Summary is the aggregate view of a code's ledger over a time range.
type Summary struct {
	Scans      int64      `json:"scans"`
	Blocked    int64      `json:"blocked"`
	Downloads  int64      `json:"downloads"`
	LastScanAt *time.Time `json:"lastScanAt,omitempty"`
	ByDay      []DayCount `json:"byDay"`
}

// Store persists ledger events and serves aggregate queries.
//
// Saves must be idempotent on EventID: the redis-stream transport delivers
// at least once, and a duplicate save counts nothing twice.
type Store interface {
	SaveScan(ctx context.Context, event *ScanEvent) error
	SaveDownload(ctx context.Context, event *DownloadEvent) error
	CountsFor(ctx context.Context, code string, from, to time.Time) (*Summary, error)
}
