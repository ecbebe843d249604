package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/quickqr/engine/internal/analytics"
)

// Memory is an in-memory analytics store used in tests and single-process
// deployments.
type Memory struct {
	mu        sync.Mutex
	seen      map[string]struct{}
	scans     map[string][]*analytics.ScanEvent
	downloads map[string][]*analytics.DownloadEvent
}

// NewMemory creates a new in-memory analytics store.
func NewMemory() *Memory {
	return &Memory{
		seen:      make(map[string]struct{}),
		scans:     make(map[string][]*analytics.ScanEvent),
		downloads: make(map[string][]*analytics.DownloadEvent),
	}
}

func (m *Memory) SaveScan(_ context.Context, event *analytics.ScanEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.seen[event.EventID]; dup {
		return nil
	}

	m.seen[event.EventID] = struct{}{}

	copied := *event
	m.scans[event.Code] = append(m.scans[event.Code], &copied)

	return nil
}

func (m *Memory) SaveDownload(_ context.Context, event *analytics.DownloadEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.seen[event.EventID]; dup {
		return nil
	}

	m.seen[event.EventID] = struct{}{}

	copied := *event
	m.downloads[event.Code] = append(m.downloads[event.Code], &copied)

	return nil
}

func (m *Memory) CountsFor(_ context.Context, code string, from, to time.Time) (*analytics.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	summary := &analytics.Summary{ByDay: []analytics.DayCount{}}
	byDay := make(map[string]int64)

	for _, event := range m.scans[code] {
		if !inRange(event.Timestamp, from, to) {
			continue
		}

		if event.Outcome != analytics.OutcomeAllowed {
			summary.Blocked++

			continue
		}

		summary.Scans++

		if summary.LastScanAt == nil || event.Timestamp.After(*summary.LastScanAt) {
			ts := event.Timestamp
			summary.LastScanAt = &ts
		}

		byDay[event.Timestamp.UTC().Format("2006-01-02")]++
	}

	for _, event := range m.downloads[code] {
		if inRange(event.Timestamp, from, to) {
			summary.Downloads++
		}
	}

	for day, scans := range byDay {
		summary.ByDay = append(summary.ByDay, analytics.DayCount{Day: day, Scans: scans})
	}

	sort.Slice(summary.ByDay, func(i, j int) bool {
		return summary.ByDay[i].Day < summary.ByDay[j].Day
	})

	return summary, nil
}

func inRange(ts, from, to time.Time) bool {
	if !from.IsZero() && ts.Before(from) {
		return false
	}

	if !to.IsZero() && !ts.Before(to) {
		return false
	}

	return true
}

// Compile-time check.
var _ analytics.Store = (*Memory)(nil)
