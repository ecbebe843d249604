package analytics

import "time"

const (
	// TopicCodeScanned carries one event per resolve attempt, allowed or
	// blocked.
	TopicCodeScanned = "code.scanned"

	// TopicCodeDownloaded carries one event per rendered-image download.
	TopicCodeDownloaded = "code.downloaded"
)

// Outcome is the resolution decision recorded with a scan event.
type Outcome string

const (
	OutcomeAllowed          Outcome = "allowed"
	OutcomeBlockedExpired   Outcome = "blocked_expired"
	OutcomeBlockedExhausted Outcome = "blocked_exhausted"
	OutcomeBlockedDisabled  Outcome = "blocked_disabled"
)

// ClientMeta is opaque request metadata attached to events for the
// dashboard; resolution never branches on it.
type ClientMeta struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	Referrer  string `json:"referrer,omitempty"`
}

// ScanEvent is the append-only ledger entry for one resolve attempt.
// EventID doubles as the idempotency key: a redelivered message carries the
// same ID, and the aggregator stores each ID at most once.
type ScanEvent struct {
	EventID   string     `json:"eventId"`
	Code      string     `json:"code"`
	Timestamp time.Time  `json:"timestamp"`
	TargetURL string     `json:"targetUrl,omitempty"`
	Outcome   Outcome    `json:"outcome"`
	Client    ClientMeta `json:"client"`
}

// DownloadEvent records a PNG/SVG download of a rendered code image.
type DownloadEvent struct {
	EventID   string    `json:"eventId"`
	Code      string    `json:"code"`
	Format    string    `json:"format"`
	Timestamp time.Time `json:"timestamp"`
}
