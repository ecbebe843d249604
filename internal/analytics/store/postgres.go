package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quickqr/engine/internal/analytics"
)

// Postgres is a PostgreSQL implementation of analytics.Store.
// Event inserts rely on the event_id primary key for idempotency, so
// at-least-once redelivery from the stream never double-counts.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a new PostgreSQL-backed analytics store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) SaveScan(ctx context.Context, event *analytics.ScanEvent) error {
	query := `
		INSERT INTO scan_events (event_id, code, occurred_at, target_url, outcome, client_meta)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING
	`

	clientMeta, err := json.Marshal(event.Client)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx, query,
		event.EventID,
		event.Code,
		event.Timestamp,
		event.TargetURL,
		string(event.Outcome),
		clientMeta,
	)

	return err
}

func (p *Postgres) SaveDownload(ctx context.Context, event *analytics.DownloadEvent) error {
	query := `
		INSERT INTO download_events (event_id, code, format, occurred_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO NOTHING
	`

	_, err := p.pool.Exec(ctx, query,
		event.EventID,
		event.Code,
		event.Format,
		event.Timestamp,
	)

	return err
}

func (p *Postgres) CountsFor(ctx context.Context, code string, from, to time.Time) (*analytics.Summary, error) {
	summary := &analytics.Summary{ByDay: []analytics.DayCount{}}

	from, to = defaultRange(from, to)

	scanQuery := `
		SELECT
			COUNT(*) FILTER (WHERE outcome = 'allowed'),
			COUNT(*) FILTER (WHERE outcome <> 'allowed'),
			MAX(occurred_at) FILTER (WHERE outcome = 'allowed')
		FROM scan_events
		WHERE code = $1 AND occurred_at >= $2 AND occurred_at < $3
	`

	var lastScanAt *time.Time

	err := p.pool.QueryRow(ctx, scanQuery, code, from, to).Scan(
		&summary.Scans,
		&summary.Blocked,
		&lastScanAt,
	)
	if err != nil {
		return nil, err
	}

	summary.LastScanAt = lastScanAt

	downloadQuery := `
		SELECT COUNT(*)
		FROM download_events
		WHERE code = $1 AND occurred_at >= $2 AND occurred_at < $3
	`

	if err := p.pool.QueryRow(ctx, downloadQuery, code, from, to).Scan(&summary.Downloads); err != nil {
		return nil, err
	}

	dayQuery := `
		SELECT to_char(occurred_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*)
		FROM scan_events
		WHERE code = $1 AND outcome = 'allowed' AND occurred_at >= $2 AND occurred_at < $3
		GROUP BY day
		ORDER BY day
	`

	rows, err := p.pool.Query(ctx, dayQuery, code, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var dc analytics.DayCount
		if err := rows.Scan(&dc.Day, &dc.Scans); err != nil {
			return nil, err
		}

		summary.ByDay = append(summary.ByDay, dc)
	}

	return summary, rows.Err()
}

func defaultRange(from, to time.Time) (time.Time, time.Time) {
	if from.IsZero() {
		from = time.Unix(0, 0).UTC()
	}

	if to.IsZero() {
		to = time.Now().UTC().Add(24 * time.Hour)
	}

	return from, to
}

// Compile-time check.
var _ analytics.Store = (*Postgres)(nil)
