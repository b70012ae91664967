package store

import (
	"context"
)

// RecordDelivery appends one audit row for a processed webhook event.
// Insert-only on purpose: the platform retries failed deliveries and the
// bot must not suppress them, so this table never drives dedup.
func (d *DB) RecordDelivery(ctx context.Context, eventType, userID, payloadSHA, status string) error {
	if d == nil || d.SQL == nil {
		return nil
	}
	const q = `
INSERT INTO webhook_deliveries (event_type, user_id, payload_sha256, status, created_at)
VALUES ($1, $2, $3, $4, now())
`
	_, err := d.SQL.ExecContext(ctx, q, eventType, userID, payloadSHA, status)
	return err
}
