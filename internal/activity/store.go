// Package activity persists the append-only activity log derived from
// quote domain events.
package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotedesk/quotedesk/internal/quote"
)

// Entry is a single activity log row.
type Entry struct {
	ID          uuid.UUID    `json:"id"`
	EventType   string       `json:"event_type"`
	QuoteID     uuid.UUID    `json:"quote_id"`
	OwnerID     uuid.UUID    `json:"owner_id"`
	ActorID     uuid.UUID    `json:"actor_id"`
	QuoteNumber string       `json:"quote_number"`
	FromStatus  quote.Status `json:"from_status,omitempty"`
	ToStatus    quote.Status `json:"to_status,omitempty"`
	OccurredAt  time.Time    `json:"occurred_at"`
}

// Store writes and reads activity log entries.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store backed by the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Record appends one entry for the given domain event.
func (s *Store) Record(ctx context.Context, ev quote.Event) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO activity_logs (id, event_type, quote_id, owner_id, actor_id, quote_number, from_status, to_status, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`, uuid.New(), ev.Type, ev.QuoteID, ev.OwnerID, ev.ActorID, ev.QuoteNumber, string(ev.FromStatus), string(ev.ToStatus))
	if err != nil {
		return fmt.Errorf("insert activity entry: %w", err)
	}
	return nil
}

// Prune deletes entries older than the retention window and reports how
// many rows were removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM activity_logs WHERE occurred_at < $1
	`, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("prune activity entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListByOwner returns the most recent entries for one owner, newest first.
func (s *Store) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, event_type, quote_id, owner_id, actor_id, quote_number, from_status, to_status, occurred_at
		FROM activity_logs
		WHERE owner_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var from, to string
		if err := rows.Scan(&e.ID, &e.EventType, &e.QuoteID, &e.OwnerID, &e.ActorID, &e.QuoteNumber, &from, &to, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan activity entry: %w", err)
		}
		e.FromStatus = quote.Status(from)
		e.ToStatus = quote.Status(to)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
