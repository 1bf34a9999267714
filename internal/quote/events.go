package quote

import (
	"context"

	"github.com/google/uuid"
)

// Domain event types written to the activity log.
const (
	EventQuoteCreated       = "quote.created"
	EventQuoteStatusChanged = "quote.status_changed"
)

// Event is a fire-and-forget notification about a quote mutation. Delivery
// is best effort: a failed record never blocks or rolls back the mutation
// it reports.
type Event struct {
	Type        string    `json:"type"`
	QuoteID     uuid.UUID `json:"quote_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	ActorID     uuid.UUID `json:"actor_id"`
	QuoteNumber string    `json:"quote_number"`
	FromStatus  Status    `json:"from_status,omitempty"`
	ToStatus    Status    `json:"to_status,omitempty"`
}

// Recorder accepts domain events on behalf of the activity-log collaborator.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// NopRecorder discards events.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Event) error { return nil }
