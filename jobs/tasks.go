package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/quotedesk/quotedesk/internal/activity"
	"github.com/quotedesk/quotedesk/internal/quote"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeActivityRecord appends a quote domain event to the activity log.
	TaskTypeActivityRecord = "activity:record"
	// TaskTypeActivityPrune trims activity entries past the retention window.
	TaskTypeActivityPrune = "activity:prune"
)

// activityRetention bounds how long log entries are kept.
const activityRetention = 365 * 24 * time.Hour

// NewActivityRecordTask constructs an Asynq task carrying one domain event.
func NewActivityRecordTask(ev quote.Event) (*asynq.Task, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeActivityRecord, data), nil
}

// HandleActivityRecordTask returns a handler that persists recorded events.
func HandleActivityRecordTask(store *activity.Store) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var ev quote.Event
		if err := json.Unmarshal(t.Payload(), &ev); err != nil {
			return asynq.SkipRetry
		}
		return store.Record(ctx, ev)
	}
}

// NewActivityPruneTask constructs the scheduled retention sweep task.
func NewActivityPruneTask() *asynq.Task {
	return asynq.NewTask(TaskTypeActivityPrune, nil)
}

// HandleActivityPruneTask returns a handler that removes stale entries.
func HandleActivityPruneTask(store *activity.Store, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		removed, err := store.Prune(ctx, activityRetention)
		if err != nil {
			return err
		}
		if logger != nil {
			logger.Info("activity prune complete", slog.Int64("removed", removed))
		}
		return nil
	}
}
