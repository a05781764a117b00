// Package queue persists the durable dispatch queue. Items are ordered by
// priority weight then not-before; ready items are claimed atomically with
// SKIP LOCKED so concurrent consumers never double-dequeue.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"github.com/storelane/notification-service/internal/model"
)

// Repository provides access to the queue_items table.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new queue repository.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// Enqueue adds a notification to the dispatch queue.
func (r *Repository) Enqueue(ctx context.Context, item model.QueueItem) error {
	query := `
		INSERT INTO queue_items (notification_id, priority, not_before, enqueued_at)
		VALUES ($1, $2, $3, now());
    `

	_, err := r.db.ExecContext(ctx, query, item.NotificationID, item.Priority.Weight(), item.NotBefore)
	if err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}

	return nil
}

// DequeueReady atomically claims up to limit ready items. The single
// DELETE ... SELECT FOR UPDATE SKIP LOCKED statement guarantees each item is
// handed to exactly one consumer even under concurrent polling.
func (r *Repository) DequeueReady(ctx context.Context, limit int) ([]model.QueueItem, error) {
	query := `
		DELETE FROM queue_items
		WHERE id IN (
		    SELECT id FROM queue_items
		    WHERE not_before <= now()
		    ORDER BY priority DESC, not_before ASC
		    LIMIT $1
		    FOR UPDATE SKIP LOCKED
		)
		RETURNING notification_id, priority, not_before, enqueued_at;
    `

	// the claim deletes rows, so it must hit the master; the pooled
	// QueryContext would route it to a read replica when slaves are set
	rows, err := r.db.Master.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue ready items: %w", err)
	}
	defer rows.Close()

	var items []model.QueueItem
	for rows.Next() {
		var (
			item   model.QueueItem
			weight int
		)
		if err := rows.Scan(&item.NotificationID, &weight, &item.NotBefore, &item.EnqueuedAt); err != nil {
			return nil, err
		}
		item.Priority = priorityFromWeight(weight)
		items = append(items, item)
	}

	return items, rows.Err()
}

// RequeueWithDelay re-inserts a notification with a future not-before, used
// by the backoff path.
func (r *Repository) RequeueWithDelay(ctx context.Context, notificationID uuid.UUID, priority model.Priority, delay time.Duration) error {
	query := `
		INSERT INTO queue_items (notification_id, priority, not_before, enqueued_at)
		VALUES ($1, $2, now() + $3 * interval '1 millisecond', now());
    `

	_, err := r.db.ExecContext(ctx, query, notificationID, priority.Weight(), delay.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to requeue notification: %w", err)
	}

	return nil
}

// Remove drops a queued item, used when a pending notification is cancelled
// before dispatch. Returns the number of rows removed.
func (r *Repository) Remove(ctx context.Context, notificationID uuid.UUID) (int64, error) {
	query := `
		DELETE FROM queue_items
		WHERE notification_id = $1;
    `

	res, err := r.db.ExecContext(ctx, query, notificationID)
	if err != nil {
		return 0, fmt.Errorf("failed to remove queue item: %w", err)
	}

	rows, _ := res.RowsAffected()
	return rows, nil
}

// Depth returns the number of items currently waiting in the queue.
func (r *Repository) Depth(ctx context.Context) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM queue_items;
    `

	var depth int
	if err := r.db.QueryRowContext(ctx, query).Scan(&depth); err != nil {
		return 0, fmt.Errorf("failed to get queue depth: %w", err)
	}

	return depth, nil
}

func priorityFromWeight(w int) model.Priority {
	switch w {
	case 2:
		return model.PriorityHigh
	case 1:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}
