package notification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/wb-go/wbf/dbpg"

	"github.com/storelane/notification-service/internal/model"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrRetriesExhausted     = errors.New("retries exhausted")
)

// ListFilter narrows ListForUser results.
type ListFilter struct {
	Status     model.Status
	Type       model.Type
	OnlyUnread bool
	Limit      int
	Offset     int
}

// Repository provides access to the notifications table.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new notification repository.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new notification and returns its ID.
func (r *Repository) Create(ctx context.Context, n model.Notification) (uuid.UUID, error) {
	query := `
		INSERT INTO notifications (
		    user_id, type, title, body, data, priority, channels, template,
		    scheduled_at, expires_at, status, retry_count, max_retries
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id;
    `

	data, err := json.Marshal(n.Data)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal data payload: %w", err)
	}

	channels, err := json.Marshal(n.Channels)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal channel override: %w", err)
	}

	// the insert must hit the master, not a read replica
	err = r.db.Master.QueryRowContext(
		ctx, query,
		n.UserID, n.Type, n.Title, n.Body, data, n.Priority, channels, n.Template,
		n.ScheduledAt, n.ExpiresAt, n.Status, n.RetryCount, n.MaxRetries,
	).Scan(&n.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return n.ID, nil
}

// GetByID retrieves a full notification record.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (model.Notification, error) {
	query := `
		SELECT id, user_id, type, title, body, data, priority, channels, template,
		       scheduled_at, expires_at, status, retry_count, max_retries,
		       read, read_at, created_at, updated_at
		FROM notifications
		WHERE id = $1;
    `

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Notification{}, ErrNotificationNotFound
		}
		return model.Notification{}, fmt.Errorf("failed to get notification: %w", err)
	}

	return n, nil
}

// GetStatusByID retrieves only the status of a notification.
func (r *Repository) GetStatusByID(ctx context.Context, id uuid.UUID) (model.Status, error) {
	query := `
		SELECT status
		FROM notifications
		WHERE id = $1;
    `

	var status model.Status
	err := r.db.QueryRowContext(ctx, query, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotificationNotFound
		}
		return "", fmt.Errorf("failed to get notification status: %w", err)
	}

	return status, nil
}

// UpdateStatus advances a notification to the given status. The update is
// guarded by the transition graph: it only applies when the current status is
// a legal predecessor, which also serializes racing workers.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status) error {
	allowed := model.AllowedFrom(status)
	if len(allowed) == 0 {
		return ErrInvalidTransition
	}

	from := make([]string, len(allowed))
	for i, s := range allowed {
		from[i] = string(s)
	}

	query := `
		UPDATE notifications
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = ANY($3);
    `

	res, err := r.db.ExecContext(ctx, query, status, id, pq.Array(from))
	if err != nil {
		return fmt.Errorf("failed to update notification status: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		if _, err := r.GetStatusByID(ctx, id); errors.Is(err, ErrNotificationNotFound) {
			return ErrNotificationNotFound
		}
		return ErrInvalidTransition
	}

	return nil
}

// IncrementRetry bumps the retry counter, refusing to pass max_retries.
func (r *Repository) IncrementRetry(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE notifications
		SET retry_count = retry_count + 1, updated_at = now()
		WHERE id = $1 AND retry_count < max_retries;
    `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment retry count: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrRetriesExhausted
	}

	return nil
}

// ListForUser retrieves the user's notifications, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID string, f ListFilter) ([]model.Notification, error) {
	query := `
		SELECT id, user_id, type, title, body, data, priority, channels, template,
		       scheduled_at, expires_at, status, retry_count, max_retries,
		       read, read_at, created_at, updated_at
		FROM notifications
		WHERE user_id = $1
		  AND ($2 = '' OR status = $2)
		  AND ($3 = '' OR type = $3)
		  AND (NOT $4 OR read = FALSE)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6;
    `

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, query, userID, string(f.Status), string(f.Type), f.OnlyUnread, limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// MarkRead flags the notification as read for the user. The status advances
// to read only from delivered; otherwise only the read flag changes.
func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID, userID string) error {
	query := `
		UPDATE notifications
		SET read = TRUE,
		    read_at = COALESCE(read_at, now()),
		    status = CASE WHEN status = 'delivered' THEN 'read' ELSE status END,
		    updated_at = now()
		WHERE id = $1 AND user_id = $2;
    `

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrNotificationNotFound
	}

	return nil
}

// UnreadCount returns the number of unread notifications for the user.
func (r *Repository) UnreadCount(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM notifications
		WHERE user_id = $1 AND read = FALSE;
    `

	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanNotification(row scanner) (model.Notification, error) {
	var (
		n        model.Notification
		data     []byte
		channels []byte
	)

	err := row.Scan(
		&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &data, &n.Priority, &channels, &n.Template,
		&n.ScheduledAt, &n.ExpiresAt, &n.Status, &n.RetryCount, &n.MaxRetries,
		&n.Read, &n.ReadAt, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return model.Notification{}, err
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return model.Notification{}, fmt.Errorf("unmarshal data payload: %w", err)
		}
	}
	if len(channels) > 0 {
		if err := json.Unmarshal(channels, &n.Channels); err != nil {
			return model.Notification{}, fmt.Errorf("unmarshal channel override: %w", err)
		}
	}

	return n, nil
}
