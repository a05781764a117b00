// Package attempt persists the append-only delivery ledger. Attempt rows are
// written before any status transition and never updated; callback outcomes
// append superseding rows keyed by the provider's external message id.
package attempt

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/dbpg"

	"github.com/storelane/notification-service/internal/model"
)

var ErrAttemptNotFound = errors.New("delivery attempt not found")

// Repository provides access to the delivery_attempts table.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new delivery-attempt repository.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// Record appends one attempt row to the ledger.
func (r *Repository) Record(ctx context.Context, a model.DeliveryAttempt) error {
	query := `
		INSERT INTO delivery_attempts (
		    notification_id, channel, attempt_number, outcome, external_id,
		    provider_response, failure_reason, sent_at, delivered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
    `

	_, err := r.db.ExecContext(
		ctx, query,
		a.NotificationID, a.Channel, a.AttemptNumber, a.Outcome, a.ExternalID,
		a.ProviderResponse, a.FailureReason, a.SentAt, a.DeliveredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record delivery attempt: %w", err)
	}

	return nil
}

// ListByNotification returns all ledger entries for a notification in append
// order.
func (r *Repository) ListByNotification(ctx context.Context, notificationID uuid.UUID) ([]model.DeliveryAttempt, error) {
	query := `
		SELECT id, notification_id, channel, attempt_number, outcome, external_id,
		       provider_response, failure_reason, sent_at, delivered_at
		FROM delivery_attempts
		WHERE notification_id = $1
		ORDER BY sent_at ASC, id ASC;
    `

	rows, err := r.db.QueryContext(ctx, query, notificationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery attempts: %w", err)
	}
	defer rows.Close()

	var attempts []model.DeliveryAttempt
	for rows.Next() {
		var a model.DeliveryAttempt
		err := rows.Scan(
			&a.ID, &a.NotificationID, &a.Channel, &a.AttemptNumber, &a.Outcome, &a.ExternalID,
			&a.ProviderResponse, &a.FailureReason, &a.SentAt, &a.DeliveredAt,
		)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}

	return attempts, rows.Err()
}

// LatestByExternalID returns the most recent ledger entry carrying the given
// provider message id. Callback correlation keys on the external id, not the
// internal attempt number, so ids never collide across notifications.
func (r *Repository) LatestByExternalID(ctx context.Context, externalID string) (model.DeliveryAttempt, error) {
	query := `
		SELECT id, notification_id, channel, attempt_number, outcome, external_id,
		       provider_response, failure_reason, sent_at, delivered_at
		FROM delivery_attempts
		WHERE external_id = $1
		ORDER BY sent_at DESC, id DESC
		LIMIT 1;
    `

	var a model.DeliveryAttempt
	err := r.db.QueryRowContext(ctx, query, externalID).Scan(
		&a.ID, &a.NotificationID, &a.Channel, &a.AttemptNumber, &a.Outcome, &a.ExternalID,
		&a.ProviderResponse, &a.FailureReason, &a.SentAt, &a.DeliveredAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.DeliveryAttempt{}, ErrAttemptNotFound
		}
		return model.DeliveryAttempt{}, fmt.Errorf("failed to find delivery attempt: %w", err)
	}

	return a, nil
}
