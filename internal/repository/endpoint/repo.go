// Package endpoint persists the contact endpoints a user can be reached at.
// Permanent provider failures invalidate individual endpoints here so dead
// tokens and addresses are never attempted again.
package endpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wb-go/wbf/dbpg"

	"github.com/storelane/notification-service/internal/model"
)

var ErrEndpointsNotFound = errors.New("recipient endpoints not found")

// Repository provides access to the recipient_endpoints table.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new endpoint repository.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// Get retrieves the user's contact endpoints. Invalidated email/phone come
// back empty so callers never see dead endpoints.
func (r *Repository) Get(ctx context.Context, userID string) (model.RecipientEndpoints, error) {
	query := `
		SELECT user_id, device_tokens,
		       CASE WHEN email_valid THEN email ELSE '' END,
		       CASE WHEN phone_valid THEN phone ELSE '' END,
		       chat_id
		FROM recipient_endpoints
		WHERE user_id = $1;
    `

	var (
		ep     model.RecipientEndpoints
		tokens []byte
	)

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&ep.UserID, &tokens, &ep.Email, &ep.Phone, &ep.ChatID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RecipientEndpoints{}, ErrEndpointsNotFound
		}
		return model.RecipientEndpoints{}, fmt.Errorf("failed to get endpoints: %w", err)
	}

	if len(tokens) > 0 {
		if err := json.Unmarshal(tokens, &ep.DeviceTokens); err != nil {
			return model.RecipientEndpoints{}, fmt.Errorf("unmarshal device tokens: %w", err)
		}
	}

	return ep, nil
}

// RemoveDeviceToken drops one dead device token from the user's token set.
func (r *Repository) RemoveDeviceToken(ctx context.Context, userID, token string) error {
	query := `
		UPDATE recipient_endpoints
		SET device_tokens = device_tokens - $2
		WHERE user_id = $1;
    `

	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("failed to remove device token: %w", err)
	}

	return nil
}

// InvalidateEmail marks the user's email address undeliverable.
func (r *Repository) InvalidateEmail(ctx context.Context, userID string) error {
	query := `
		UPDATE recipient_endpoints
		SET email_valid = FALSE
		WHERE user_id = $1;
    `

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to invalidate email: %w", err)
	}

	return nil
}

// InvalidatePhone marks the user's phone number undeliverable.
func (r *Repository) InvalidatePhone(ctx context.Context, userID string) error {
	query := `
		UPDATE recipient_endpoints
		SET phone_valid = FALSE
		WHERE user_id = $1;
    `

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to invalidate phone: %w", err)
	}

	return nil
}
