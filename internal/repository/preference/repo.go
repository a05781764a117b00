// Package preference persists per-user delivery preferences. Records are
// created with defaults on first use and reset rather than deleted.
package preference

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wb-go/wbf/dbpg"

	"github.com/storelane/notification-service/internal/model"
)

var ErrPreferenceNotFound = errors.New("preference not found")

// Repository provides access to the recipient_preferences table.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new preference repository.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// Get retrieves the user's preference record.
func (r *Repository) Get(ctx context.Context, userID string) (model.RecipientPreference, error) {
	query := `
		SELECT user_id, channels, categories, quiet_start, quiet_end, timezone, updated_at
		FROM recipient_preferences
		WHERE user_id = $1;
    `

	var (
		p          model.RecipientPreference
		channels   []byte
		categories []byte
	)

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &channels, &categories, &p.QuietStart, &p.QuietEnd, &p.Timezone, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RecipientPreference{}, ErrPreferenceNotFound
		}
		return model.RecipientPreference{}, fmt.Errorf("failed to get preferences: %w", err)
	}

	if err := json.Unmarshal(channels, &p.Channels); err != nil {
		return model.RecipientPreference{}, fmt.Errorf("unmarshal channels: %w", err)
	}
	if err := json.Unmarshal(categories, &p.Categories); err != nil {
		return model.RecipientPreference{}, fmt.Errorf("unmarshal categories: %w", err)
	}

	return p, nil
}

// Upsert writes the user's preference record, replacing any existing one.
func (r *Repository) Upsert(ctx context.Context, p model.RecipientPreference) error {
	query := `
		INSERT INTO recipient_preferences (
		    user_id, channels, categories, quiet_start, quiet_end, timezone, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (user_id) DO UPDATE SET
		    channels = EXCLUDED.channels,
		    categories = EXCLUDED.categories,
		    quiet_start = EXCLUDED.quiet_start,
		    quiet_end = EXCLUDED.quiet_end,
		    timezone = EXCLUDED.timezone,
		    updated_at = now();
    `

	channels, err := json.Marshal(p.Channels)
	if err != nil {
		return fmt.Errorf("marshal channels: %w", err)
	}
	categories, err := json.Marshal(p.Categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query, p.UserID, channels, categories, p.QuietStart, p.QuietEnd, p.Timezone)
	if err != nil {
		return fmt.Errorf("failed to upsert preferences: %w", err)
	}

	return nil
}
