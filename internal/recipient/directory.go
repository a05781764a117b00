// Package recipient resolves a user to their contact endpoints and delivery
// preferences, and owns endpoint invalidation on permanent provider failures.
package recipient

import (
	"context"
	"errors"
	"fmt"

	"github.com/wb-go/wbf/zlog"

	"github.com/storelane/notification-service/internal/model"
	"github.com/storelane/notification-service/internal/repository/endpoint"
	"github.com/storelane/notification-service/internal/repository/preference"
)

type endpointRepository interface {
	Get(ctx context.Context, userID string) (model.RecipientEndpoints, error)
	RemoveDeviceToken(ctx context.Context, userID, token string) error
	InvalidateEmail(ctx context.Context, userID string) error
	InvalidatePhone(ctx context.Context, userID string) error
}

type preferenceRepository interface {
	Get(ctx context.Context, userID string) (model.RecipientPreference, error)
	Upsert(ctx context.Context, p model.RecipientPreference) error
}

// Directory is the lookup surface the orchestrator and services use to reach
// a user.
type Directory struct {
	endpoints   endpointRepository
	preferences preferenceRepository
}

// NewDirectory creates a recipient directory over the given repositories.
func NewDirectory(endpoints endpointRepository, preferences preferenceRepository) *Directory {
	return &Directory{endpoints: endpoints, preferences: preferences}
}

// Endpoints returns the user's contact endpoints. A user with no endpoint
// record at all gets an empty projection; individual adapters treat missing
// endpoints as permanent failures.
func (d *Directory) Endpoints(ctx context.Context, userID string) (model.RecipientEndpoints, error) {
	ep, err := d.endpoints.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, endpoint.ErrEndpointsNotFound) {
			return model.RecipientEndpoints{UserID: userID}, nil
		}
		return model.RecipientEndpoints{}, fmt.Errorf("get endpoints: %w", err)
	}

	return ep, nil
}

// Preferences returns the user's delivery preferences, falling back to
// defaults for users who never customised anything.
func (d *Directory) Preferences(ctx context.Context, userID string) (model.RecipientPreference, error) {
	prefs, err := d.preferences.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, preference.ErrPreferenceNotFound) {
			return model.DefaultPreferences(userID), nil
		}
		return model.RecipientPreference{}, fmt.Errorf("get preferences: %w", err)
	}

	return prefs, nil
}

// Invalidate drops the endpoint behind a permanently failed channel so it is
// never attempted again. Device-token invalidation needs the specific token;
// for push the caller passes it through the endpoint argument.
func (d *Directory) Invalidate(ctx context.Context, userID string, ch model.Channel, endpointValue string) {
	var err error

	switch ch {
	case model.ChannelPush:
		if endpointValue == "" {
			return
		}
		err = d.endpoints.RemoveDeviceToken(ctx, userID, endpointValue)
	case model.ChannelEmail:
		err = d.endpoints.InvalidateEmail(ctx, userID)
	case model.ChannelSMS:
		err = d.endpoints.InvalidatePhone(ctx, userID)
	default:
		// chat and socket endpoints have no stored state to invalidate
		return
	}

	if err != nil {
		zlog.Logger.Error().Err(err).
			Str("user_id", userID).
			Str("channel", string(ch)).
			Msg("failed to invalidate endpoint")
	}
}
