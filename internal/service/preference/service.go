package preference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/storelane/notification-service/internal/model"
	prefrepo "github.com/storelane/notification-service/internal/repository/preference"
)

var ErrInvalidQuietHours = errors.New("quiet hours must be HH:MM or empty")

type preferenceRepository interface {
	Get(ctx context.Context, userID string) (model.RecipientPreference, error)
	Upsert(ctx context.Context, p model.RecipientPreference) error
}

type Service struct {
	repo preferenceRepository
}

func NewService(repo preferenceRepository) *Service {
	return &Service{repo: repo}
}

// Get returns the stored preferences, or the defaults for a user who never
// changed anything.
func (s *Service) Get(ctx context.Context, userID string) (model.RecipientPreference, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, prefrepo.ErrPreferenceNotFound) {
			return model.DefaultPreferences(userID), nil
		}
		return model.RecipientPreference{}, fmt.Errorf("get preferences: %w", err)
	}

	return p, nil
}

// Update validates and stores a full preference document for the user.
func (s *Service) Update(ctx context.Context, p model.RecipientPreference) error {
	if err := validateQuietHours(p.QuietStart, p.QuietEnd); err != nil {
		return err
	}

	if p.Timezone != "" {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			return fmt.Errorf("unknown timezone %q", p.Timezone)
		}
	}

	p.UpdatedAt = time.Now()

	if err := s.repo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}

	return nil
}

// Reset puts the user back on the defaults.
func (s *Service) Reset(ctx context.Context, userID string) error {
	p := model.DefaultPreferences(userID)
	p.UpdatedAt = time.Now()

	if err := s.repo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("reset preferences: %w", err)
	}

	return nil
}

func validateQuietHours(start, end string) error {
	if start == "" && end == "" {
		return nil
	}
	if start == "" || end == "" {
		return ErrInvalidQuietHours
	}

	for _, v := range []string{start, end} {
		if _, err := time.Parse("15:04", v); err != nil {
			return ErrInvalidQuietHours
		}
	}

	return nil
}
