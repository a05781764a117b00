package preference

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storelane/notification-service/internal/model"
	prefrepo "github.com/storelane/notification-service/internal/repository/preference"
)

type fakeRepo struct {
	stored *model.RecipientPreference
	getErr error
}

func (r *fakeRepo) Get(_ context.Context, _ string) (model.RecipientPreference, error) {
	if r.getErr != nil {
		return model.RecipientPreference{}, r.getErr
	}
	return *r.stored, nil
}

func (r *fakeRepo) Upsert(_ context.Context, p model.RecipientPreference) error {
	r.stored = &p
	return nil
}

func TestGet_FallsBackToDefaults(t *testing.T) {
	s := NewService(&fakeRepo{getErr: prefrepo.ErrPreferenceNotFound})

	p, err := s.Get(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.True(t, p.ChannelEnabled(model.ChannelPush))
	assert.Empty(t, p.QuietStart)
}

func TestUpdate_ValidatesQuietHours(t *testing.T) {
	repo := &fakeRepo{}
	s := NewService(repo)

	err := s.Update(context.Background(), model.RecipientPreference{
		UserID:     "u1",
		QuietStart: "22:00",
	})
	assert.ErrorIs(t, err, ErrInvalidQuietHours)

	err = s.Update(context.Background(), model.RecipientPreference{
		UserID:     "u1",
		QuietStart: "25:99",
		QuietEnd:   "08:00",
	})
	assert.ErrorIs(t, err, ErrInvalidQuietHours)

	err = s.Update(context.Background(), model.RecipientPreference{
		UserID:     "u1",
		QuietStart: "22:00",
		QuietEnd:   "08:00",
	})
	assert.NoError(t, err)
	assert.NotNil(t, repo.stored)
	assert.False(t, repo.stored.UpdatedAt.IsZero())
}

func TestUpdate_ValidatesTimezone(t *testing.T) {
	s := NewService(&fakeRepo{})

	err := s.Update(context.Background(), model.RecipientPreference{
		UserID:   "u1",
		Timezone: "Not/AZone",
	})
	assert.Error(t, err)

	err = s.Update(context.Background(), model.RecipientPreference{
		UserID:   "u1",
		Timezone: "Europe/Moscow",
	})
	assert.NoError(t, err)
}

func TestReset_StoresDefaults(t *testing.T) {
	repo := &fakeRepo{stored: &model.RecipientPreference{
		UserID:   "u1",
		Channels: map[model.Channel]bool{model.ChannelPush: false},
	}}
	s := NewService(repo)

	assert.NoError(t, s.Reset(context.Background(), "u1"))
	assert.True(t, repo.stored.ChannelEnabled(model.ChannelPush))
}
