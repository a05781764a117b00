package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clockUTC(hour, minute int) time.Time {
	return time.Date(2025, 6, 1, hour, minute, 0, 0, time.UTC)
}

func TestRecipientPreference_InQuietHours_WrapAround(t *testing.T) {
	p := RecipientPreference{QuietStart: "22:00", QuietEnd: "08:00", Timezone: "UTC"}

	assert.True(t, p.InQuietHours(clockUTC(23, 30)))
	assert.True(t, p.InQuietHours(clockUTC(22, 0)))
	assert.True(t, p.InQuietHours(clockUTC(3, 15)))
	assert.True(t, p.InQuietHours(clockUTC(7, 59)))

	assert.False(t, p.InQuietHours(clockUTC(8, 0)))
	assert.False(t, p.InQuietHours(clockUTC(12, 0)))
	assert.False(t, p.InQuietHours(clockUTC(21, 59)))
}

func TestRecipientPreference_InQuietHours_SameDay(t *testing.T) {
	p := RecipientPreference{QuietStart: "13:00", QuietEnd: "15:00", Timezone: "UTC"}

	assert.True(t, p.InQuietHours(clockUTC(13, 0)))
	assert.True(t, p.InQuietHours(clockUTC(14, 30)))
	assert.False(t, p.InQuietHours(clockUTC(15, 0)))
	assert.False(t, p.InQuietHours(clockUTC(12, 59)))
}

func TestRecipientPreference_InQuietHours_Timezone(t *testing.T) {
	p := RecipientPreference{QuietStart: "22:00", QuietEnd: "08:00", Timezone: "Europe/Moscow"}

	// 20:30 UTC is 23:30 in Moscow (UTC+3), inside the window.
	assert.True(t, p.InQuietHours(clockUTC(20, 30)))
	// 09:00 UTC is 12:00 in Moscow, outside.
	assert.False(t, p.InQuietHours(clockUTC(9, 0)))
}

func TestRecipientPreference_InQuietHours_Unset(t *testing.T) {
	p := RecipientPreference{Timezone: "UTC"}
	assert.False(t, p.InQuietHours(clockUTC(23, 0)))

	p = RecipientPreference{QuietStart: "bogus", QuietEnd: "08:00", Timezone: "UTC"}
	assert.False(t, p.InQuietHours(clockUTC(23, 0)))
}

func TestDefaultPreferences(t *testing.T) {
	p := DefaultPreferences("u1")

	assert.Equal(t, "u1", p.UserID)
	for _, c := range AllChannels {
		assert.True(t, p.ChannelEnabled(c), string(c))
	}
	assert.True(t, p.CategoryEnabled(CategoryPromotions))
	assert.False(t, p.InQuietHours(time.Now()))
}

func TestRecipientPreference_Defaults_MissingKeys(t *testing.T) {
	p := RecipientPreference{
		Channels:   map[Channel]bool{ChannelPush: false},
		Categories: map[Category]bool{CategoryPromotions: false},
	}

	assert.False(t, p.ChannelEnabled(ChannelPush))
	assert.True(t, p.ChannelEnabled(ChannelSMS)) // missing key defaults to enabled
	assert.False(t, p.CategoryEnabled(CategoryPromotions))
	assert.True(t, p.CategoryEnabled(CategoryLoyalty))
}
