package model

import (
	"time"
)

// Category groups notification types for per-user toggles, independent of
// channel enablement.
type Category string

const (
	CategoryOrderUpdates Category = "order_updates"
	CategoryPromotions   Category = "promotions"
	CategoryLoyalty      Category = "loyalty"
	CategorySecurity     Category = "security"
)

// RecipientPreference holds a user's channel enablement, category toggles and
// quiet-hours window. Created with defaults on first use, reset instead of
// deleted.
type RecipientPreference struct {
	UserID     string            `json:"user_id"`
	Channels   map[Channel]bool  `json:"channels"`
	Categories map[Category]bool `json:"categories"`
	QuietStart string            `json:"quiet_start,omitempty"` // "HH:MM" local time, empty = no quiet hours
	QuietEnd   string            `json:"quiet_end,omitempty"`
	Timezone   string            `json:"timezone"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// DefaultPreferences returns the preference record used before a user has
// ever customised anything: every channel and category enabled, no quiet
// hours.
func DefaultPreferences(userID string) RecipientPreference {
	channels := make(map[Channel]bool, len(AllChannels))
	for _, c := range AllChannels {
		channels[c] = true
	}

	return RecipientPreference{
		UserID:   userID,
		Channels: channels,
		Categories: map[Category]bool{
			CategoryOrderUpdates: true,
			CategoryPromotions:   true,
			CategoryLoyalty:      true,
			CategorySecurity:     true,
		},
		Timezone: "UTC",
	}
}

// ChannelEnabled reports whether the user has the channel switched on.
// Channels missing from the map default to enabled.
func (p RecipientPreference) ChannelEnabled(c Channel) bool {
	if p.Channels == nil {
		return true
	}
	enabled, ok := p.Channels[c]
	return !ok || enabled
}

// CategoryEnabled reports whether the user receives the given category.
// Missing categories default to enabled.
func (p RecipientPreference) CategoryEnabled(cat Category) bool {
	if p.Categories == nil {
		return true
	}
	enabled, ok := p.Categories[cat]
	return !ok || enabled
}

// InQuietHours reports whether the given instant falls inside the user's
// quiet window, evaluated in the user's timezone. Windows that wrap midnight
// (e.g. 22:00-08:00) are handled: the window is active iff start < end and
// start <= now < end, or start >= end and (now >= start or now < end).
func (p RecipientPreference) InQuietHours(now time.Time) bool {
	if p.QuietStart == "" || p.QuietEnd == "" {
		return false
	}

	start, err := parseClock(p.QuietStart)
	if err != nil {
		return false
	}
	end, err := parseClock(p.QuietEnd)
	if err != nil {
		return false
	}

	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		loc = time.UTC
	}

	local := now.In(loc)
	cur := local.Hour()*60 + local.Minute()

	if start < end {
		return start <= cur && cur < end
	}
	return cur >= start || cur < end
}

// parseClock converts "HH:MM" into minutes since midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
