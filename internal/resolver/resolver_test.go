package resolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/storelane/notification-service/internal/model"
)

var noon = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func quietPrefs(userID string) model.RecipientPreference {
	p := model.DefaultPreferences(userID)
	p.QuietStart = "22:00"
	p.QuietEnd = "08:00"
	return p
}

func TestResolve_Defaults(t *testing.T) {
	n := model.Notification{Type: model.TypeOrderPlaced, Priority: model.PriorityMedium}

	got := Resolve(n, model.DefaultPreferences("u1"), noon)
	assert.Equal(t, []model.Channel{model.ChannelPush, model.ChannelSocket, model.ChannelSMS}, got)
}

func TestResolve_OverrideWins(t *testing.T) {
	n := model.Notification{
		Type:     model.TypeOrderPlaced,
		Priority: model.PriorityMedium,
		Channels: []model.Channel{model.ChannelEmail, model.ChannelEmail, model.ChannelChat},
	}

	got := Resolve(n, model.DefaultPreferences("u1"), noon)
	assert.Equal(t, []model.Channel{model.ChannelEmail, model.ChannelChat}, got)
}

func TestResolve_PreferenceFilter(t *testing.T) {
	prefs := model.DefaultPreferences("u1")
	prefs.Channels[model.ChannelPush] = false

	n := model.Notification{Type: model.TypeOrderPlaced, Priority: model.PriorityMedium}

	got := Resolve(n, prefs, noon)
	assert.Equal(t, []model.Channel{model.ChannelSocket, model.ChannelSMS}, got)
}

func TestResolve_HighPriorityForcesSMS(t *testing.T) {
	prefs := model.DefaultPreferences("u1")
	prefs.Channels[model.ChannelSMS] = false

	n := model.Notification{Type: model.TypeOrderDelivered, Priority: model.PriorityHigh}

	got := Resolve(n, prefs, noon)
	assert.Contains(t, got, model.ChannelSMS)
}

func TestResolve_EndToEndScenario(t *testing.T) {
	// HIGH order_placed with push disabled: push drops out by preference, sms
	// and socket survive.
	prefs := model.DefaultPreferences("u1")
	prefs.Channels[model.ChannelPush] = false

	n := model.Notification{Type: model.TypeOrderPlaced, Priority: model.PriorityHigh}

	got := Resolve(n, prefs, noon)
	assert.ElementsMatch(t, []model.Channel{model.ChannelSMS, model.ChannelSocket}, got)
}

func TestResolve_QuietHours(t *testing.T) {
	prefs := quietPrefs("u1")
	lateNight := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)

	n := model.Notification{Type: model.TypeOrderDelivered, Priority: model.PriorityMedium}

	got := Resolve(n, prefs, lateNight)
	assert.ElementsMatch(t, []model.Channel{model.ChannelSocket, model.ChannelEmail}, got)

	// Same notification at noon gets the full default set.
	got = Resolve(n, prefs, noon)
	assert.Equal(t, []model.Channel{model.ChannelPush, model.ChannelSocket, model.ChannelEmail}, got)
}

func TestResolve_QuietHoursBypass(t *testing.T) {
	prefs := quietPrefs("u1")
	lateNight := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)

	// Security types ignore quiet hours.
	n := model.Notification{Type: model.TypeSecurityAlert, Priority: model.PriorityMedium}
	got := Resolve(n, prefs, lateNight)
	assert.Contains(t, got, model.ChannelPush)
	assert.Contains(t, got, model.ChannelSMS)

	// So does HIGH priority.
	n = model.Notification{Type: model.TypeOrderPlaced, Priority: model.PriorityHigh}
	got = Resolve(n, prefs, lateNight)
	assert.Contains(t, got, model.ChannelPush)
}

func TestResolve_NeverEmpty(t *testing.T) {
	// Everything disabled: the fallback channel still survives.
	prefs := model.DefaultPreferences("u1")
	for _, c := range model.AllChannels {
		prefs.Channels[c] = false
	}

	n := model.Notification{Type: model.TypeOrderPlaced, Priority: model.PriorityMedium}
	got := Resolve(n, prefs, noon)
	assert.Equal(t, []model.Channel{Fallback}, got)

	// Category opt-out also falls back rather than emptying the set.
	prefs = model.DefaultPreferences("u1")
	prefs.Categories[model.CategoryPromotions] = false

	n = model.Notification{Type: model.TypePromotionalOffer, Priority: model.PriorityLow}
	got = Resolve(n, prefs, noon)
	assert.Equal(t, []model.Channel{Fallback}, got)
}

func TestResolve_AllTypesHaveDefaults(t *testing.T) {
	types := []model.Type{
		model.TypeOrderPlaced, model.TypeOrderShipped, model.TypeOrderDelivered,
		model.TypePaymentFailed, model.TypePromotionalOffer, model.TypeLoyaltyReward,
		model.TypeSecurityAlert, model.TypeAccountUpdate,
	}

	for _, typ := range types {
		n := model.Notification{Type: typ, Priority: model.PriorityMedium}
		got := Resolve(n, model.DefaultPreferences("u1"), noon)
		assert.NotEmpty(t, got, string(typ))
	}
}
