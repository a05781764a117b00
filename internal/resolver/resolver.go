// Package resolver computes the ordered set of channels a notification is
// dispatched on, reconciling the caller's channel override, the per-type
// defaults, the recipient's preferences and the quiet-hours window.
package resolver

import (
	"time"

	"github.com/storelane/notification-service/internal/model"
)

// defaultChannels maps every notification type to its ordered default channel
// list. Delivery-critical types lean on push+socket+sms; marketing types stay
// on low-intrusion channels.
var defaultChannels = map[model.Type][]model.Channel{
	model.TypeOrderPlaced:      {model.ChannelPush, model.ChannelSocket, model.ChannelSMS},
	model.TypeOrderShipped:     {model.ChannelPush, model.ChannelSocket, model.ChannelSMS},
	model.TypeOrderDelivered:   {model.ChannelPush, model.ChannelSocket, model.ChannelEmail},
	model.TypePaymentFailed:    {model.ChannelPush, model.ChannelSMS, model.ChannelEmail},
	model.TypePromotionalOffer: {model.ChannelEmail, model.ChannelSocket},
	model.TypeLoyaltyReward:    {model.ChannelEmail, model.ChannelSocket, model.ChannelChat},
	model.TypeSecurityAlert:    {model.ChannelPush, model.ChannelSMS, model.ChannelEmail, model.ChannelSocket},
	model.TypeAccountUpdate:    {model.ChannelEmail, model.ChannelSocket},
}

// quietAllowed is the low-intrusion set that survives quiet hours.
var quietAllowed = map[model.Channel]bool{
	model.ChannelSocket: true,
	model.ChannelEmail:  true,
}

// Fallback is the channel every notification can always fall back to. The
// resolved set is never empty.
const Fallback = model.ChannelSocket

// Resolve returns the ordered, deduplicated channel set for the notification
// at the given instant. The result always contains at least one channel.
func Resolve(n model.Notification, prefs model.RecipientPreference, now time.Time) []model.Channel {
	base := n.Channels
	if len(base) == 0 {
		base = defaultChannels[n.Type]
	}

	high := n.Priority == model.PriorityHigh

	channels := make([]model.Channel, 0, len(base)+1)
	seen := make(map[model.Channel]bool, len(base)+1)

	add := func(c model.Channel) {
		if !seen[c] && c.Valid() {
			seen[c] = true
			channels = append(channels, c)
		}
	}

	// Preference filter. Disabled channels are silently dropped; category
	// opt-outs (ignored for HIGH and security traffic) empty the set and land
	// on the fallback below.
	categoryOK := high || n.Type.Security() || prefs.CategoryEnabled(n.Type.Category())
	if categoryOK {
		for _, c := range base {
			if prefs.ChannelEnabled(c) {
				add(c)
			}
		}
	}

	// SMS escalation: HIGH-priority notifications always carry the SMS channel
	// regardless of preference.
	if high {
		add(model.ChannelSMS)
	}

	// Quiet hours restrict non-critical traffic to low-intrusion channels.
	if !high && !n.Type.Security() && prefs.InQuietHours(now) {
		quiet := channels[:0:0]
		for _, c := range channels {
			if quietAllowed[c] {
				quiet = append(quiet, c)
			}
		}
		channels = quiet
	}

	if len(channels) == 0 {
		channels = []model.Channel{Fallback}
	}

	return channels
}
