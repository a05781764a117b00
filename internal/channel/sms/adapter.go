// Package sms implements the SMS channel adapter.
package sms

import (
	"context"

	"github.com/storelane/notification-service/internal/channel"
	"github.com/storelane/notification-service/internal/model"
)

// Gateway is the provider client the adapter sends through.
type Gateway interface {
	Send(ctx context.Context, phone, text string) (string, error)
}

// Adapter delivers notifications as text messages.
type Adapter struct {
	gateway  Gateway
	renderer *channel.Renderer
}

// NewAdapter creates an SMS channel adapter.
func NewAdapter(gateway Gateway, renderer *channel.Renderer) *Adapter {
	return &Adapter{gateway: gateway, renderer: renderer}
}

// Channel returns the channel identifier.
func (a *Adapter) Channel() model.Channel {
	return model.ChannelSMS
}

// Send delivers the notification to the user's phone number, truncated to a
// single SMS segment.
func (a *Adapter) Send(ctx context.Context, n model.Notification, ep model.RecipientEndpoints) channel.Result {
	res := channel.Result{Channel: model.ChannelSMS}

	if ep.Phone == "" {
		res.Err = channel.BadEndpoint("no phone number for user %s", n.UserID)
		return res
	}

	text := channel.Truncate(a.renderer.Render(n, model.ChannelSMS), channel.MaxSMSLength)

	externalID, err := a.gateway.Send(ctx, ep.Phone, text)
	if err != nil {
		cerr := channel.Classify(err)
		if cerr.InvalidEndpoint {
			res.InvalidEndpoints = []string{ep.Phone}
		}
		res.Err = cerr
		return res
	}

	res.ExternalID = externalID
	return res
}
