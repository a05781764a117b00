// Package email implements the email channel adapter.
package email

import (
	"context"

	"github.com/storelane/notification-service/internal/channel"
	"github.com/storelane/notification-service/internal/model"
)

// Sender is the SMTP client the adapter sends through.
type Sender interface {
	Send(to, subject, body string) error
}

// Adapter delivers notifications over SMTP.
type Adapter struct {
	sender   Sender
	renderer *channel.Renderer
}

// NewAdapter creates an email channel adapter.
func NewAdapter(sender Sender, renderer *channel.Renderer) *Adapter {
	return &Adapter{sender: sender, renderer: renderer}
}

// Channel returns the channel identifier.
func (a *Adapter) Channel() model.Channel {
	return model.ChannelEmail
}

// Send delivers the notification to the user's email address. SMTP gives no
// provider message id and no delivery confirmation; the outcome is acceptance
// only.
func (a *Adapter) Send(ctx context.Context, n model.Notification, ep model.RecipientEndpoints) channel.Result {
	res := channel.Result{Channel: model.ChannelEmail}

	if ep.Email == "" {
		res.Err = channel.BadEndpoint("no email address for user %s", n.UserID)
		return res
	}

	if err := ctx.Err(); err != nil {
		res.Err = channel.Classify(err)
		return res
	}

	subject := n.Title
	if subject == "" {
		subject = "Notification"
	}

	if err := a.sender.Send(ep.Email, subject, a.renderer.Render(n, model.ChannelEmail)); err != nil {
		res.Err = channel.Classify(err)
		return res
	}

	return res
}
