// Package push implements the push-notification channel adapter.
package push

import (
	"context"

	"github.com/storelane/notification-service/internal/channel"
	"github.com/storelane/notification-service/internal/model"
)

// Gateway is the provider client the adapter sends through.
type Gateway interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) (string, error)
}

// Adapter delivers notifications to the user's registered device tokens.
type Adapter struct {
	gateway  Gateway
	renderer *channel.Renderer
}

// NewAdapter creates a push channel adapter.
func NewAdapter(gateway Gateway, renderer *channel.Renderer) *Adapter {
	return &Adapter{gateway: gateway, renderer: renderer}
}

// Channel returns the channel identifier.
func (a *Adapter) Channel() model.Channel {
	return model.ChannelPush
}

// Send pushes the notification to every device token; the send succeeds if at
// least one token accepts. Dead tokens surface as endpoint invalidation.
func (a *Adapter) Send(ctx context.Context, n model.Notification, ep model.RecipientEndpoints) channel.Result {
	res := channel.Result{Channel: model.ChannelPush}

	if len(ep.DeviceTokens) == 0 {
		res.Err = channel.BadEndpoint("no registered device tokens for user %s", n.UserID)
		return res
	}

	body := channel.Truncate(a.renderer.Render(n, model.ChannelPush), channel.MaxPushLength)

	var lastErr *channel.Error
	for _, token := range ep.DeviceTokens {
		externalID, err := a.gateway.Send(ctx, token, n.Title, body, n.Data)
		if err != nil {
			lastErr = channel.Classify(err)
			if lastErr.InvalidEndpoint {
				res.InvalidEndpoints = append(res.InvalidEndpoints, token)
			}
			continue
		}

		// Push providers only confirm acceptance; delivery arrives later via
		// the status callback.
		res.ExternalID = externalID
		return res
	}

	res.Err = lastErr
	return res
}
