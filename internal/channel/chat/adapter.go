// Package chat implements the chat-messaging channel adapter.
package chat

import (
	"context"

	"github.com/storelane/notification-service/internal/channel"
	"github.com/storelane/notification-service/internal/model"
)

// Gateway is the chat-messaging client the adapter sends through.
type Gateway interface {
	Send(ctx context.Context, chatID, text string) (string, error)
}

// Adapter delivers notifications to the user's linked chat conversation.
type Adapter struct {
	gateway  Gateway
	renderer *channel.Renderer
}

// NewAdapter creates a chat channel adapter.
func NewAdapter(gateway Gateway, renderer *channel.Renderer) *Adapter {
	return &Adapter{gateway: gateway, renderer: renderer}
}

// Channel returns the channel identifier.
func (a *Adapter) Channel() model.Channel {
	return model.ChannelChat
}

// Send delivers the notification to the user's chat, if one is linked.
func (a *Adapter) Send(ctx context.Context, n model.Notification, ep model.RecipientEndpoints) channel.Result {
	res := channel.Result{Channel: model.ChannelChat}

	if ep.ChatID == "" {
		res.Err = channel.BadEndpoint("no linked chat for user %s", n.UserID)
		return res
	}

	text := channel.Truncate(a.renderer.Render(n, model.ChannelChat), channel.MaxChatLength)

	externalID, err := a.gateway.Send(ctx, ep.ChatID, text)
	if err != nil {
		res.Err = channel.Classify(err)
		return res
	}

	res.ExternalID = externalID
	return res
}
