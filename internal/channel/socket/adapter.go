// Package socket implements the realtime-socket channel adapter.
package socket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/storelane/notification-service/internal/channel"
	"github.com/storelane/notification-service/internal/model"
	"github.com/storelane/notification-service/internal/realtime"
)

// Adapter writes notifications straight to the user's live socket session.
// There is no queued realtime delivery: no live session at send time is a
// permanent failure.
type Adapter struct {
	registry *realtime.Registry
	renderer *channel.Renderer
}

// NewAdapter creates a realtime-socket channel adapter.
func NewAdapter(registry *realtime.Registry, renderer *channel.Renderer) *Adapter {
	return &Adapter{registry: registry, renderer: renderer}
}

// Channel returns the channel identifier.
func (a *Adapter) Channel() model.Channel {
	return model.ChannelSocket
}

// frame is the wire payload written to the socket session.
type frame struct {
	ID        string            `json:"id"`
	Type      model.Type        `json:"type"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	Priority  model.Priority    `json:"priority"`
	CreatedAt time.Time         `json:"created_at"`
}

// Send writes the notification to the live session. A successful write is a
// synchronous delivery confirmation: the message reached the client.
func (a *Adapter) Send(ctx context.Context, n model.Notification, _ model.RecipientEndpoints) channel.Result {
	res := channel.Result{Channel: model.ChannelSocket}

	session, ok := a.registry.Lookup(n.UserID)
	if !ok {
		res.Err = channel.Permanent("no live session for user %s", n.UserID)
		return res
	}

	payload, err := json.Marshal(frame{
		ID:        n.ID.String(),
		Type:      n.Type,
		Title:     n.Title,
		Body:      a.renderer.Render(n, model.ChannelSocket),
		Data:      n.Data,
		Priority:  n.Priority,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		res.Err = channel.Permanent("marshal socket frame: %s", err)
		return res
	}

	if err := session.Send(payload); err != nil {
		// A dead session is not retryable; the client reconnects and the
		// registry picks the new session up.
		res.Err = channel.Permanent("socket write failed: %s", err)
		return res
	}

	res.Delivered = true
	return res
}
