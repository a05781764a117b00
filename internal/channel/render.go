package channel

import (
	"github.com/storelane/notification-service/internal/model"
	"github.com/storelane/notification-service/internal/templates"
)

// Per-channel body limits, in runes.
const (
	MaxSMSLength  = 160
	MaxPushLength = 240
	MaxChatLength = 4096
)

// Renderer turns a notification into channel-native body text. An explicit
// template reference wins, then the registered type+channel template, then
// the built-in title/body rendering.
type Renderer struct {
	store *templates.Store
}

// NewRenderer creates a renderer over the given template store.
func NewRenderer(store *templates.Store) *Renderer {
	return &Renderer{store: store}
}

// Render returns the message body for the notification on the given channel.
func (r *Renderer) Render(n model.Notification, c model.Channel) string {
	if n.Template != "" && r.store.Has(n.Template) {
		if out, err := r.store.Render(n.Template, n.Data); err == nil {
			return out
		}
	}

	if name := templates.Name(n.Type, c); r.store.Has(name) {
		if out, err := r.store.Render(name, n.Data); err == nil {
			return out
		}
	}

	if n.Title == "" {
		return n.Body
	}
	if n.Body == "" {
		return n.Title
	}
	return n.Title + "\n" + n.Body
}

// Truncate cuts s to at most max runes, appending an ellipsis when trimmed.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}
