package model

import (
	"time"

	"github.com/google/uuid"
)

// QueueItem wraps a notification awaiting dispatch. Items are ordered by
// priority weight descending, then not-before ascending; an item is ready
// once now >= NotBefore. Each item is claimed by exactly one consumer.
type QueueItem struct {
	NotificationID uuid.UUID `json:"notification_id"`
	Priority       Priority  `json:"priority"`
	NotBefore      time.Time `json:"not_before"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
}

// RecipientEndpoints is the directory projection of where a user can be
// reached per channel.
type RecipientEndpoints struct {
	UserID       string   `json:"user_id"`
	DeviceTokens []string `json:"device_tokens,omitempty"`
	Email        string   `json:"email,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	ChatID       string   `json:"chat_id,omitempty"`
}
