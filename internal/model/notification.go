package model

import (
	"time"

	"github.com/google/uuid"
)

// Channel identifies a delivery medium for notifications.
type Channel string

const (
	ChannelPush   Channel = "push"
	ChannelEmail  Channel = "email"
	ChannelSMS    Channel = "sms"
	ChannelChat   Channel = "chat"
	ChannelSocket Channel = "socket"
)

// AllChannels lists every supported channel.
var AllChannels = []Channel{ChannelPush, ChannelEmail, ChannelSMS, ChannelChat, ChannelSocket}

// Valid reports whether c is a known channel identifier.
func (c Channel) Valid() bool {
	switch c {
	case ChannelPush, ChannelEmail, ChannelSMS, ChannelChat, ChannelSocket:
		return true
	}
	return false
}

// Priority controls queue ordering and channel escalation.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Weight maps a priority to its queue ordering weight; higher dispatches first.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Type is the closed set of notification kinds the service accepts.
type Type string

const (
	TypeOrderPlaced      Type = "order_placed"
	TypeOrderShipped     Type = "order_shipped"
	TypeOrderDelivered   Type = "order_delivered"
	TypePaymentFailed    Type = "payment_failed"
	TypePromotionalOffer Type = "promotional_offer"
	TypeLoyaltyReward    Type = "loyalty_reward"
	TypeSecurityAlert    Type = "security_alert"
	TypeAccountUpdate    Type = "account_update"
)

// Valid reports whether t is a known notification type.
func (t Type) Valid() bool {
	switch t {
	case TypeOrderPlaced, TypeOrderShipped, TypeOrderDelivered, TypePaymentFailed,
		TypePromotionalOffer, TypeLoyaltyReward, TypeSecurityAlert, TypeAccountUpdate:
		return true
	}
	return false
}

// Security reports whether the type is security-classified. Security
// notifications bypass quiet-hours suppression.
func (t Type) Security() bool {
	return t == TypeSecurityAlert
}

// Category returns the preference category the type belongs to.
func (t Type) Category() Category {
	switch t {
	case TypeOrderPlaced, TypeOrderShipped, TypeOrderDelivered, TypePaymentFailed:
		return CategoryOrderUpdates
	case TypePromotionalOffer:
		return CategoryPromotions
	case TypeLoyaltyReward:
		return CategoryLoyalty
	case TypeSecurityAlert, TypeAccountUpdate:
		return CategorySecurity
	}
	return CategoryOrderUpdates
}

// Notification represents a single logical intent to inform a user. One
// notification may fan out to several channels; per-channel results live in
// DeliveryAttempt records.
type Notification struct {
	ID          uuid.UUID         `json:"id"`
	UserID      string            `json:"user_id"`
	Type        Type              `json:"type"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"` // opaque payload passed to templates and adapters
	Priority    Priority          `json:"priority"`
	Channels    []Channel         `json:"channels,omitempty"` // explicit override; empty = type defaults
	Template    string            `json:"template,omitempty"`
	ScheduledAt *time.Time        `json:"scheduled_at,omitempty"` // nil = immediate
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
	Status      Status            `json:"status"`
	RetryCount  int               `json:"retry_count"`
	MaxRetries  int               `json:"max_retries"`
	Read        bool              `json:"read"`
	ReadAt      *time.Time        `json:"read_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Expired reports whether the notification is past its expiry at the given
// time. Expired notifications must never be handed to a channel adapter.
func (n *Notification) Expired(now time.Time) bool {
	return n.ExpiresAt != nil && !now.Before(*n.ExpiresAt)
}

// ImmediateBypass reports whether the notification skips the dispatch queue
// and goes straight to the orchestrator on submission.
func (n *Notification) ImmediateBypass() bool {
	return n.Priority == PriorityHigh && n.ScheduledAt == nil
}
