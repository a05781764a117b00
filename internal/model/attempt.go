package model

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the result of a single channel-level send attempt.
type Outcome string

const (
	OutcomeSent      Outcome = "sent"      // provider accepted the message
	OutcomeDelivered Outcome = "delivered" // provider confirmed delivery
	OutcomeFailed    Outcome = "failed"
)

// DeliveryAttempt is one append-only ledger entry for a channel-level send.
// A (notification, channel, attempt number) tuple is written once; provider
// status callbacks append a superseding entry keyed by ExternalID rather than
// mutating the original.
type DeliveryAttempt struct {
	ID               uuid.UUID  `json:"id"`
	NotificationID   uuid.UUID  `json:"notification_id"`
	Channel          Channel    `json:"channel"`
	AttemptNumber    int        `json:"attempt_number"`
	Outcome          Outcome    `json:"outcome"`
	ExternalID       string     `json:"external_id,omitempty"` // provider message identifier
	ProviderResponse string     `json:"provider_response,omitempty"`
	FailureReason    string     `json:"failure_reason,omitempty"`
	SentAt           time.Time  `json:"sent_at"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`
}
