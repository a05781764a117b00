package dto

import "time"

type SubmitRequest struct {
	UserID      string            `json:"user_id" validate:"required"`
	Type        string            `json:"type" validate:"required,oneof=order_placed order_shipped order_delivered payment_failed promotional_offer loyalty_reward security_alert account_update"`
	Title       string            `json:"title" validate:"required"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data"`
	Priority    string            `json:"priority" validate:"omitempty,oneof=low medium high"`
	Channels    []string          `json:"channels" validate:"omitempty,dive,oneof=push email sms chat socket"`
	Template    string            `json:"template"`
	ScheduledAt *time.Time        `json:"scheduled_at"`
	ExpiresAt   *time.Time        `json:"expires_at"`
	MaxRetries  int               `json:"max_retries" validate:"omitempty,min=1,max=10"`
}

// CallbackRequest is the provider delivery report posted to
// /api/callbacks/:channel.
type CallbackRequest struct {
	ExternalID string     `json:"external_id" validate:"required"`
	Delivered  bool       `json:"delivered"`
	Reason     string     `json:"reason"`
	OccurredAt *time.Time `json:"occurred_at"`
}

type PreferenceRequest struct {
	Channels   map[string]bool `json:"channels" validate:"omitempty,dive,keys,oneof=push email sms chat socket,endkeys"`
	Categories map[string]bool `json:"categories" validate:"omitempty,dive,keys,oneof=order_updates promotions loyalty security,endkeys"`
	QuietStart string          `json:"quiet_start"`
	QuietEnd   string          `json:"quiet_end"`
	Timezone   string          `json:"timezone"`
}
