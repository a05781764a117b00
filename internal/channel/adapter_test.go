package channel

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storelane/notification-service/internal/model"
	"github.com/storelane/notification-service/internal/templates"
	"github.com/storelane/notification-service/pkg/gateway"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		retryable  bool
		invalidate bool
	}{
		{"rate limited", &gateway.APIError{StatusCode: http.StatusTooManyRequests}, true, false},
		{"provider 5xx", &gateway.APIError{StatusCode: http.StatusBadGateway}, true, false},
		{"bad request", &gateway.APIError{StatusCode: http.StatusBadRequest}, false, false},
		{"dead token", &gateway.APIError{StatusCode: http.StatusGone}, false, true},
		{"unknown endpoint", &gateway.APIError{StatusCode: http.StatusNotFound}, false, true},
		{"timeout", context.DeadlineExceeded, true, false},
		{"transport", errors.New("connection reset"), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			assert.Equal(t, tt.retryable, got.Retryable)
			assert.Equal(t, tt.invalidate, got.InvalidEndpoint)
		})
	}
}

func TestAsError(t *testing.T) {
	assert.Nil(t, AsError(nil))

	classified := Permanent("nope")
	assert.Equal(t, classified, AsError(classified))

	raw := AsError(errors.New("boom"))
	assert.True(t, raw.Retryable)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exact", Truncate("exact", 5))
	assert.Equal(t, "long…", Truncate("longer", 5))

	// rune-safe
	assert.Equal(t, "привет", Truncate("привет", 6))
	assert.Equal(t, "при…", Truncate("привет", 4))
}

func TestRenderer_Fallbacks(t *testing.T) {
	r := NewRenderer(templates.NewStore())

	// registered type+channel template
	n := model.Notification{
		Type: model.TypeOrderPlaced,
		Data: map[string]string{"OrderID": "A-1"},
	}
	assert.Equal(t, "Order A-1 placed. Track it in the app.", r.Render(n, model.ChannelSMS))

	// no template registered for the pair: title+body fallback
	n = model.Notification{Type: model.TypeAccountUpdate, Title: "Account", Body: "Email changed"}
	assert.Equal(t, "Account\nEmail changed", r.Render(n, model.ChannelPush))

	n = model.Notification{Type: model.TypeAccountUpdate, Body: "Email changed"}
	assert.Equal(t, "Email changed", r.Render(n, model.ChannelPush))
}

func TestRenderer_ExplicitTemplateWins(t *testing.T) {
	store := templates.NewStore()
	assert.NoError(t, store.Register("vip", "VIP: {{.Name}}"))
	r := NewRenderer(store)

	n := model.Notification{
		Type:     model.TypeOrderPlaced,
		Template: "vip",
		Data:     map[string]string{"Name": "Ada", "OrderID": "A-1"},
	}
	assert.Equal(t, "VIP: Ada", r.Render(n, model.ChannelSMS))
}
