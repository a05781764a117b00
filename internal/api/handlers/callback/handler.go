package callback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/storelane/notification-service/internal/api/dto"
	"github.com/storelane/notification-service/internal/api/respond"
	"github.com/storelane/notification-service/internal/model"
	attemptrepo "github.com/storelane/notification-service/internal/repository/attempt"
)

type statusService interface {
	HandleProviderStatus(ctx context.Context, strategy retry.Strategy, ch model.Channel, externalID string, delivered bool, reason string, occurredAt time.Time) error
}

var callbackChannels = map[model.Channel]bool{
	model.ChannelPush:  true,
	model.ChannelEmail: true,
	model.ChannelSMS:   true,
	model.ChannelChat:  true,
}

// Handler ingests asynchronous delivery reports from channel providers.
type Handler struct {
	service   statusService
	validator *validator.Validate
	strategy  retry.Strategy
}

func NewHandler(s statusService, v *validator.Validate, strategy retry.Strategy) *Handler {
	return &Handler{service: s, validator: v, strategy: strategy}
}

func (h *Handler) Receive(c *ginext.Context) {
	ch := model.Channel(c.Param("channel"))
	if !callbackChannels[ch] {
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("unknown callback channel %q", c.Param("channel")))
		return
	}

	var req dto.CallbackRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to decode callback body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	if err := h.validator.Struct(req); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to validate callback body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("validation error: %s", err.Error()))
		return
	}

	var occurredAt time.Time
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	err := h.service.HandleProviderStatus(c.Request.Context(), h.strategy, ch, req.ExternalID, req.Delivered, req.Reason, occurredAt)
	if err != nil {
		if errors.Is(err, attemptrepo.ErrAttemptNotFound) {
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("unknown external id"))
			return
		}

		zlog.Logger.Error().Err(err).
			Str("channel", string(ch)).
			Str("external_id", req.ExternalID).
			Msg("failed to apply provider status")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, map[string]string{"status": "accepted"})
}
