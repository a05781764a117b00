package preference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/storelane/notification-service/internal/api/dto"
	"github.com/storelane/notification-service/internal/api/respond"
	"github.com/storelane/notification-service/internal/model"
	prefsvc "github.com/storelane/notification-service/internal/service/preference"
)

type prefService interface {
	Get(ctx context.Context, userID string) (model.RecipientPreference, error)
	Update(ctx context.Context, p model.RecipientPreference) error
	Reset(ctx context.Context, userID string) error
}

type Handler struct {
	service   prefService
	validator *validator.Validate
}

func NewHandler(s prefService, v *validator.Validate) *Handler {
	return &Handler{service: s, validator: v}
}

func (h *Handler) Get(c *ginext.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("missing user_id"))
		return
	}

	p, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to get preferences")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, p)
}

func (h *Handler) Update(c *ginext.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("missing user_id"))
		return
	}

	var req dto.PreferenceRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to decode request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	if err := h.validator.Struct(req); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to validate request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("validation error: %s", err.Error()))
		return
	}

	p := model.RecipientPreference{
		UserID:     userID,
		Channels:   make(map[model.Channel]bool, len(req.Channels)),
		Categories: make(map[model.Category]bool, len(req.Categories)),
		QuietStart: req.QuietStart,
		QuietEnd:   req.QuietEnd,
		Timezone:   req.Timezone,
	}
	for ch, enabled := range req.Channels {
		p.Channels[model.Channel(ch)] = enabled
	}
	for cat, enabled := range req.Categories {
		p.Categories[model.Category(cat)] = enabled
	}

	if err := h.service.Update(c.Request.Context(), p); err != nil {
		if errors.Is(err, prefsvc.ErrInvalidQuietHours) {
			respond.Fail(c.Writer, http.StatusBadRequest, err)
			return
		}

		zlog.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to update preferences")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, map[string]string{"status": "updated"})
}

func (h *Handler) Reset(c *ginext.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("missing user_id"))
		return
	}

	if err := h.service.Reset(c.Request.Context(), userID); err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to reset preferences")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, map[string]string{"status": "reset"})
}
