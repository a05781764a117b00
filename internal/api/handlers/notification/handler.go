package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/storelane/notification-service/internal/api/dto"
	"github.com/storelane/notification-service/internal/api/respond"
	"github.com/storelane/notification-service/internal/model"
	notifrepo "github.com/storelane/notification-service/internal/repository/notification"
	notifsvc "github.com/storelane/notification-service/internal/service/notification"
)

type notifService interface {
	Submit(ctx context.Context, strategy retry.Strategy, n model.Notification) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (model.Notification, []model.DeliveryAttempt, error)
	GetStatus(ctx context.Context, strategy retry.Strategy, id uuid.UUID) (model.Status, error)
	List(ctx context.Context, userID string, f notifrepo.ListFilter) ([]model.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, userID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
	Cancel(ctx context.Context, strategy retry.Strategy, id uuid.UUID) error
	Stats(ctx context.Context) (notifsvc.QueueStats, error)
}

type Handler struct {
	service   notifService
	validator *validator.Validate
	strategy  retry.Strategy
}

func NewHandler(s notifService, v *validator.Validate, strategy retry.Strategy) *Handler {
	return &Handler{service: s, validator: v, strategy: strategy}
}

func (h *Handler) Submit(c *ginext.Context) {
	var req dto.SubmitRequest

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

	channels := make([]model.Channel, 0, len(req.Channels))
	for _, ch := range req.Channels {
		channels = append(channels, model.Channel(ch))
	}

	n := model.Notification{
		UserID:      req.UserID,
		Type:        model.Type(req.Type),
		Title:       req.Title,
		Body:        req.Body,
		Data:        req.Data,
		Priority:    model.Priority(req.Priority),
		Channels:    channels,
		Template:    req.Template,
		ScheduledAt: req.ScheduledAt,
		ExpiresAt:   req.ExpiresAt,
		MaxRetries:  req.MaxRetries,
	}

	id, err := h.service.Submit(c.Request.Context(), h.strategy, n)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", req.UserID).Msg("failed to submit notification")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.Created(c.Writer, map[string]string{"id": id.String()})
}

func (h *Handler) Get(c *ginext.Context) {
	id, err := parseID(c)
	if err != nil {
		respond.Fail(c.Writer, http.StatusBadRequest, err)
		return
	}

	n, attempts, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, notifrepo.ErrNotificationNotFound) {
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("notification not found"))
			return
		}

		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to get notification")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, map[string]interface{}{
		"notification": n,
		"attempts":     attempts,
	})
}

// GetStatus serves the status alone, hitting Redis before the database so
// polling clients stay off the notifications table.
func (h *Handler) GetStatus(c *ginext.Context) {
	id, err := parseID(c)
	if err != nil {
		respond.Fail(c.Writer, http.StatusBadRequest, err)
		return
	}

	status, err := h.service.GetStatus(c.Request.Context(), h.strategy, id)
	if err != nil {
		if errors.Is(err, notifrepo.ErrNotificationNotFound) {
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("notification not found"))
			return
		}

		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to get notification status")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, map[string]string{"status": string(status)})
}

func (h *Handler) List(c *ginext.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("missing user_id"))
		return
	}

	f := notifrepo.ListFilter{
		Status:     model.Status(c.Query("status")),
		Type:       model.Type(c.Query("type")),
		OnlyUnread: c.Query("unread") == "true",
	}
	if v := c.Query("limit"); v != "" {
		f.Limit, _ = strconv.Atoi(v)
	}
	if v := c.Query("offset"); v != "" {
		f.Offset, _ = strconv.Atoi(v)
	}

	notifications, err := h.service.List(c.Request.Context(), userID, f)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to list notifications")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, notifications)
}

func (h *Handler) MarkRead(c *ginext.Context) {
	id, err := parseID(c)
	if err != nil {
		respond.Fail(c.Writer, http.StatusBadRequest, err)
		return
	}

	userID := c.Query("user_id")
	if userID == "" {
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("missing user_id"))
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), id, userID); err != nil {
		if errors.Is(err, notifrepo.ErrNotificationNotFound) {
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("notification not found"))
			return
		}

		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to mark notification read")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, map[string]string{"status": "read"})
}

func (h *Handler) UnreadCount(c *ginext.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("missing user_id"))
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to count unread notifications")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, map[string]int{"count": count})
}

func (h *Handler) Cancel(c *ginext.Context) {
	id, err := parseID(c)
	if err != nil {
		respond.Fail(c.Writer, http.StatusBadRequest, err)
		return
	}

	err = h.service.Cancel(c.Request.Context(), h.strategy, id)
	if err != nil {
		switch {
		case errors.Is(err, notifrepo.ErrNotificationNotFound):
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("notification not found"))
		case errors.Is(err, notifsvc.ErrNotCancellable):
			respond.Fail(c.Writer, http.StatusConflict, err)
		default:
			zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to cancel notification")
			respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		}
		return
	}

	respond.OK(c.Writer, map[string]string{"status": string(model.StatusCancelled)})
}

func (h *Handler) Stats(c *ginext.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to collect queue stats")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, stats)
}

func parseID(c *ginext.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id")
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("missing id")
	}

	return id, nil
}
