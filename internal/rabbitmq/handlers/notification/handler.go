package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/storelane/notification-service/internal/model"
	"github.com/storelane/notification-service/internal/orchestrator"
	"github.com/storelane/notification-service/internal/rabbitmq/queue"
	notifrepo "github.com/storelane/notification-service/internal/repository/notification"
)

// redeliveryDelay spaces out a fresh dispatch round after one that failed
// before reaching any channel, e.g. when the attempt ledger was unreachable.
const redeliveryDelay = 30 * time.Second

type notificationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.Notification, error)
}

type dispatcher interface {
	Dispatch(ctx context.Context, n model.Notification) (orchestrator.AggregateResult, error)
}

type dispatchQueue interface {
	RequeueWithDelay(ctx context.Context, notificationID uuid.UUID, priority model.Priority, delay time.Duration) error
}

type statusCache interface {
	SetWithRetry(ctx context.Context, strategy retry.Strategy, key string, value interface{}) error
}

// Handler runs one dispatch round for a queued notification.
type Handler struct {
	notifications notificationStore
	dispatcher    dispatcher
	queue         dispatchQueue
	cache         statusCache
	strategy      retry.Strategy
}

func NewHandler(notifications notificationStore, dispatcher dispatcher, queue dispatchQueue, cache statusCache, strategy retry.Strategy) *Handler {
	return &Handler{
		notifications: notifications,
		dispatcher:    dispatcher,
		queue:         queue,
		cache:         cache,
		strategy:      strategy,
	}
}

// HandleMessage loads the notification behind the message and hands it to
// the dispatch orchestrator. Notifications that reached a terminal state
// while the message sat in the queue are dropped. The broker message is
// already acked by the time we run, so a failed round goes back into the
// database queue rather than relying on redelivery.
func (h *Handler) HandleMessage(ctx context.Context, msg queue.DispatchMessage) {
	n, err := h.notifications.GetByID(ctx, msg.NotificationID)
	if err != nil {
		if errors.Is(err, notifrepo.ErrNotificationNotFound) {
			zlog.Logger.Warn().
				Str("notification_id", msg.NotificationID.String()).
				Msg("queued notification no longer exists, dropping")
			return
		}

		zlog.Logger.Error().Err(err).
			Str("notification_id", msg.NotificationID.String()).
			Msg("failed to load queued notification")
		return
	}

	if n.Status != model.StatusPending {
		zlog.Logger.Info().
			Str("notification_id", n.ID.String()).
			Str("status", string(n.Status)).
			Msg("notification already settled, dropping")
		return
	}

	res, err := h.dispatcher.Dispatch(ctx, n)
	if err != nil {
		zlog.Logger.Error().Err(err).
			Str("notification_id", n.ID.String()).
			Msg("dispatch round failed, returning notification to queue")

		if qerr := h.queue.RequeueWithDelay(ctx, n.ID, n.Priority, redeliveryDelay); qerr != nil {
			zlog.Logger.Error().Err(qerr).
				Str("notification_id", n.ID.String()).
				Msg("failed to requeue notification after dispatch error")
		}
		return
	}

	if err := h.cache.SetWithRetry(ctx, h.strategy, n.ID.String(), string(res.Status)); err != nil {
		zlog.Logger.Error().Err(err).
			Str("notification_id", n.ID.String()).
			Msg("failed to cache notification status")
	}

	if res.Requeued {
		zlog.Logger.Info().
			Str("notification_id", n.ID.String()).
			Int("retry_count", n.RetryCount+1).
			Msg("notification requeued for retry")
		return
	}

	zlog.Logger.Info().
		Str("notification_id", n.ID.String()).
		Str("status", string(res.Status)).
		Msg("dispatch round finished")
}
