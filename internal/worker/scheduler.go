package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/storelane/notification-service/internal/model"
	"github.com/storelane/notification-service/internal/rabbitmq/queue"
)

type readyQueue interface {
	DequeueReady(ctx context.Context, limit int) ([]model.QueueItem, error)
	RequeueWithDelay(ctx context.Context, notificationID uuid.UUID, priority model.Priority, delay time.Duration) error
}

type dispatchPublisher interface {
	Publish(msg queue.DispatchMessage, strategy retry.Strategy) error
}

// Scheduler moves due queue items from Postgres onto the dispatch exchange.
// Claims are destructive, so an item whose publish fails goes back into the
// table instead of being lost.
type Scheduler struct {
	queue     readyQueue
	publisher dispatchPublisher
	strategy  retry.Strategy

	pollInterval time.Duration
	batchSize    int
}

func NewScheduler(q readyQueue, pub dispatchPublisher, strategy retry.Strategy, pollInterval time.Duration, batchSize int) *Scheduler {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	return &Scheduler{
		queue:        q,
		publisher:    pub,
		strategy:     strategy,
		pollInterval: pollInterval,
		batchSize:    batchSize,
	}
}

// Run polls until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zlog.Logger.Print("scheduler stopped")
			return
		case <-ticker.C:
			if n := s.tick(ctx); n > 0 {
				zlog.Logger.Info().Int("published", n).Msg("dispatched ready queue items")
			}
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) int {
	items, err := s.queue.DequeueReady(ctx, s.batchSize)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to claim ready queue items")
		return 0
	}

	published := 0
	for _, item := range items {
		msg := queue.DispatchMessage{
			NotificationID: item.NotificationID,
			Priority:       item.Priority,
			EnqueuedAt:     item.EnqueuedAt,
		}

		if err := s.publisher.Publish(msg, s.strategy); err != nil {
			zlog.Logger.Error().Err(err).
				Str("notification_id", item.NotificationID.String()).
				Msg("failed to publish dispatch message, requeueing")

			if rerr := s.queue.RequeueWithDelay(ctx, item.NotificationID, item.Priority, s.pollInterval); rerr != nil {
				zlog.Logger.Error().Err(rerr).
					Str("notification_id", item.NotificationID.String()).
					Msg("failed to requeue claimed item")
			}
			continue
		}

		published++
	}

	return published
}
