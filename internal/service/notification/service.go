package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/storelane/notification-service/internal/model"
	"github.com/storelane/notification-service/internal/orchestrator"
	attemptrepo "github.com/storelane/notification-service/internal/repository/attempt"
	notifrepo "github.com/storelane/notification-service/internal/repository/notification"
)

var ErrNotCancellable = errors.New("notification is no longer cancellable")

type notificationRepository interface {
	Create(ctx context.Context, n model.Notification) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.Notification, error)
	GetStatusByID(ctx context.Context, id uuid.UUID) (model.Status, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status) error
	ListForUser(ctx context.Context, userID string, f notifrepo.ListFilter) ([]model.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, userID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
}

type attemptLedger interface {
	Record(ctx context.Context, a model.DeliveryAttempt) error
	ListByNotification(ctx context.Context, notificationID uuid.UUID) ([]model.DeliveryAttempt, error)
	LatestByExternalID(ctx context.Context, externalID string) (model.DeliveryAttempt, error)
}

type dispatchQueue interface {
	Enqueue(ctx context.Context, item model.QueueItem) error
	Remove(ctx context.Context, notificationID uuid.UUID) (int64, error)
	Depth(ctx context.Context) (int, error)
}

type dispatcher interface {
	Dispatch(ctx context.Context, n model.Notification) (orchestrator.AggregateResult, error)
}

type inFlightCounter interface {
	InFlight() int
}

type cache interface {
	SetWithRetry(ctx context.Context, strategy retry.Strategy, key string, value interface{}) error
	GetWithRetry(ctx context.Context, strategy retry.Strategy, key string) (string, error)
}

// QueueStats is a point-in-time snapshot of the dispatch pipeline.
type QueueStats struct {
	Depth    int `json:"depth"`
	InFlight int `json:"in_flight"`
}

type Service struct {
	repo       notificationRepository
	attempts   attemptLedger
	queue      dispatchQueue
	dispatcher dispatcher
	inFlight   inFlightCounter
	cache      cache

	defaultMaxRetries int
}

func NewService(
	repo notificationRepository,
	attempts attemptLedger,
	queue dispatchQueue,
	dispatcher dispatcher,
	inFlight inFlightCounter,
	cache cache,
	defaultMaxRetries int,
) *Service {
	if defaultMaxRetries <= 0 {
		defaultMaxRetries = 3
	}

	return &Service{
		repo:              repo,
		attempts:          attempts,
		queue:             queue,
		dispatcher:        dispatcher,
		inFlight:          inFlight,
		cache:             cache,
		defaultMaxRetries: defaultMaxRetries,
	}
}

// Submit accepts a notification, persists it and routes it into the dispatch
// pipeline. High priority notifications without a schedule skip the queue and
// go out on the spot.
func (s *Service) Submit(ctx context.Context, strategy retry.Strategy, n model.Notification) (uuid.UUID, error) {
	if n.Priority == "" {
		n.Priority = model.PriorityMedium
	}
	if n.MaxRetries <= 0 {
		n.MaxRetries = s.defaultMaxRetries
	}
	n.Status = model.StatusPending

	if n.ExpiresAt != nil && !n.ExpiresAt.After(time.Now()) {
		return uuid.Nil, fmt.Errorf("expires_at is already in the past")
	}

	id, err := s.repo.Create(ctx, n)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create notification: %w", err)
	}
	n.ID = id

	if err := s.cache.SetWithRetry(ctx, strategy, id.String(), string(n.Status)); err != nil {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to cache notification status")
	}

	if n.ImmediateBypass() {
		res, err := s.dispatcher.Dispatch(ctx, n)
		if err != nil {
			// fall back to the durable queue so the notification is
			// picked up again instead of sitting in pending forever
			zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("immediate dispatch failed, queueing instead")

			qerr := s.queue.Enqueue(ctx, model.QueueItem{
				NotificationID: id,
				Priority:       n.Priority,
				NotBefore:      time.Now(),
				EnqueuedAt:     time.Now(),
			})
			if qerr != nil {
				return uuid.Nil, fmt.Errorf("enqueue after failed dispatch: %w", qerr)
			}
			return id, nil
		}

		if err := s.cache.SetWithRetry(ctx, strategy, id.String(), string(res.Status)); err != nil {
			zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to cache notification status")
		}
		return id, nil
	}

	notBefore := time.Now()
	if n.ScheduledAt != nil {
		notBefore = *n.ScheduledAt
	}

	err = s.queue.Enqueue(ctx, model.QueueItem{
		NotificationID: id,
		Priority:       n.Priority,
		NotBefore:      notBefore,
		EnqueuedAt:     time.Now(),
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("enqueue notification: %w", err)
	}

	return id, nil
}

// Get returns a notification together with its delivery attempt history.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (model.Notification, []model.DeliveryAttempt, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return model.Notification{}, nil, fmt.Errorf("get notification: %w", err)
	}

	attempts, err := s.attempts.ListByNotification(ctx, id)
	if err != nil {
		return model.Notification{}, nil, fmt.Errorf("list delivery attempts: %w", err)
	}

	return n, attempts, nil
}

// GetStatus reads the status through the cache, falling back to the database
// on a miss.
func (s *Service) GetStatus(ctx context.Context, strategy retry.Strategy, id uuid.UUID) (model.Status, error) {
	cached, err := s.cache.GetWithRetry(ctx, strategy, id.String())
	if err != nil && !errors.Is(err, redis.Nil) {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to get notification status from cache")
	}

	if err == nil && cached != "" {
		return model.Status(cached), nil
	}

	status, err := s.repo.GetStatusByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get notification status: %w", err)
	}

	if err := s.cache.SetWithRetry(ctx, strategy, id.String(), string(status)); err != nil {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to cache notification status")
	}

	return status, nil
}

func (s *Service) List(ctx context.Context, userID string, f notifrepo.ListFilter) ([]model.Notification, error) {
	notifications, err := s.repo.ListForUser(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	return notifications, nil
}

func (s *Service) MarkRead(ctx context.Context, id uuid.UUID, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}

	return nil
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}

	return count, nil
}

// Cancel withdraws a pending notification. Anything already handed to a
// channel stays on its course.
func (s *Service) Cancel(ctx context.Context, strategy retry.Strategy, id uuid.UUID) error {
	err := s.repo.UpdateStatus(ctx, id, model.StatusCancelled)
	if err != nil {
		if errors.Is(err, notifrepo.ErrInvalidTransition) {
			return ErrNotCancellable
		}
		return fmt.Errorf("cancel notification: %w", err)
	}

	if _, err := s.queue.Remove(ctx, id); err != nil {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to remove cancelled notification from queue")
	}

	if err := s.cache.SetWithRetry(ctx, strategy, id.String(), string(model.StatusCancelled)); err != nil {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to cache notification status")
	}

	return nil
}

// HandleProviderStatus applies an asynchronous delivery report from a channel
// provider. Reports are keyed on the provider message ID returned at send
// time; replays of a report already applied are no-ops.
func (s *Service) HandleProviderStatus(ctx context.Context, strategy retry.Strategy, ch model.Channel, externalID string, delivered bool, reason string, occurredAt time.Time) error {
	last, err := s.attempts.LatestByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, attemptrepo.ErrAttemptNotFound) {
			return fmt.Errorf("unknown provider message %q: %w", externalID, err)
		}
		return fmt.Errorf("look up delivery attempt: %w", err)
	}

	outcome := model.OutcomeFailed
	if delivered {
		outcome = model.OutcomeDelivered
	}

	if last.Outcome == outcome {
		return nil
	}

	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	update := model.DeliveryAttempt{
		NotificationID: last.NotificationID,
		Channel:        ch,
		AttemptNumber:  last.AttemptNumber,
		Outcome:        outcome,
		ExternalID:     externalID,
		FailureReason:  reason,
		SentAt:         last.SentAt,
	}
	if delivered {
		update.DeliveredAt = &occurredAt
	}

	if err := s.attempts.Record(ctx, update); err != nil {
		return fmt.Errorf("record delivery report: %w", err)
	}

	if !delivered {
		return nil
	}

	err = s.repo.UpdateStatus(ctx, last.NotificationID, model.StatusDelivered)
	if err != nil {
		// a second callback can race the first one here; the guarded
		// update losing means the status already moved on
		if errors.Is(err, notifrepo.ErrInvalidTransition) {
			return nil
		}
		return fmt.Errorf("update notification status: %w", err)
	}

	if err := s.cache.SetWithRetry(ctx, strategy, last.NotificationID.String(), string(model.StatusDelivered)); err != nil {
		zlog.Logger.Error().Err(err).Str("id", last.NotificationID.String()).Msg("failed to cache notification status")
	}

	return nil
}

// Stats reports the dispatch queue depth and in-flight worker count.
func (s *Service) Stats(ctx context.Context) (QueueStats, error) {
	depth, err := s.queue.Depth(ctx)
	if err != nil {
		return QueueStats{}, fmt.Errorf("queue depth: %w", err)
	}

	return QueueStats{
		Depth:    depth,
		InFlight: s.inFlight.InFlight(),
	}, nil
}
