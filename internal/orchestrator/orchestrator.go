// Package orchestrator fans a single notification out across its resolved
// channels concurrently, records every attempt in the delivery ledger before
// touching the status record, and drives the backoff/requeue path when every
// channel fails.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/storelane/notification-service/internal/channel"
	"github.com/storelane/notification-service/internal/model"
	"github.com/storelane/notification-service/internal/resolver"
)

type ledger interface {
	Record(ctx context.Context, a model.DeliveryAttempt) error
}

type notificationStore interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status) error
	IncrementRetry(ctx context.Context, id uuid.UUID) error
}

type directory interface {
	Endpoints(ctx context.Context, userID string) (model.RecipientEndpoints, error)
	Preferences(ctx context.Context, userID string) (model.RecipientPreference, error)
	Invalidate(ctx context.Context, userID string, ch model.Channel, endpoint string)
}

type dispatchQueue interface {
	RequeueWithDelay(ctx context.Context, notificationID uuid.UUID, priority model.Priority, delay time.Duration) error
}

// AggregateResult is the outcome of one dispatch round.
type AggregateResult struct {
	Status   model.Status // the status the notification ended the round in
	Channels []model.Channel
	Results  []channel.Result
	Requeued bool
}

// Config holds the orchestrator's dispatch tuning.
type Config struct {
	SendTimeout time.Duration // per-adapter call budget
	BackoffBase time.Duration // first retry delay
	BackoffCap  time.Duration // upper bound on the retry delay
}

// Orchestrator coordinates channel adapters, the delivery ledger, the
// recipient directory and the dispatch queue for one notification at a time.
type Orchestrator struct {
	adapters      map[model.Channel]channel.Adapter
	ledger        ledger
	notifications notificationStore
	directory     directory
	queue         dispatchQueue
	cfg           Config
}

// New creates a delivery orchestrator.
func New(
	adapters map[model.Channel]channel.Adapter,
	ledger ledger,
	notifications notificationStore,
	directory directory,
	queue dispatchQueue,
	cfg Config,
) *Orchestrator {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 30 * time.Second
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = 30 * time.Minute
	}

	return &Orchestrator{
		adapters:      adapters,
		ledger:        ledger,
		notifications: notifications,
		directory:     directory,
		queue:         queue,
		cfg:           cfg,
	}
}

// Dispatch runs one delivery round for the notification. Expired
// notifications never reach an adapter. A ledger write failure aborts the
// round before any status transition so the ledger stays authoritative.
func (o *Orchestrator) Dispatch(ctx context.Context, n model.Notification) (AggregateResult, error) {
	now := time.Now()

	if n.Expired(now) {
		if err := o.notifications.UpdateStatus(ctx, n.ID, model.StatusExpired); err != nil {
			return AggregateResult{}, fmt.Errorf("expire notification: %w", err)
		}
		zlog.Logger.Info().Str("id", n.ID.String()).Msg("notification expired before dispatch")
		return AggregateResult{Status: model.StatusExpired}, nil
	}

	prefs, err := o.directory.Preferences(ctx, n.UserID)
	if err != nil {
		return AggregateResult{}, fmt.Errorf("resolve preferences: %w", err)
	}

	endpoints, err := o.directory.Endpoints(ctx, n.UserID)
	if err != nil {
		return AggregateResult{}, fmt.Errorf("resolve endpoints: %w", err)
	}

	channels := resolver.Resolve(n, prefs, now)
	results := o.fanOut(ctx, n, endpoints, channels)

	// Ledger before transition: if an attempt cannot be persisted the whole
	// round fails and the item is redelivered.
	attemptNumber := n.RetryCount + 1
	for _, res := range results {
		if err := o.ledger.Record(ctx, buildAttempt(n.ID, attemptNumber, res)); err != nil {
			return AggregateResult{}, fmt.Errorf("record delivery attempt: %w", err)
		}
	}

	for _, res := range results {
		for _, dead := range res.InvalidEndpoints {
			o.directory.Invalidate(ctx, n.UserID, res.Channel, dead)
		}
	}

	agg := AggregateResult{Channels: channels, Results: results}

	anySuccess, anyDelivered := false, false
	for _, res := range results {
		if res.Success() {
			anySuccess = true
			if res.Delivered {
				anyDelivered = true
			}
		}
	}

	switch {
	case anySuccess:
		if err := o.notifications.UpdateStatus(ctx, n.ID, model.StatusSent); err != nil {
			return agg, fmt.Errorf("mark sent: %w", err)
		}
		agg.Status = model.StatusSent

		if anyDelivered {
			if err := o.notifications.UpdateStatus(ctx, n.ID, model.StatusDelivered); err != nil {
				return agg, fmt.Errorf("mark delivered: %w", err)
			}
			agg.Status = model.StatusDelivered
		}

	case n.RetryCount >= n.MaxRetries:
		if err := o.notifications.UpdateStatus(ctx, n.ID, model.StatusFailed); err != nil {
			return agg, fmt.Errorf("mark failed: %w", err)
		}
		agg.Status = model.StatusFailed
		zlog.Logger.Warn().
			Str("id", n.ID.String()).
			Int("retries", n.RetryCount).
			Msg("notification failed, retries exhausted")

	default:
		if err := o.notifications.IncrementRetry(ctx, n.ID); err != nil {
			return agg, fmt.Errorf("increment retry: %w", err)
		}

		delay := o.backoffDelay(n.RetryCount)
		if err := o.queue.RequeueWithDelay(ctx, n.ID, n.Priority, delay); err != nil {
			return agg, fmt.Errorf("requeue notification: %w", err)
		}

		agg.Status = model.StatusPending
		agg.Requeued = true
		zlog.Logger.Info().
			Str("id", n.ID.String()).
			Dur("delay", delay).
			Int("retry", n.RetryCount+1).
			Msg("all channels failed, requeued with backoff")
	}

	return agg, nil
}

// fanOut invokes every channel adapter concurrently, each wrapped in its own
// timeout. Results come back in channel order; one adapter's failure never
// blocks the others.
func (o *Orchestrator) fanOut(ctx context.Context, n model.Notification, ep model.RecipientEndpoints, channels []model.Channel) []channel.Result {
	results := make([]channel.Result, len(channels))

	var wg sync.WaitGroup
	for i, ch := range channels {
		adapter, ok := o.adapters[ch]
		if !ok {
			results[i] = channel.Result{Channel: ch, Err: channel.Permanent("no adapter registered for channel %s", ch)}
			continue
		}

		wg.Add(1)
		go func(i int, adapter channel.Adapter) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, o.cfg.SendTimeout)
			defer cancel()

			results[i] = adapter.Send(sendCtx, n, ep)
		}(i, adapter)
	}
	wg.Wait()

	return results
}

func buildAttempt(notificationID uuid.UUID, attemptNumber int, res channel.Result) model.DeliveryAttempt {
	a := model.DeliveryAttempt{
		NotificationID:   notificationID,
		Channel:          res.Channel,
		AttemptNumber:    attemptNumber,
		ExternalID:       res.ExternalID,
		ProviderResponse: res.Response,
		SentAt:           time.Now(),
	}

	switch {
	case res.Err != nil:
		a.Outcome = model.OutcomeFailed
		a.FailureReason = res.Err.Error()
	case res.Delivered:
		a.Outcome = model.OutcomeDelivered
		now := a.SentAt
		a.DeliveredAt = &now
	default:
		a.Outcome = model.OutcomeSent
	}

	return a
}

// backoffDelay computes base * 2^retryCount capped at the configured maximum.
func (o *Orchestrator) backoffDelay(retryCount int) time.Duration {
	delay := o.cfg.BackoffBase
	for i := 0; i < retryCount; i++ {
		delay *= 2
		if delay >= o.cfg.BackoffCap {
			return o.cfg.BackoffCap
		}
	}
	if delay > o.cfg.BackoffCap {
		return o.cfg.BackoffCap
	}
	return delay
}
