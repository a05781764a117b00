package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/wb-go/wbf/retry"

	"github.com/storelane/notification-service/internal/model"
	"github.com/storelane/notification-service/internal/rabbitmq/queue"
)

type fakeReadyQueue struct {
	mu       sync.Mutex
	items    []model.QueueItem
	requeued []uuid.UUID
	err      error
}

func (q *fakeReadyQueue) DequeueReady(_ context.Context, limit int) ([]model.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.err != nil {
		return nil, q.err
	}
	if limit > len(q.items) {
		limit = len(q.items)
	}
	claimed := q.items[:limit]
	q.items = q.items[limit:]
	return claimed, nil
}

func (q *fakeReadyQueue) RequeueWithDelay(_ context.Context, id uuid.UUID, _ model.Priority, _ time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.requeued = append(q.requeued, id)
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []queue.DispatchMessage
	err       error
}

func (p *fakePublisher) Publish(msg queue.DispatchMessage, _ retry.Strategy) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, msg)
	return nil
}

func TestScheduler_TickPublishesClaimedItems(t *testing.T) {
	q := &fakeReadyQueue{items: []model.QueueItem{
		{NotificationID: uuid.New(), Priority: model.PriorityHigh},
		{NotificationID: uuid.New(), Priority: model.PriorityLow},
	}}
	pub := &fakePublisher{}

	s := NewScheduler(q, pub, retry.Strategy{Attempts: 1}, time.Second, 10)

	assert.Equal(t, 2, s.tick(context.Background()))
	assert.Len(t, pub.published, 2)
	assert.Equal(t, model.PriorityHigh, pub.published[0].Priority)
	assert.Empty(t, q.items)
}

func TestScheduler_TickRespectsBatchSize(t *testing.T) {
	q := &fakeReadyQueue{}
	for i := 0; i < 5; i++ {
		q.items = append(q.items, model.QueueItem{NotificationID: uuid.New()})
	}
	pub := &fakePublisher{}

	s := NewScheduler(q, pub, retry.Strategy{Attempts: 1}, time.Second, 3)

	assert.Equal(t, 3, s.tick(context.Background()))
	assert.Len(t, q.items, 2)
}

func TestScheduler_PublishFailureRequeuesItem(t *testing.T) {
	id := uuid.New()
	q := &fakeReadyQueue{items: []model.QueueItem{{NotificationID: id}}}
	pub := &fakePublisher{err: errors.New("broker down")}

	s := NewScheduler(q, pub, retry.Strategy{Attempts: 1}, time.Second, 10)

	assert.Equal(t, 0, s.tick(context.Background()))
	assert.Equal(t, []uuid.UUID{id}, q.requeued)
}

func TestScheduler_ClaimErrorIsNotFatal(t *testing.T) {
	q := &fakeReadyQueue{err: errors.New("db down")}

	s := NewScheduler(q, &fakePublisher{}, retry.Strategy{Attempts: 1}, time.Second, 10)

	assert.Equal(t, 0, s.tick(context.Background()))
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	s := NewScheduler(&fakeReadyQueue{}, &fakePublisher{}, retry.Strategy{Attempts: 1}, 10*time.Millisecond, 10)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
