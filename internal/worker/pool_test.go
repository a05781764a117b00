package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/wb-go/wbf/retry"

	"github.com/storelane/notification-service/internal/rabbitmq/queue"
)

type fakeConsumer struct {
	messages []queue.DispatchMessage
}

func (c *fakeConsumer) Consume(out chan<- queue.DispatchMessage, _ retry.Strategy) error {
	for _, m := range c.messages {
		out <- m
	}
	return nil
}

type fakeHandler struct {
	mu      sync.Mutex
	handled []uuid.UUID
	block   time.Duration
}

func (h *fakeHandler) HandleMessage(_ context.Context, msg queue.DispatchMessage) {
	if h.block > 0 {
		time.Sleep(h.block)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, msg.NotificationID)
}

func (h *fakeHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestPool_HandlesAllMessages(t *testing.T) {
	msgs := make([]queue.DispatchMessage, 10)
	for i := range msgs {
		msgs[i] = queue.DispatchMessage{NotificationID: uuid.New()}
	}

	handler := &fakeHandler{}
	pool := NewPool(&fakeConsumer{messages: msgs}, handler)

	ctx, cancel := context.WithCancel(context.Background())
	go pool.Run(ctx, retry.Strategy{Attempts: 1}, 4)

	assert.Eventually(t, func() bool {
		return handler.count() == len(msgs)
	}, time.Second, 10*time.Millisecond)

	cancel()
}

func TestPool_StopsOnContextCancel(t *testing.T) {
	pool := NewPool(&fakeConsumer{}, &fakeHandler{})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		pool.Run(ctx, retry.Strategy{Attempts: 1}, 2)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pool did not stop after cancel")
	}
}

func TestPool_TracksInFlight(t *testing.T) {
	handler := &fakeHandler{block: 100 * time.Millisecond}
	pool := NewPool(&fakeConsumer{messages: []queue.DispatchMessage{
		{NotificationID: uuid.New()},
		{NotificationID: uuid.New()},
	}}, handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go pool.Run(ctx, retry.Strategy{Attempts: 1}, 2)

	assert.Eventually(t, func() bool {
		return pool.InFlight() == 2
	}, time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		return pool.InFlight() == 0 && handler.count() == 2
	}, time.Second, 5*time.Millisecond)
}
