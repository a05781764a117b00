package worker

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/storelane/notification-service/internal/rabbitmq/queue"
)

type dispatchConsumer interface {
	Consume(out chan<- queue.DispatchMessage, strategy retry.Strategy) error
}

type messageHandler interface {
	HandleMessage(ctx context.Context, msg queue.DispatchMessage)
}

// Pool fans queued dispatch messages out to a fixed set of workers.
type Pool struct {
	queue    dispatchConsumer
	handler  messageHandler
	inFlight atomic.Int64
}

func NewPool(q dispatchConsumer, h messageHandler) *Pool {
	return &Pool{
		queue:   q,
		handler: h,
	}
}

// InFlight reports how many messages are being handled right now.
func (p *Pool) InFlight() int {
	return int(p.inFlight.Load())
}

// Run consumes dispatch messages until ctx is cancelled. It blocks until
// every worker has drained its current message.
func (p *Pool) Run(ctx context.Context, strategy retry.Strategy, workerCount int) {
	msgChan := make(chan queue.DispatchMessage)

	go func() {
		if err := p.queue.Consume(msgChan, strategy); err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to consume messages")
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)

		go func(id int) {
			defer wg.Done()
			zlog.Logger.Printf("worker-%d started", id)

			for {
				select {
				case <-ctx.Done():
					zlog.Logger.Printf("worker-%d shutting down", id)
					return
				case msg := <-msgChan:
					p.inFlight.Add(1)
					p.handler.HandleMessage(ctx, msg)
					p.inFlight.Add(-1)
				}
			}
		}(i)
	}

	wg.Wait()
	zlog.Logger.Print("worker pool stopped")
}
