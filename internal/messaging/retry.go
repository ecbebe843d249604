package messaging

import (
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

type pendingMessage struct {
	topic string
	msg   *message.Message
}

// RetryPublisher decorates a publisher with asynchronous redelivery.
// A failed publish is queued and retried in the background, so callers on
// the resolve path get best-effort semantics: the resolve outcome is already
// decided by the time the event is published, and a broker outage must not
// change it.
type RetryPublisher struct {
	inner    message.Publisher
	logger   *zap.Logger
	pending  chan pendingMessage
	interval time.Duration
	closing  chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewRetryPublisher creates a retry publisher with a bounded redelivery
// queue. When the queue is full the oldest failure is dropped; the ledger
// is best-effort, analytics tolerates gaps but the queue must not grow
// without bound.
func NewRetryPublisher(inner message.Publisher, logger *zap.Logger, queueSize int) *RetryPublisher {
	p := &RetryPublisher{
		inner:    inner,
		logger:   logger,
		pending:  make(chan pendingMessage, queueSize),
		interval: time.Second,
		closing:  make(chan struct{}),
	}

	p.wg.Add(1)
	go p.retryLoop()

	return p
}

func (p *RetryPublisher) Publish(topic string, msgs ...*message.Message) error {
	var firstErr error

	for _, msg := range msgs {
		if err := p.inner.Publish(topic, msg); err != nil {
			if firstErr == nil {
				firstErr = err
			}

			p.enqueue(pendingMessage{topic: topic, msg: msg})
		}
	}

	return firstErr
}

func (p *RetryPublisher) enqueue(pm pendingMessage) {
	for {
		select {
		case p.pending <- pm:
			return
		default:
		}

		// Queue full: drop the oldest entry to make room.
		select {
		case dropped := <-p.pending:
			p.logger.Warn("dropping unretried message",
				zap.String("topic", dropped.topic),
			)
		default:
		}
	}
}

func (p *RetryPublisher) retryLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.closing:
			return
		case <-ticker.C:
			p.drainOnce()
		}
	}
}

func (p *RetryPublisher) drainOnce() {
	for {
		select {
		case pm := <-p.pending:
			if err := p.inner.Publish(pm.topic, pm.msg); err != nil {
				p.logger.Debug("retry publish failed",
					zap.String("topic", pm.topic),
					zap.Error(err),
				)
				p.enqueue(pm)

				return
			}
		default:
			return
		}
	}
}

// Close stops the retry loop and closes the underlying publisher. Messages
// still pending are dropped.
func (p *RetryPublisher) Close() error {
	p.once.Do(func() {
		close(p.closing)
	})
	p.wg.Wait()

	return p.inner.Close()
}

// Compile-time check.
var _ message.Publisher = (*RetryPublisher)(nil)
