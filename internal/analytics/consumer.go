package analytics

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Consumer drains scan and download events into the analytics store.
// It runs off the hot resolve path; a stalled consumer delays dashboards,
// never redirects.
type Consumer struct {
	subscriber message.Subscriber
	store      Store
	logger     *zap.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewConsumer creates a new analytics consumer.
func NewConsumer(subscriber message.Subscriber, store Store, logger *zap.Logger) *Consumer {
	return &Consumer{
		subscriber: subscriber,
		store:      store,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start begins consuming messages from both topics.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	scanMsgs, err := c.subscriber.Subscribe(ctx, TopicCodeScanned)
	if err != nil {
		return err
	}

	downloadMsgs, err := c.subscriber.Subscribe(ctx, TopicCodeDownloaded)
	if err != nil {
		return err
	}

	go c.consumeLoop(ctx, scanMsgs, downloadMsgs)

	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context, scanMsgs, downloadMsgs <-chan *message.Message) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-scanMsgs:
			if !ok {
				return
			}

			c.handleScan(ctx, msg)
		case msg, ok := <-downloadMsgs:
			if !ok {
				return
			}

			c.handleDownload(ctx, msg)
		}
	}
}

func (c *Consumer) handleScan(ctx context.Context, msg *message.Message) {
	var event ScanEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		c.logger.Error("failed to unmarshal scan event",
			zap.Error(err),
		)
		msg.Nack()

		return
	}

	if err := c.store.SaveScan(ctx, &event); err != nil {
		c.logger.Error("failed to save scan event",
			zap.String("code", event.Code),
			zap.String("eventId", event.EventID),
			zap.Error(err),
		)
		msg.Nack()

		return
	}

	msg.Ack()

	c.logger.Debug("processed scan event",
		zap.String("code", event.Code),
		zap.String("outcome", string(event.Outcome)),
	)
}

func (c *Consumer) handleDownload(ctx context.Context, msg *message.Message) {
	var event DownloadEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		c.logger.Error("failed to unmarshal download event",
			zap.Error(err),
		)
		msg.Nack()

		return
	}

	if err := c.store.SaveDownload(ctx, &event); err != nil {
		c.logger.Error("failed to save download event",
			zap.String("code", event.Code),
			zap.String("eventId", event.EventID),
			zap.Error(err),
		)
		msg.Nack()

		return
	}

	msg.Ack()

	c.logger.Debug("processed download event",
		zap.String("code", event.Code),
		zap.String("format", event.Format),
	)
}

// Shutdown stops the consumer and waits for in-flight messages to complete.
// The subscriber is owned by the consumer group and closed there.
func (c *Consumer) Shutdown() error {
	if c.cancel != nil {
		c.cancel()
	}

	<-c.done

	return nil
}
