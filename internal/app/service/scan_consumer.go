package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"qroute/internal/app/model"
	"qroute/internal/app/repository"
)

// ScanConsumer drains scan events from JetStream into the analytics store.
type ScanConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
	repo   repository.ScanEventRepository
}

// NewScanConsumer creates a scan event consumer.
func NewScanConsumer(js nats.JetStreamContext, logger *zap.Logger, repo repository.ScanEventRepository) *ScanConsumer {
	return &ScanConsumer{js: js, logger: logger, repo: repo}
}

// Start ensures the stream and durable consumer exist, then begins pulling
// events in the background.
func (c *ScanConsumer) Start() error {
	if _, err := c.js.StreamInfo(model.ScanStreamName); err != nil {
		_, err = c.js.AddStream(&nats.StreamConfig{
			Name:     model.ScanStreamName,
			Subjects: []string{model.ScanStreamSubject},
			MaxBytes: model.ScanStreamMaxBytes,
		})
		if err != nil {
			return fmt.Errorf("create scan stream: %w", err)
		}
	}

	if _, err := c.js.ConsumerInfo(model.ScanStreamName, model.ScanConsumerName); err != nil {
		_, err = c.js.AddConsumer(model.ScanStreamName, &nats.ConsumerConfig{
			Durable:   model.ScanConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("create scan consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.ScanStreamSubject, model.ScanConsumerName)
	if err != nil {
		return fmt.Errorf("subscribe to scan stream: %w", err)
	}

	go c.consume(sub)
	return nil
}

func (c *ScanConsumer) consume(sub *nats.Subscription) {
	ctx := context.Background()
	for {
		msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
		if err != nil && err != nats.ErrTimeout {
			c.logger.Error("failed to fetch scan events", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			var event model.ScanEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				c.logger.Error("failed to unmarshal scan event", zap.Error(err))
				_ = msg.Nak()
				continue
			}

			if err := c.repo.Create(ctx, &event); err != nil {
				c.logger.Error("failed to store scan event",
					zap.String("id", event.ID),
					zap.String("route_id", event.RouteID),
					zap.Error(err))
				_ = msg.Nak()
				continue
			}

			_ = msg.Ack()
		}
	}
}
