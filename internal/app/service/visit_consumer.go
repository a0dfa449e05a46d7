package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sifan077/PayLink/internal/app/model"
	"github.com/sifan077/PayLink/internal/infra/prometheus"
	"go.uber.org/zap"
)

const (
	visitFetchBatch   = 10
	visitFetchMaxWait = 5 * time.Second
	visitFetchBackoff = time.Second
)

// VisitHandler attributes one delivered visit.
type VisitHandler interface {
	AttributeVisit(ctx context.Context, visit model.Visit) error
}

// VisitConsumer attributes queued visits from NATS JetStream. Delivery is
// at-least-once; the handler dedups on event id.
type VisitConsumer struct {
	js      nats.JetStreamContext
	logger  *zap.Logger
	handler VisitHandler

	// backoff is the pause after a failed fetch.
	backoff time.Duration
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewVisitConsumer creates a new visit consumer.
func NewVisitConsumer(js nats.JetStreamContext, logger *zap.Logger, handler VisitHandler) *VisitConsumer {
	return &VisitConsumer{
		js:      js,
		logger:  logger,
		handler: handler,
		backoff: visitFetchBackoff,
		stopCh:  make(chan struct{}),
	}
}

// Start ensures the stream and durable consumer exist and begins consuming.
func (c *VisitConsumer) Start() error {
	if _, err := c.js.StreamInfo(model.VisitStreamName); err != nil {
		_, err = c.js.AddStream(&nats.StreamConfig{
			Name:     model.VisitStreamName,
			Subjects: []string{model.VisitStreamSubject},
			MaxBytes: model.VisitStreamMaxBytes,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	if _, err := c.js.ConsumerInfo(model.VisitStreamName, model.VisitConsumerName); err != nil {
		_, err = c.js.AddConsumer(model.VisitStreamName, &nats.ConsumerConfig{
			Durable:   model.VisitConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.VisitStreamSubject, model.VisitConsumerName)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	c.wg.Add(1)
	go c.consume(sub)
	c.logger.Info("visit consumer started", zap.String("stream", model.VisitStreamName))
	return nil
}

// Stop ends the fetch loop and waits for the in-flight batch.
func (c *VisitConsumer) Stop() {
	close(c.stopCh)
	c.wg.Wait()
	c.logger.Info("visit consumer stopped")
}

func (c *VisitConsumer) consume(sub *nats.Subscription) {
	defer c.wg.Done()
	defer sub.Unsubscribe()

	ctx := context.Background()
	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		msgs, err := sub.Fetch(visitFetchBatch, nats.MaxWait(visitFetchMaxWait))
		if err != nil && !errors.Is(err, nats.ErrTimeout) {
			c.logger.Error("failed to fetch messages", zap.Error(err))
			prometheus.ObserveVisitConsumerError()
			if !c.pause() {
				return
			}
			continue
		}

		for _, msg := range msgs {
			c.handle(ctx, msg)
		}
	}
}

// pause waits out the fetch backoff. It reports false when the consumer
// was stopped meanwhile.
func (c *VisitConsumer) pause() bool {
	timer := time.NewTimer(c.backoff)
	defer timer.Stop()
	select {
	case <-c.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

func (c *VisitConsumer) handle(ctx context.Context, msg *nats.Msg) {
	var visit model.Visit
	if err := json.Unmarshal(msg.Data, &visit); err != nil {
		// Undecodable payloads are never redelivered.
		c.logger.Error("failed to unmarshal visit", zap.Error(err))
		prometheus.ObserveVisitConsumerError()
		_ = msg.Term()
		return
	}

	if err := c.handler.AttributeVisit(ctx, visit); err != nil {
		c.logger.Error("failed to attribute visit",
			zap.String("id", visit.EventID),
			zap.String("short_code", visit.ShortCode),
			zap.Error(err))
		prometheus.ObserveVisitConsumerError()
		_ = msg.Nak()
		return
	}

	c.logger.Debug("visit attributed",
		zap.String("id", visit.EventID),
		zap.String("short_code", visit.ShortCode),
		zap.String("country", visit.Country),
		zap.Time("timestamp", visit.Timestamp))
	_ = msg.Ack()
}
