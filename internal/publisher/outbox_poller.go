package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	r "github.com/itadmit/quickshop3-sub006/internal/repository"
)

// OutboxPoller drains the transactional outbox into Kafka. Events become
// visible to consumers only after the producing transaction committed, so
// consumers never race ahead of the durable write.
type OutboxPoller struct {
	batchSize   int
	eventTick   time.Duration
	cleanupTick time.Duration
	retention   time.Duration
	store       r.OutboxStore
	writer      *kafka.Writer
	logger      *slog.Logger
}

func NewOutboxPoller(store r.OutboxStore, logger *slog.Logger, topic string, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{
		batchSize:   100,
		eventTick:   time.Second,
		cleanupTick: time.Hour,
		retention:   24 * time.Hour,
		store:       store,
		writer:      w,
		logger:      logger,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	cleanupTicker := time.NewTicker(p.cleanupTick)
	defer eventTicker.Stop()
	defer cleanupTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-cleanupTicker.C:
			p.trimProcessedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.store.GetUnprocessedEvents(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("failed to fetch outbox events", "error", err)
		return
	}

	for _, event := range events {
		if errPublish := p.publish(ctx, event); errPublish != nil {
			p.logger.Error("failed to publish event", "event_id", event.ID, "error", errPublish)
			continue
		}

		// Marking happens only after a successful publish; a crash between
		// the two yields at-least-once delivery, never loss.
		if errMark := p.store.MarkEventAsProcessed(ctx, event.ID); errMark != nil {
			p.logger.Error("failed to mark event as processed", "event_id", event.ID, "error", errMark)
			continue
		}
	}
}

func (p *OutboxPoller) trimProcessedEvents(ctx context.Context) {
	cutoff := time.Now().Add(-p.retention)
	n, err := p.store.DeleteProcessedEventsBefore(ctx, cutoff)
	if err != nil {
		p.logger.Error("failed to trim outbox", "error", err)
		return
	}
	if n > 0 {
		p.logger.Info("trimmed processed outbox events", "deleted", n)
	}
}

func (p *OutboxPoller) publish(ctx context.Context, event *r.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // ordering per aggregate
		Value: event.Payload,             // already JSON from the database
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}
