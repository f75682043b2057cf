package repository

import (
	"context"
	"time"

	"MarketIntel/internal/domain/models"
	domrepo "MarketIntel/internal/domain/repository"
	pkgkafka "MarketIntel/pkg/kafka"

	"github.com/google/uuid"
)

// KafkaPublisher publishes analytics events and stream ticks.
type KafkaPublisher struct {
	producer    *pkgkafka.Producer
	eventsTopic string
	ticksTopic  string
}

var (
	_ domrepo.EventPublisher = (*KafkaPublisher)(nil)
	_ domrepo.TickPublisher  = (*KafkaPublisher)(nil)
)

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, eventsTopic, ticksTopic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, eventsTopic: eventsTopic, ticksTopic: ticksTopic}
}

// PublishEvent keys events by their subject so one symbol stays on one partition.
func (p *KafkaPublisher) PublishEvent(ctx context.Context, ev *models.AnalyticsEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	return p.producer.Publish(ctx, p.eventsTopic, []byte(ev.Key), ev)
}

func (p *KafkaPublisher) PublishTick(ctx context.Context, t *models.Tick) error {
	return p.producer.Publish(ctx, p.ticksTopic, []byte(t.Symbol), t)
}

// PublishTicks writes ticks in one producer call, keyed by symbol.
func (p *KafkaPublisher) PublishTicks(ctx context.Context, ticks []*models.Tick) error {
	msgs := make([]pkgkafka.Message, 0, len(ticks))
	for _, t := range ticks {
		if t != nil {
			msgs = append(msgs, pkgkafka.Message{Key: []byte(t.Symbol), Value: t})
		}
	}
	return p.producer.PublishBatch(ctx, p.ticksTopic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
