package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MarketIntel/internal/domain/models"
	drepo "MarketIntel/internal/domain/repository"
)

// TickProcessor forwards live ticks to the configured sinks: the Kafka tick
// topic and/or the ClickHouse tick archive. Either sink may be nil.
type TickProcessor struct {
	pub     drepo.TickPublisher
	store   drepo.TickStore
	metrics drepo.Metrics
}

// NewTickProcessor creates a new TickProcessor instance.
func NewTickProcessor(pub drepo.TickPublisher, store drepo.TickStore, metrics drepo.Metrics) *TickProcessor {
	return &TickProcessor{pub: pub, store: store, metrics: metrics}
}

// Enabled reports whether any sink is configured.
func (p *TickProcessor) Enabled() bool { return p.pub != nil || p.store != nil }

// Process sends a single tick to every sink. All sinks are attempted even
// when one fails.
func (p *TickProcessor) Process(ctx context.Context, t *models.Tick) error {
	if t == nil {
		return fmt.Errorf("tick is nil")
	}
	start := time.Now()

	var errs []error
	if p.pub != nil {
		if err := p.pub.PublishTick(ctx, t); err != nil {
			p.metrics.RecordError("tick_publish")
			errs = append(errs, fmt.Errorf("publish tick: %w", err))
		}
	}
	if p.store != nil {
		if err := p.store.StoreTicks(ctx, []*models.Tick{t}); err != nil {
			p.metrics.RecordError("tick_store")
			errs = append(errs, fmt.Errorf("store tick: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	p.metrics.RecordLatency("tick_process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch publishes and archives ticks with one call per sink.
func (p *TickProcessor) ProcessBatch(ctx context.Context, ticks []*models.Tick) error {
	if len(ticks) == 0 {
		return nil
	}
	start := time.Now()

	var errs []error
	if p.pub != nil {
		if err := p.pub.PublishTicks(ctx, ticks); err != nil {
			p.metrics.RecordError("tick_publish_batch")
			errs = append(errs, fmt.Errorf("publish batch: %w", err))
		}
	}
	if p.store != nil {
		if err := p.store.StoreTicks(ctx, ticks); err != nil {
			p.metrics.RecordError("tick_store_batch")
			errs = append(errs, fmt.Errorf("store batch: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	p.metrics.RecordLatency("tick_process_batch", time.Since(start).Seconds())
	return nil
}
