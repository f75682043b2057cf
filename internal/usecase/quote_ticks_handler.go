package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"MarketIntel/internal/domain/models"
	domrepo "MarketIntel/internal/domain/repository"
	mid "MarketIntel/internal/middleware"
	pkgkafka "MarketIntel/pkg/kafka"
)

// QuoteTicksHandler folds ticks published by other instances into the
// local quote book.
type QuoteTicksHandler struct {
	topic   string
	book    QuoteApplier
	metrics domrepo.Metrics
}

func NewQuoteTicksHandler(topic string, book QuoteApplier, metrics domrepo.Metrics) *QuoteTicksHandler {
	return &QuoteTicksHandler{topic: topic, book: book, metrics: metrics}
}

func (h *QuoteTicksHandler) Topic() string { return h.topic }

// Handle expects the tick topic schema {symbol, p, v, t}. Undecodable
// payloads fail permanently and go to the DLQ without retries. Decodable
// but invalid ticks are dropped.
func (h *QuoteTicksHandler) Handle(_ context.Context, b []byte) error {
	var t models.Tick
	if err := json.Unmarshal(b, &t); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return pkgkafka.Permanent(fmt.Errorf("decode tick: %w", err))
	}
	if err := mid.ValidateTick(&t); err != nil {
		h.metrics.RecordError("consumer_invalid_tick")
		return nil
	}

	h.metrics.RecordLatency("tick_e2e", time.Since(t.Time()).Seconds())
	if h.book.Apply(&t) {
		h.metrics.RecordLastPrice(t.Symbol, t.Price)
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*QuoteTicksHandler)(nil)
