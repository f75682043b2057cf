package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"MarketIntel/internal/domain/models"
)

type fakeTickPublisher struct {
	mu    sync.Mutex
	ticks []*models.Tick
	err   error
}

func (f *fakeTickPublisher) PublishTick(_ context.Context, t *models.Tick) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.ticks = append(f.ticks, t)
	return nil
}

func (f *fakeTickPublisher) PublishTicks(ctx context.Context, ticks []*models.Tick) error {
	for _, t := range ticks {
		if err := f.PublishTick(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

type fakeTickStore struct {
	batches [][]*models.Tick
	err     error
}

func (f *fakeTickStore) StoreTicks(_ context.Context, ticks []*models.Tick) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, ticks)
	return nil
}

type fakeBook struct {
	mu    sync.Mutex
	ticks map[string]float64
}

func newFakeBook() *fakeBook { return &fakeBook{ticks: map[string]float64{}} }

func (b *fakeBook) Apply(t *models.Tick) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ticks[t.Symbol] = t.Price
	return true
}

func (b *fakeBook) price(sym string) (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.ticks[sym]
	return p, ok
}

func tick(sym string, price float64) *models.Tick {
	return &models.Tick{Symbol: sym, Price: price, Volume: 1, Timestamp: time.Now().UnixMilli()}
}

func TestTickProcessor_RoutesToAllSinks(t *testing.T) {
	pub := &fakeTickPublisher{}
	store := &fakeTickStore{}
	p := NewTickProcessor(pub, store, newFakeMetrics())

	if err := p.Process(context.Background(), tick("BTC/USD", 100)); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(pub.ticks) != 1 || len(store.batches) != 1 {
		t.Fatalf("pub=%d store=%d", len(pub.ticks), len(store.batches))
	}

	if err := p.ProcessBatch(context.Background(), []*models.Tick{tick("A", 1), tick("B", 2)}); err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if len(pub.ticks) != 3 || len(store.batches) != 2 || len(store.batches[1]) != 2 {
		t.Fatalf("batch not routed: pub=%d store=%d", len(pub.ticks), len(store.batches))
	}
}

func TestTickProcessor_SinkFailure(t *testing.T) {
	pub := &fakeTickPublisher{err: errors.New("kafka down")}
	store := &fakeTickStore{}
	m := newFakeMetrics()
	p := NewTickProcessor(pub, store, m)

	if err := p.Process(context.Background(), tick("BTC/USD", 100)); err == nil {
		t.Fatalf("expected error")
	}
	if len(store.batches) != 1 {
		t.Fatalf("store should still be attempted")
	}
	if m.errorCount("tick_publish") != 1 {
		t.Fatalf("publish error not counted")
	}
	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatalf("nil tick should fail")
	}
}

func TestTickProcessor_Enabled(t *testing.T) {
	if NewTickProcessor(nil, nil, newFakeMetrics()).Enabled() {
		t.Fatalf("no sinks should be disabled")
	}
	if !NewTickProcessor(&fakeTickPublisher{}, nil, newFakeMetrics()).Enabled() {
		t.Fatalf("publisher sink should enable")
	}
}

func TestQuoteTicksHandler(t *testing.T) {
	book := newFakeBook()
	m := newFakeMetrics()
	h := NewQuoteTicksHandler("marketintel.ticks", book, m)

	if h.Topic() != "marketintel.ticks" {
		t.Fatalf("topic %q", h.Topic())
	}

	b, _ := json.Marshal(tick("ETH/USD", 3000))
	if err := h.Handle(context.Background(), b); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if p, ok := book.price("ETH/USD"); !ok || p != 3000 {
		t.Fatalf("book not updated: %v %v", p, ok)
	}
	if m.lastPrice["ETH/USD"] != 3000 {
		t.Fatalf("last price not recorded")
	}

	if err := h.Handle(context.Background(), []byte("{not json")); err == nil {
		t.Fatalf("malformed payload should error")
	}
	if err := h.Handle(context.Background(), []byte(`{"symbol":"X","p":0,"v":1,"t":1}`)); err != nil {
		t.Fatalf("invalid tick should be dropped, got %v", err)
	}
	if m.errorCount("consumer_invalid_tick") != 1 {
		t.Fatalf("invalid tick not counted")
	}
}

// fakeStream serves one batch of ticks per connection, then fails the first
// connection and keeps the second open until the context ends.
type fakeStream struct {
	mu         sync.Mutex
	reads      int
	reconnects int
	batches    [][]*models.Tick
}

func (s *fakeStream) Connect(context.Context) error   { return nil }
func (s *fakeStream) Subscribe(context.Context) error { return nil }
func (s *fakeStream) Close() error                    { return nil }
func (s *fakeStream) IsConnected() bool               { return true }

func (s *fakeStream) Reconnect(context.Context) error {
	s.mu.Lock()
	s.reconnects++
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	s.mu.Lock()
	n := s.reads
	s.reads++
	s.mu.Unlock()

	ticks := make(chan *models.Tick, 8)
	errs := make(chan error, 1)
	if n < len(s.batches) {
		for _, t := range s.batches[n] {
			ticks <- t
		}
	}
	go func() {
		defer close(ticks)
		defer close(errs)
		if n == 0 {
			errs <- errors.New("connection reset")
			return
		}
		<-ctx.Done()
	}()
	return ticks, errs
}

func TestQuoteCollector_ReconnectsAndFeedsBook(t *testing.T) {
	stream := &fakeStream{batches: [][]*models.Tick{
		{tick("BTC/USD", 100)},
		{tick("ETH/USD", 3000)},
	}}
	book := newFakeBook()
	m := newFakeMetrics()
	c := NewQuoteCollector(stream, book, nil, m)

	ctx, cancel := context.WithCancel(context.Background())
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := book.price("ETH/USD"); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("second connection never consumed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	sctx, scancel := context.WithTimeout(context.Background(), time.Second)
	defer scancel()
	if err := c.Shutdown(sctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	stream.mu.Lock()
	reconnects := stream.reconnects
	stream.mu.Unlock()
	if reconnects != 1 {
		t.Fatalf("expected one reconnect, got %d", reconnects)
	}
	if m.errorCount("stream") != 1 {
		t.Fatalf("stream error not counted")
	}
}
