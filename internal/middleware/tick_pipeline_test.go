package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"MarketIntel/internal/domain/models"
)

type nopMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func (m *nopMetrics) RecordComputation(string) {}
func (m *nopMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errors == nil {
		m.errors = map[string]int{}
	}
	m.errors[kind]++
}
func (m *nopMetrics) RecordLastPrice(string, float64) {}
func (m *nopMetrics) RecordLatency(string, float64)   {}

func (m *nopMetrics) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

type recordingProc struct {
	mu    sync.Mutex
	ticks []*models.Tick
	fail  bool
}

func (p *recordingProc) Process(_ context.Context, t *models.Tick) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("downstream down")
	}
	p.ticks = append(p.ticks, t)
	return nil
}

func (p *recordingProc) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ticks)
}

func tick(sym string) *models.Tick {
	return &models.Tick{Symbol: sym, Price: 100, Volume: 1, Timestamp: time.Now().UnixMilli()}
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	proc := &recordingProc{}
	m := &nopMetrics{}
	p := NewTickPipeline(proc, m, WithMaxRPS(1))
	ctx := context.Background()

	_ = p.Process(ctx, tick("AAPL"))
	_ = p.Process(ctx, tick("AAPL"))
	_ = p.Process(ctx, tick("MSFT"))

	if proc.len() != 2 {
		t.Fatalf("expected 2 forwarded ticks, got %d", proc.len())
	}
	if m.count("pipeline_throttle") != 1 {
		t.Fatalf("expected one throttled tick")
	}
}

func TestPipelineRejectsInvalidTicks(t *testing.T) {
	p := NewTickPipeline(&recordingProc{}, &nopMetrics{})
	if err := p.Process(context.Background(), &models.Tick{Symbol: "AAPL", Price: 0, Timestamp: 1}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestPipelineBuffersAndRetries(t *testing.T) {
	proc := &recordingProc{fail: true}
	p := NewTickPipeline(proc, &nopMetrics{}, WithMaxRPS(0), WithBufferSize(4))

	if err := p.Process(context.Background(), tick("AAPL")); err == nil {
		t.Fatalf("expected downstream error")
	}
	if p.Buffered() != 1 {
		t.Fatalf("expected tick buffered, got %d", p.Buffered())
	}

	proc.mu.Lock()
	proc.fail = false
	proc.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for proc.len() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if proc.len() != 1 {
		t.Fatalf("expected buffered tick to be flushed")
	}
}
