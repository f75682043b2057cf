package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"MarketIntel/internal/domain/models"
)

type fakeLocker struct {
	held     map[string]bool
	err      error
	unlocked []string
}

func (l *fakeLocker) TryLock(_ context.Context, key string, _ time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *fakeLocker) Unlock(_ context.Context, key string) error {
	delete(l.held, key)
	l.unlocked = append(l.unlocked, key)
	return nil
}

func watchQuotes() *fakeQuotes {
	return &fakeQuotes{quotes: map[string]models.Quote{
		"BTC/USD":  {Symbol: "BTC/USD", Price: 100},
		"BTC/USDT": {Symbol: "BTC/USDT", Price: 102},
		"BTC/EUR":  {Symbol: "BTC/EUR", Price: 100.5},
	}}
}

func TestArbitrageWatcher_ScanPublishesAlerts(t *testing.T) {
	events := &fakeEvents{}
	a := newTestAnalytics(Sources{Quotes: watchQuotes()}, nil, newFakeMetrics())
	locker := &fakeLocker{held: map[string]bool{}}
	w, err := NewArbitrageWatcher(a, locker, events, newFakeMetrics(), WatchConfig{
		Schedule:       "@every 1m",
		AlertSpreadPct: 1.5,
	})
	if err != nil {
		t.Fatalf("NewArbitrageWatcher: %v", err)
	}

	// spreads: USD/USDT 2%, USD/EUR 0.5%, USDT/EUR ~1.49%
	n := w.Scan(context.Background(), []string{"BTC/USD", "BTC/USDT", "BTC/EUR"})
	if n != 1 {
		t.Fatalf("expected 1 alert, got %d", n)
	}
	kinds := events.kinds()
	if len(kinds) != 1 || kinds[0] != models.EventArbitrageAlert {
		t.Fatalf("events %v", kinds)
	}
	if events.events[0].Key != "BTC/USD|BTC/USDT" {
		t.Fatalf("alert key %q", events.events[0].Key)
	}
	if len(locker.unlocked) != 1 || len(locker.held) != 0 {
		t.Fatalf("lock not released")
	}
}

func TestArbitrageWatcher_SkipsWhenLocked(t *testing.T) {
	events := &fakeEvents{}
	a := newTestAnalytics(Sources{Quotes: watchQuotes()}, nil, newFakeMetrics())
	group := []string{"BTC/USD", "BTC/USDT"}
	locker := &fakeLocker{held: map[string]bool{"lock:arbitrage:watch:BTC/USD,BTC/USDT": true}}
	w, err := NewArbitrageWatcher(a, locker, events, newFakeMetrics(), WatchConfig{Schedule: "@every 1m", AlertSpreadPct: 1})
	if err != nil {
		t.Fatalf("NewArbitrageWatcher: %v", err)
	}
	if n := w.Scan(context.Background(), group); n != 0 {
		t.Fatalf("locked scan should not alert, got %d", n)
	}

	m := newFakeMetrics()
	w2, _ := NewArbitrageWatcher(a, &fakeLocker{err: errors.New("redis down")}, events, m, WatchConfig{Schedule: "@every 1m"})
	if n := w2.Scan(context.Background(), group); n != 0 {
		t.Fatalf("lock error should skip scan")
	}
	if m.errorCount("watch_lock") != 1 {
		t.Fatalf("lock error not counted")
	}
}

func TestNewArbitrageWatcher_BadSchedule(t *testing.T) {
	_, err := NewArbitrageWatcher(nil, nil, nil, newFakeMetrics(), WatchConfig{
		Schedule: "not a schedule",
		Groups:   [][]string{{"BTC/USD", "BTC/USDT"}},
	})
	if err == nil {
		t.Fatalf("expected schedule error")
	}
}

func TestArbitrageWatcher_StartStop(t *testing.T) {
	w, err := NewArbitrageWatcher(nil, nil, nil, newFakeMetrics(), WatchConfig{
		Schedule: "@every 1h",
		Groups:   [][]string{{"BTC/USD", "BTC/USDT"}},
	})
	if err != nil {
		t.Fatalf("NewArbitrageWatcher: %v", err)
	}
	w.Start()
	w.Stop()
}

func TestParseGroups(t *testing.T) {
	got := ParseGroups([]string{"BTC/USD, BTC/USDT ,", "ETH/USD", " , "})
	want := [][]string{{"BTC/USD", "BTC/USDT"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
