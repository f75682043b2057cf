package finnhub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestDecodeTicks(t *testing.T) {
	ticks := decodeTicks([]byte(`{"type":"trade","data":[
		{"s":"BINANCE:BTCUSDT","p":64000.5,"v":0.01,"t":1728550000000},
		{"s":"","p":1,"v":1,"t":1},
		{"s":"AAPL","p":0,"v":1,"t":1}
	]}`))
	if len(ticks) != 1 {
		t.Fatalf("expected invalid trades to be dropped, got %d", len(ticks))
	}
	if ticks[0].Symbol != "BINANCE:BTCUSDT" || ticks[0].Price != 64000.5 || ticks[0].Time().UnixMilli() != 1728550000000 {
		t.Fatalf("unexpected tick %+v", ticks[0])
	}

	if got := decodeTicks([]byte(`{"type":"ping"}`)); len(got) != 0 {
		t.Fatalf("expected no ticks for ping frame")
	}
}

func TestStreamReadsTrades(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var sub map[string]string
		if err := conn.ReadJSON(&sub); err != nil || sub["symbol"] != "AAPL" {
			t.Errorf("unexpected subscribe %v %v", sub, err)
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"trade","data":[{"s":"AAPL","p":187.2,"v":10,"t":1728550000000}]}`))
		time.Sleep(100 * time.Millisecond)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	s := NewStream("k", wsURL, []string{"AAPL"}, 0, time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Close()
	if err := s.Subscribe(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	ticks, _ := s.Read(ctx)
	select {
	case tick := <-ticks:
		if tick == nil || tick.Symbol != "AAPL" || tick.Price != 187.2 {
			t.Fatalf("unexpected tick %+v", tick)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for tick")
	}
}
