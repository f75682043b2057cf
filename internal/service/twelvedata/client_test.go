package twelvedata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"MarketIntel/internal/domain/models"
	drepo "MarketIntel/internal/domain/repository"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, APIKey: "k"})
}

func TestGetCandlesKeepsProviderOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/time_series" || q.Get("order") != "desc" || q.Get("interval") != "1h" || q.Get("apikey") != "k" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"status":"ok","values":[
			{"datetime":"2024-10-10 11:00:00","open":"101","high":"102.5","low":"100.5","close":"102","volume":"1200"},
			{"datetime":"2024-10-10 10:00:00","open":"100","high":"101.5","low":"99.5","close":"101","volume":"900"}
		]}`))
	})

	candles, err := c.GetCandles(context.Background(), "AAPL", drepo.Interval1H, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	if candles[0].Datetime != "2024-10-10 11:00:00" || candles[0].Close != 102 || candles[0].High != 102.5 {
		t.Fatalf("unexpected newest candle %+v", candles[0])
	}
	if candles[1].Volume != "900" {
		t.Fatalf("expected raw volume string, got %q", candles[1].Volume)
	}
}

func TestGetCandlesProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":400,"message":"symbol not found","status":"error"}`))
	})

	_, err := c.GetCandles(context.Background(), "NOPE", drepo.Interval1H, 10)
	var ue *models.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.StatusCode != 400 || ue.Message != "symbol not found" {
		t.Fatalf("unexpected upstream error %+v", ue)
	}
}

func TestGetCandlesEmptyValues(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","values":[]}`))
	})

	_, err := c.GetCandles(context.Background(), "AAPL", drepo.Interval1H, 10)
	if !errors.Is(err, models.ErrDataInsufficient) {
		t.Fatalf("expected data insufficient, got %v", err)
	}
}

func TestGetCandlesHTTPFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.GetCandles(context.Background(), "AAPL", drepo.Interval1H, 10)
	var ue *models.UpstreamError
	if !errors.As(err, &ue) || ue.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 upstream error, got %v", err)
	}
}

func TestGetQuotesBatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "BTC/USD,BTC/USDT,BAD" {
			t.Errorf("unexpected symbols %q", r.URL.Query().Get("symbol"))
		}
		_, _ = w.Write([]byte(`{
			"BTC/USD":{"price":"100.00"},
			"BTC/USDT":{"price":"100.20"},
			"BAD":{"code":400,"message":"invalid symbol","status":"error"}
		}`))
	})

	quotes, err := c.GetQuotes(context.Background(), []string{"BTC/USD", "BTC/USDT", "BAD"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("expected rejected symbol to be dropped, got %v", quotes)
	}
	if q := quotes["BTC/USDT"]; q.Price != 100.2 || q.Symbol != "BTC/USDT" {
		t.Fatalf("unexpected quote %+v", q)
	}
}

func TestGetQuotesSingle(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"price":"187.25"}`))
	})

	quotes, err := c.GetQuotes(context.Background(), []string{"AAPL"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quotes["AAPL"].Price != 187.25 {
		t.Fatalf("unexpected quote %+v", quotes["AAPL"])
	}
}
