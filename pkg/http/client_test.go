package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
)

func TestGetDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/price" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("symbol") != "AAPL" || r.URL.Query().Get("apikey") != "secret" {
			t.Errorf("missing query params: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"price":"101.5"}`))
	}))
	defer srv.Close()

	var out struct {
		Price string `json:"price"`
	}
	c := NewClient(srv.URL+"/", WithTimeout(time.Second), WithAuthParam("apikey", "secret"))
	if err := c.Get(context.Background(), "/price", url.Values{"symbol": {"AAPL"}}, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Price != "101.5" {
		t.Fatalf("unexpected body %+v", out)
	}
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var raw []byte
	c := NewClient(srv.URL, WithRetry(5*time.Second))
	if err := c.Get(context.Background(), "/", nil, &raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 calls, got %d", got)
	}
	if string(raw) != "{}" {
		t.Fatalf("raw body %q", raw)
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(5*time.Second))
	err := c.Get(context.Background(), "/", nil, nil)

	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 status error, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected a single call, got %d", got)
	}
}

func TestRetryAfterBackOff(t *testing.T) {
	if got := parseRetryAfter(" 2 "); got != 2*time.Second {
		t.Fatalf("parseRetryAfter = %v", got)
	}
	if got := parseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"); got != 0 {
		t.Fatalf("http-date should be ignored, got %v", got)
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 10 * time.Millisecond
	exp.RandomizationFactor = 0
	b := &retryAfterBackOff{ExponentialBackOff: exp}
	b.hint = 3 * time.Second
	if got := b.NextBackOff(); got != 3*time.Second {
		t.Fatalf("hint not honoured: %v", got)
	}
	if got := b.NextBackOff(); got >= 3*time.Second {
		t.Fatalf("hint should apply once, got %v", got)
	}
}
