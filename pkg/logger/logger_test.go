package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestFieldsAreWritten(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{zl: zerolog.New(&buf)}

	l.With(String("component", "test")).Info("analytics.signal ok",
		String("symbol", "AAPL"),
		Int("candles", 50),
		Float64("price", 101.5),
		Bool("cached", false),
		Strings("symbols", []string{"AAPL", "MSFT"}),
		Strings("none", nil),
		Error(errors.New("boom")),
	)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json log line: %v", err)
	}
	if entry["component"] != "test" || entry["symbol"] != "AAPL" || entry["price"] != 101.5 {
		t.Fatalf("unexpected entry %v", entry)
	}
	if syms, ok := entry["symbols"].([]interface{}); !ok || len(syms) != 2 {
		t.Fatalf("symbols not written as array: %v", entry["symbols"])
	}
	if entry["cached"] != false {
		t.Fatalf("bool field lost: %v", entry)
	}
	if entry["error"] != "boom" || entry["message"] != "analytics.signal ok" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(&Config{Level: "loud", Output: "stdout"}); err == nil {
		t.Fatalf("expected invalid level error")
	}
}

func TestLevelFiltersEntries(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{zl: zerolog.New(&buf).Level(zerolog.WarnLevel)}

	l.Info("dropped")
	l.Debug("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %s", buf.String())
	}
	l.Warn("kept", Duration("took", 0))
	if buf.Len() == 0 {
		t.Fatalf("warn entry missing")
	}
}
