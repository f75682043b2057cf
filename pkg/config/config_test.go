package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "environment: test\nserver:\n  port: 9090\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Server.Port != 9090 {
		t.Fatalf("expected yaml value to win, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout != 10*time.Second || c.Cache.Backend != "memory" {
		t.Fatalf("expected defaults, got %v %q", c.Server.ReadTimeout, c.Cache.Backend)
	}
	if c.Cache.TTL.Sentiment != 5*time.Minute || c.Analytics.NewsWindow != 7*24*time.Hour {
		t.Fatalf("unexpected ttl defaults")
	}
	if c.Arbitrage.TradeSizeUSD != 10000 || c.Arbitrage.GasUnitsPerSwap != 150000 || c.Arbitrage.SwapsPerRoute != 2 {
		t.Fatalf("unexpected arbitrage defaults %+v", c.Arbitrage)
	}
	if c.Kafka.RequiredAcks != -1 {
		t.Fatalf("expected acks -1, got %d", c.Kafka.RequiredAcks)
	}
}

func TestLoadValidates(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad cache backend", "cache:\n  backend: disk\n"},
		{"clickhouse source without clickhouse", "analytics:\n  candle_source: clickhouse\n"},
		{"kafka without brokers", "kafka:\n  enabled: true\n"},
		{"watch without groups", "arbitrage:\n  watch:\n    enabled: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("TWELVEDATA_API_KEY", "td-key")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REDIS_ADDR", "cache:6380")
	path := writeConfig(t, "environment: test\n")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.TwelveData.APIKey != "td-key" {
		t.Fatalf("expected api key from env")
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", c.Kafka.Brokers)
	}
	if c.Cache.Redis.Host != "cache" || c.Cache.Redis.Port != 6380 {
		t.Fatalf("unexpected redis addr %s:%d", c.Cache.Redis.Host, c.Cache.Redis.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
}
