package clickhouse

import (
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

func TestBuildOptions(t *testing.T) {
	opts := buildOptions(ClientConfig{
		Host: "ch", Port: 9000, Database: "marketintel", User: "default",
		MaxExecTime: 30 * time.Second, AsyncInsert: true,
	})
	if opts.Protocol != clickhouse.Native {
		t.Fatalf("expected native protocol")
	}
	if len(opts.Addr) != 1 || opts.Addr[0] != "ch:9000" {
		t.Fatalf("unexpected addr %v", opts.Addr)
	}
	if opts.Auth.Database != "marketintel" {
		t.Fatalf("unexpected database %q", opts.Auth.Database)
	}
	if opts.Settings["max_execution_time"] != 30 || opts.Settings["async_insert"] != 1 || opts.Settings["wait_for_async_insert"] != 0 {
		t.Fatalf("unexpected settings %v", opts.Settings)
	}
	if opts.Compression != nil {
		t.Fatalf("compression should be off by default")
	}

	opts = buildOptions(ClientConfig{Host: "ch", Port: 8123, UseHTTP: true, Compress: true})
	if opts.Protocol != clickhouse.HTTP || opts.Compression == nil {
		t.Fatalf("expected http with compression, got %+v", opts)
	}
	if _, ok := opts.Settings["max_execution_time"]; ok {
		t.Fatalf("unset max execution time should not be sent")
	}
}

func TestNewClientRequiresHost(t *testing.T) {
	if _, err := NewClient(); err == nil {
		t.Fatalf("expected error without host")
	}
}
