package repository

import (
	"context"
	"fmt"

	"MarketIntel/internal/domain/models"
	domrepo "MarketIntel/internal/domain/repository"
	pkgch "MarketIntel/pkg/clickhouse"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// CHTickStore archives stream ticks in ClickHouse.
type CHTickStore struct {
	conn   driver.Conn
	table  string
	source string
}

var _ domrepo.TickStore = (*CHTickStore)(nil)

func NewCHTickStore(ch *pkgch.Client, table, source string) *CHTickStore {
	return &CHTickStore{conn: ch.Conn(), table: table, source: source}
}

type rowAppender interface {
	Append(v ...any) error
}

// StoreTicks sends ticks as one native batch. Ticks without a symbol or
// timestamp are skipped; an empty batch is never sent.
func (s *CHTickStore) StoreTicks(ctx context.Context, ticks []*models.Tick) error {
	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s (ts, symbol, price, volume, source)", s.table))
	if err != nil {
		return fmt.Errorf("prepare tick batch: %w", err)
	}
	n, err := s.appendTicks(batch, ticks)
	if err != nil || n == 0 {
		_ = batch.Abort()
		if err != nil {
			return fmt.Errorf("append tick: %w", err)
		}
		return nil
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send %d ticks: %w", n, err)
	}
	return nil
}

func (s *CHTickStore) appendTicks(b rowAppender, ticks []*models.Tick) (int, error) {
	n := 0
	for _, t := range ticks {
		if t == nil || t.Symbol == "" || t.Timestamp == 0 {
			continue
		}
		if err := b.Append(t.Time().UTC(), t.Symbol, t.Price, t.Volume, s.source); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
