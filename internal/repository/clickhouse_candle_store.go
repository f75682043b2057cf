package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"MarketIntel/internal/domain/models"
	domrepo "MarketIntel/internal/domain/repository"
	pkgch "MarketIntel/pkg/clickhouse"
	applogger "MarketIntel/pkg/logger"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// CHCandleStore implements CandleSource over bars ingested into ClickHouse.
type CHCandleStore struct {
	conn  driver.Conn
	table string
	l     *applogger.Logger
}

var _ domrepo.CandleSource = (*CHCandleStore)(nil)

func NewCHCandleStore(ch *pkgch.Client, table string) *CHCandleStore {
	return &CHCandleStore{conn: ch.Conn(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHCandleStore) SetLogger(l *applogger.Logger) { s.l = l }

// GetCandles returns the newest outputSize bars, newest-first.
func (s *CHCandleStore) GetCandles(ctx context.Context, symbol string, interval domrepo.Interval, outputSize int) ([]models.Candle, error) {
	start := time.Now()
	const qtpl = `
        SELECT ts, open, high, low, close, volume
        FROM %s FINAL
        WHERE symbol = ? AND interval = ?
        ORDER BY ts DESC
        LIMIT ?
    `
	rows, err := s.conn.Query(ctx, fmt.Sprintf(qtpl, s.table), symbol, string(interval), outputSize)
	if err != nil {
		s.logErr("query", symbol, interval, err)
		return nil, fmt.Errorf("get candles: %w", err)
	}
	defer rows.Close()

	out := make([]models.Candle, 0, outputSize)
	for rows.Next() {
		var (
			ts     time.Time
			volume float64
			c      models.Candle
		)
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &volume); err != nil {
			s.logErr("scan", symbol, interval, err)
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		c.Datetime = FormatCandleTime(ts, interval)
		c.Volume = strconv.FormatFloat(volume, 'f', -1, 64)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		s.logErr("rows", symbol, interval, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(out) == 0 {
		return nil, models.NewDataInsufficient("candles "+symbol, 1, 0)
	}

	if s.l != nil {
		s.l.Debug("clickhouse get_candles ok",
			applogger.String("symbol", symbol),
			applogger.String("interval", string(interval)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHCandleStore) logErr(stage, symbol string, interval domrepo.Interval, err error) {
	if s.l == nil {
		return
	}
	s.l.Error("clickhouse get_candles "+stage+" error",
		applogger.String("table", s.table),
		applogger.String("symbol", symbol),
		applogger.String("interval", string(interval)),
		applogger.Error(err),
	)
}

// FormatCandleTime renders bar time the way candle providers do: a date for
// daily and longer bars, date and time otherwise.
func FormatCandleTime(ts time.Time, interval domrepo.Interval) string {
	switch interval {
	case domrepo.Interval1Day, domrepo.Interval1Week, domrepo.Interval1Month:
		return ts.UTC().Format(time.DateOnly)
	default:
		return ts.UTC().Format(time.DateTime)
	}
}
