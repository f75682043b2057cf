package repository

import (
	"context"
	"fmt"

	"MarketIntel/internal/domain/models"
	domrepo "MarketIntel/internal/domain/repository"
	pkgch "MarketIntel/pkg/clickhouse"
	applogger "MarketIntel/pkg/logger"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// CHPositionStore implements PositionSource backed by ClickHouse.
type CHPositionStore struct {
	conn  driver.Conn
	table string
	l     *applogger.Logger
}

var _ domrepo.PositionSource = (*CHPositionStore)(nil)

func NewCHPositionStore(ch *pkgch.Client, table string) *CHPositionStore {
	return &CHPositionStore{conn: ch.Conn(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHPositionStore) SetLogger(l *applogger.Logger) { s.l = l }

// GetPositions returns the open positions of account. Closed positions
// (zero quantity) are skipped.
func (s *CHPositionStore) GetPositions(ctx context.Context, account string) ([]models.Position, error) {
	q := fmt.Sprintf(`
        SELECT symbol, quantity, entry_price
        FROM %s FINAL
        WHERE account = ? AND quantity != 0
        ORDER BY symbol
    `, s.table)
	rows, err := s.conn.Query(ctx, q, account)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_positions query error", applogger.String("account", account), applogger.Error(err))
		}
		return nil, fmt.Errorf("get positions: %w", err)
	}
	defer rows.Close()

	var out []models.Position
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.Symbol, &p.Quantity, &p.EntryPrice); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
