package repository

import (
	"context"
	"sync"
	"time"

	"MarketIntel/internal/domain/models"
	domrepo "MarketIntel/internal/domain/repository"
	applogger "MarketIntel/pkg/logger"
)

// QuoteBook keeps the latest streamed price per symbol. It serves quotes
// no older than maxAge.
type QuoteBook struct {
	mu      sync.RWMutex
	quotes  map[string]models.Quote
	aliases map[string]string
	maxAge  time.Duration
	now     func() time.Time
}

var _ domrepo.QuoteSource = (*QuoteBook)(nil)

// NewQuoteBook creates an empty book. aliases maps stream symbols to the
// names callers use.
func NewQuoteBook(maxAge time.Duration, aliases map[string]string) *QuoteBook {
	return &QuoteBook{
		quotes:  make(map[string]models.Quote),
		aliases: aliases,
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// Apply records a tick unless the book already holds a newer price.
func (b *QuoteBook) Apply(t *models.Tick) bool {
	if t == nil || t.Symbol == "" || t.Price <= 0 {
		return false
	}
	sym := t.Symbol
	if alias, ok := b.aliases[sym]; ok {
		sym = alias
	}
	ts := t.Time().UTC()

	b.mu.Lock()
	defer b.mu.Unlock()
	if cur, ok := b.quotes[sym]; ok && cur.Timestamp.After(ts) {
		return false
	}
	b.quotes[sym] = models.Quote{Symbol: sym, Price: t.Price, Timestamp: ts}
	return true
}

// GetQuotes returns fresh quotes for the requested symbols; stale and
// unknown symbols are absent from the result.
func (b *QuoteBook) GetQuotes(_ context.Context, symbols []string) (map[string]models.Quote, error) {
	cutoff := b.now().Add(-b.maxAge)

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]models.Quote, len(symbols))
	for _, sym := range symbols {
		q, ok := b.quotes[sym]
		if !ok || (b.maxAge > 0 && q.Timestamp.Before(cutoff)) {
			continue
		}
		out[sym] = q
	}
	return out, nil
}

// Len returns the number of symbols held.
func (b *QuoteBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.quotes)
}

// CompositeQuoteSource answers from the primary source and asks the
// fallback only for symbols the primary could not serve.
type CompositeQuoteSource struct {
	primary  domrepo.QuoteSource
	fallback domrepo.QuoteSource
	l        *applogger.Logger
}

var _ domrepo.QuoteSource = (*CompositeQuoteSource)(nil)

func NewCompositeQuoteSource(primary, fallback domrepo.QuoteSource) *CompositeQuoteSource {
	return &CompositeQuoteSource{primary: primary, fallback: fallback, l: applogger.Nop()}
}

// SetLogger injects a structured logger.
func (c *CompositeQuoteSource) SetLogger(l *applogger.Logger) { c.l = l }

func (c *CompositeQuoteSource) GetQuotes(ctx context.Context, symbols []string) (map[string]models.Quote, error) {
	out, err := c.primary.GetQuotes(ctx, symbols)
	if err != nil {
		c.l.Warn("primary quote source failed", applogger.Error(err))
		out = make(map[string]models.Quote, len(symbols))
	}

	missing := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if _, ok := out[sym]; !ok {
			missing = append(missing, sym)
		}
	}
	if len(missing) == 0 || c.fallback == nil {
		return out, nil
	}

	rest, err := c.fallback.GetQuotes(ctx, missing)
	if err != nil {
		return nil, err
	}
	for sym, q := range rest {
		out[sym] = q
	}
	return out, nil
}
