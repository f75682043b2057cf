package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"MarketIntel/internal/domain/models"
	domrepo "MarketIntel/internal/domain/repository"
	applogger "MarketIntel/pkg/logger"

	"github.com/robfig/cron/v3"
)

// ArbitrageRunner runs one arbitrage scan.
type ArbitrageRunner interface {
	Arbitrage(ctx context.Context, symbols []string, gasPriceGwei *float64) (*models.ArbitrageAnalysis, error)
}

// Locker serialises scans across instances. cache.Service satisfies it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

type WatchConfig struct {
	Schedule       string
	Groups         [][]string
	AlertSpreadPct float64
	LockTTL        time.Duration
	ScanTimeout    time.Duration
}

// ArbitrageWatcher scans configured symbol groups on a cron schedule and
// publishes an alert event for every opportunity at or above the alert
// spread.
type ArbitrageWatcher struct {
	cron    *cron.Cron
	runner  ArbitrageRunner
	locker  Locker
	events  domrepo.EventPublisher
	metrics domrepo.Metrics
	cfg     WatchConfig
	ctx     context.Context
	cancel  context.CancelFunc
	l       *applogger.Logger
	now     func() time.Time
}

// NewArbitrageWatcher registers one job per group. locker may be nil for
// single instance deployments.
func NewArbitrageWatcher(runner ArbitrageRunner, locker Locker, events domrepo.EventPublisher, metrics domrepo.Metrics, cfg WatchConfig) (*ArbitrageWatcher, error) {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if cfg.ScanTimeout <= 0 {
		cfg.ScanTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &ArbitrageWatcher{
		cron:    cron.New(cron.WithSeconds()),
		runner:  runner,
		locker:  locker,
		events:  events,
		metrics: metrics,
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		l:       applogger.Nop(),
		now:     time.Now,
	}
	for _, group := range cfg.Groups {
		group := group
		if _, err := w.cron.AddFunc(cfg.Schedule, func() { w.Scan(w.ctx, group) }); err != nil {
			cancel()
			return nil, fmt.Errorf("register arbitrage watch %v: %w", group, err)
		}
	}
	return w, nil
}

// SetLogger injects a structured logger.
func (w *ArbitrageWatcher) SetLogger(l *applogger.Logger) {
	if l != nil {
		w.l = l
	}
}

func (w *ArbitrageWatcher) Start() {
	w.cron.Start()
	w.l.Info("arbitrage watcher started",
		applogger.String("schedule", w.cfg.Schedule),
		applogger.Int("groups", len(w.cfg.Groups)),
	)
}

// Stop cancels running scans and waits for them to return.
func (w *ArbitrageWatcher) Stop() {
	w.cancel()
	<-w.cron.Stop().Done()
	w.l.Info("arbitrage watcher stopped")
}

// Scan runs one scan of group and returns the number of alerts published.
func (w *ArbitrageWatcher) Scan(ctx context.Context, group []string) int {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.ScanTimeout)
	defer cancel()

	key := "lock:arbitrage:watch:" + strings.Join(group, ",")
	if w.locker != nil {
		ok, err := w.locker.TryLock(ctx, key, w.cfg.LockTTL)
		if err != nil {
			w.metrics.RecordError("watch_lock")
			w.l.Warn("arbitrage watch lock failed", applogger.Error(err))
			return 0
		}
		if !ok {
			return 0
		}
		defer func() { _ = w.locker.Unlock(context.Background(), key) }()
	}

	res, err := w.runner.Arbitrage(ctx, group, nil)
	if err != nil {
		w.metrics.RecordError("watch_scan")
		w.l.Warn("arbitrage watch scan failed",
			applogger.Strings("symbols", group),
			applogger.Error(err),
		)
		return 0
	}

	alerts := 0
	for _, opp := range res.Opportunities {
		if opp.SpreadPct < w.cfg.AlertSpreadPct {
			continue
		}
		if w.alert(ctx, opp) {
			alerts++
		}
	}
	return alerts
}

func (w *ArbitrageWatcher) alert(ctx context.Context, opp models.Opportunity) bool {
	w.l.Info("arbitrage alert",
		applogger.String("buy", opp.BuySymbol),
		applogger.String("sell", opp.SellSymbol),
		applogger.Float64("spread_pct", opp.SpreadPct),
		applogger.String("tier", string(opp.Profitability.Tier)),
	)
	if w.events == nil {
		return true
	}
	b, err := json.Marshal(opp)
	if err != nil {
		return false
	}
	ev := &models.AnalyticsEvent{
		Kind:      models.EventArbitrageAlert,
		Key:       opp.Pair[0] + "|" + opp.Pair[1],
		Payload:   b,
		Timestamp: w.now().UTC(),
	}
	if err := w.events.PublishEvent(ctx, ev); err != nil {
		w.metrics.RecordError("watch_publish")
		w.l.Warn("arbitrage alert publish failed", applogger.Error(err))
		return false
	}
	return true
}

// ParseGroups splits comma separated symbol lists, dropping blanks.
func ParseGroups(raw []string) [][]string {
	out := make([][]string, 0, len(raw))
	for _, g := range raw {
		var syms []string
		for _, s := range strings.Split(g, ",") {
			if s = strings.TrimSpace(s); s != "" {
				syms = append(syms, s)
			}
		}
		if len(syms) > 1 {
			out = append(out, syms)
		}
	}
	return out
}
