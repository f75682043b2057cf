// Package arbitrage scans quotes of the same base asset for price gaps and
// ranks them by spread.
package arbitrage

import (
	"math"
	"sort"
	"strings"

	"MarketIntel/internal/domain/models"
)

// Config holds the tunables of the scanner. The route profit constants are
// assumptions about a typical two-swap route, not market data.
type Config struct {
	MinSpreadPct    float64 `yaml:"min_spread_pct" default:"0.1"`
	TopN            int     `yaml:"top_n" default:"10"`
	TradeSizeUSD    float64 `yaml:"trade_size_usd" default:"10000"`
	GasUnitsPerSwap float64 `yaml:"gas_units_per_swap" default:"150000"`
	SwapsPerRoute   int     `yaml:"swaps_per_route" default:"2"`
	NativeAssetUSD  float64 `yaml:"native_asset_usd" default:"3000"`
}

// DefaultConfig returns the stock tunables.
func DefaultConfig() Config {
	return Config{
		MinSpreadPct:    0.1,
		TopN:            10,
		TradeSizeUSD:    10000,
		GasUnitsPerSwap: 150000,
		SwapsPerRoute:   2,
		NativeAssetUSD:  3000,
	}
}

const (
	mediumFrom  = 0.5
	highFrom    = 1.5
	extremeFrom = 3.0
	maxScore    = 100.0

	efficiencyBase   = 100.0
	efficiencyFactor = 20.0

	gweiToNative = 1e-9
)

// Scanner finds arbitrage opportunities among quotes.
type Scanner struct {
	cfg Config
}

func NewScanner(cfg Config) *Scanner {
	return &Scanner{cfg: cfg}
}

// Config returns the scanner tunables.
func (s *Scanner) Config() Config { return s.cfg }

// Analyze compares every unordered pair of quotes sharing a base asset.
// quotes order defines pair order. gasPriceGwei is optional; when set the
// top opportunity gets a route profit estimate.
func (s *Scanner) Analyze(quotes []models.Quote, gasPriceGwei *float64) (*models.ArbitrageAnalysis, error) {
	if len(quotes) < 2 {
		return nil, models.NewDataInsufficient("arbitrage quotes", 2, len(quotes))
	}

	var opps []models.Opportunity
	for i := 0; i < len(quotes); i++ {
		for j := i + 1; j < len(quotes); j++ {
			a, b := quotes[i], quotes[j]
			if BaseAsset(a.Symbol) != BaseAsset(b.Symbol) {
				continue
			}
			low := math.Min(a.Price, b.Price)
			if low <= 0 {
				continue
			}
			spreadAbs := math.Abs(a.Price - b.Price)
			spreadPct := spreadAbs / low * 100
			if !s.qualifies(spreadPct) {
				continue
			}
			buy, sell := a.Symbol, b.Symbol
			if b.Price < a.Price {
				buy, sell = b.Symbol, a.Symbol
			}
			opps = append(opps, models.Opportunity{
				Pair:          [2]string{a.Symbol, b.Symbol},
				Prices:        [2]float64{a.Price, b.Price},
				BuySymbol:     buy,
				SellSymbol:    sell,
				SpreadAbs:     spreadAbs,
				SpreadPct:     spreadPct,
				Profitability: Classify(spreadPct),
			})
		}
	}

	sort.SliceStable(opps, func(i, j int) bool { return opps[i].SpreadPct > opps[j].SpreadPct })

	res := &models.ArbitrageAnalysis{
		Quotes:  make(map[string]models.Quote, len(quotes)),
		Summary: summarize(opps),
	}
	for _, q := range quotes {
		res.Quotes[q.Symbol] = q
	}
	top := opps
	if s.cfg.TopN > 0 && len(top) > s.cfg.TopN {
		top = top[:s.cfg.TopN]
	}
	res.Opportunities = top
	if res.Opportunities == nil {
		res.Opportunities = []models.Opportunity{}
	}
	if gasPriceGwei != nil && len(top) > 0 {
		rp := s.RouteProfit(top[0].SpreadPct, *gasPriceGwei)
		res.RouteProfit = &rp
	}
	return res, nil
}

// RouteProfit estimates the net result of capturing spreadPct with the
// configured trade size at the given gas price.
func (s *Scanner) RouteProfit(spreadPct, gasPriceGwei float64) models.RouteProfit {
	gross := spreadPct / 100 * s.cfg.TradeSizeUSD
	gasCost := s.cfg.GasUnitsPerSwap * float64(s.cfg.SwapsPerRoute) * gasPriceGwei * gweiToNative * s.cfg.NativeAssetUSD
	net := gross - gasCost
	return models.RouteProfit{
		TradeSizeUSD:   s.cfg.TradeSizeUSD,
		GasPriceGwei:   gasPriceGwei,
		GrossProfitUSD: gross,
		GasCostUSD:     gasCost,
		NetProfitUSD:   net,
		Profitable:     net > 0,
	}
}

func (s *Scanner) qualifies(spreadPct float64) bool {
	return spreadPct > s.cfg.MinSpreadPct
}

// BaseAsset returns the text before the first "/" of a symbol, or the whole
// symbol when it has none.
func BaseAsset(symbol string) string {
	if i := strings.Index(symbol, "/"); i >= 0 {
		return symbol[:i]
	}
	return symbol
}

// Classify assigns a tier and a continuous score to a spread percentage.
func Classify(spreadPct float64) models.Profitability {
	var p models.Profitability
	switch {
	case spreadPct < mediumFrom:
		p = models.Profitability{Tier: models.TierLow, Score: spreadPct * 20}
	case spreadPct < highFrom:
		p = models.Profitability{Tier: models.TierMedium, Score: 40 + spreadPct*20}
	case spreadPct < extremeFrom:
		p = models.Profitability{Tier: models.TierHigh, Score: 70 + spreadPct*10}
	default:
		p = models.Profitability{Tier: models.TierExtreme, Score: 95 + math.Min(5, spreadPct)}
	}
	p.Score = math.Min(maxScore, p.Score)
	return p
}

func summarize(opps []models.Opportunity) models.ArbitrageSummary {
	sum := models.ArbitrageSummary{TotalOpportunities: len(opps)}
	if len(opps) > 0 {
		total := 0.0
		for _, o := range opps {
			total += o.SpreadPct
		}
		sum.AvgSpread = total / float64(len(opps))
	}
	sum.EfficiencyScore = math.Max(0, efficiencyBase-sum.AvgSpread*efficiencyFactor)
	return sum
}
