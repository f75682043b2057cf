package arbitrage

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"MarketIntel/internal/domain/models"
)

func q(symbol string, price float64) models.Quote {
	return models.Quote{Symbol: symbol, Price: price}
}

func TestAnalyzeNeedsTwoQuotes(t *testing.T) {
	s := NewScanner(DefaultConfig())
	if _, err := s.Analyze([]models.Quote{q("BTC/USD", 100)}, nil); !errors.Is(err, models.ErrDataInsufficient) {
		t.Fatalf("expected data insufficient error, got %v", err)
	}
}

func TestAnalyzeSameBasePair(t *testing.T) {
	s := NewScanner(DefaultConfig())
	res, err := s.Analyze([]models.Quote{q("BTC/USD", 100), q("BTC/USDT", 100.2)}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Opportunities) != 1 {
		t.Fatalf("expected one opportunity, got %d", len(res.Opportunities))
	}
	o := res.Opportunities[0]
	if o.SpreadPct < 0.19 || o.SpreadPct > 0.21 {
		t.Fatalf("unexpected spread %v", o.SpreadPct)
	}
	if o.Profitability.Tier != models.TierLow {
		t.Fatalf("expected LOW tier for a 0.2%% spread, got %s", o.Profitability.Tier)
	}
	if o.BuySymbol != "BTC/USD" || o.SellSymbol != "BTC/USDT" {
		t.Fatalf("unexpected legs %s -> %s", o.BuySymbol, o.SellSymbol)
	}
	if res.RouteProfit != nil {
		t.Fatalf("route profit requires a gas price")
	}
	if len(res.Quotes) != 2 {
		t.Fatalf("expected quotes echoed back")
	}
}

func TestAnalyzeSkipsDifferentBase(t *testing.T) {
	s := NewScanner(DefaultConfig())
	res, err := s.Analyze([]models.Quote{q("BTC/USD", 100), q("ETH/USD", 150)}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Opportunities) != 0 || res.Summary.TotalOpportunities != 0 {
		t.Fatalf("expected no opportunities across base assets")
	}
	if res.Summary.AvgSpread != 0 || res.Summary.EfficiencyScore != 100 {
		t.Fatalf("unexpected empty summary %+v", res.Summary)
	}
}

func TestSpreadThresholdIsStrict(t *testing.T) {
	s := NewScanner(DefaultConfig())
	if s.qualifies(0.1) {
		t.Fatalf("a spread of exactly 0.1 must be excluded")
	}
	if !s.qualifies(0.10001) {
		t.Fatalf("a spread of 0.10001 must be included")
	}
	res, err := s.Analyze([]models.Quote{q("ETH/USD", 100), q("ETH/USDC", 100.10001)}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Opportunities) != 1 {
		t.Fatalf("expected the pair just above the threshold to be kept")
	}
	res, err = s.Analyze([]models.Quote{q("ETH/USD", 1000), q("ETH/USDC", 1001)}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Opportunities) != 0 {
		t.Fatalf("expected the pair at exactly 0.1%% to be dropped")
	}
}

func TestOpportunitiesSortedAndCapped(t *testing.T) {
	s := NewScanner(DefaultConfig())
	quotes := []models.Quote{q("BTC/USD", 100)}
	for i := 1; i <= 12; i++ {
		quotes = append(quotes, q(fmt.Sprintf("BTC/X%d", i), 100+float64(i)))
	}
	res, err := s.Analyze(quotes, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Opportunities) != 10 {
		t.Fatalf("expected top 10, got %d", len(res.Opportunities))
	}
	for i := 1; i < len(res.Opportunities); i++ {
		if res.Opportunities[i-1].SpreadPct < res.Opportunities[i].SpreadPct {
			t.Fatalf("opportunities not sorted descending at %d", i)
		}
	}
	if res.Summary.TotalOpportunities <= 10 {
		t.Fatalf("summary should count every retained pair, got %d", res.Summary.TotalOpportunities)
	}
	if res.Summary.EfficiencyScore < 0 {
		t.Fatalf("efficiency must not be negative")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		spread float64
		tier   models.Tier
		score  float64
	}{
		{0.2, models.TierLow, 4},
		{0.5, models.TierMedium, 50},
		{1.5, models.TierHigh, 85},
		{2.9, models.TierHigh, 99},
		{3, models.TierExtreme, 98},
		{10, models.TierExtreme, 100},
	}
	for _, tt := range tests {
		got := Classify(tt.spread)
		if got.Tier != tt.tier || math.Abs(got.Score-tt.score) > 1e-9 {
			t.Errorf("Classify(%v) = %+v, want %s %v", tt.spread, got, tt.tier, tt.score)
		}
	}
}

func TestRouteProfit(t *testing.T) {
	s := NewScanner(DefaultConfig())
	gas := 20.0
	res, err := s.Analyze([]models.Quote{q("ETH/USD", 100), q("ETH/USDT", 101)}, &gas)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rp := res.RouteProfit
	if rp == nil {
		t.Fatalf("expected route profit")
	}
	// 1% of 10000 gross, 150000*2*20 gwei = 0.006 native * 3000 = 18 USD gas
	if math.Abs(rp.GrossProfitUSD-100) > 1e-9 || math.Abs(rp.GasCostUSD-18) > 1e-9 {
		t.Fatalf("unexpected route profit %+v", rp)
	}
	if math.Abs(rp.NetProfitUSD-82) > 1e-9 || !rp.Profitable {
		t.Fatalf("unexpected net profit %+v", rp)
	}
}

func TestBaseAsset(t *testing.T) {
	if BaseAsset("BTC/USD") != "BTC" || BaseAsset("AAPL") != "AAPL" {
		t.Fatalf("unexpected base asset")
	}
}
