package indicators

import (
	"math"
	"testing"
)

func descending(start float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start - float64(i)
	}
	return out
}

func almostEqual(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestMovingAverage(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		period int
		want   float64
	}{
		{"empty", nil, 5, 0},
		{"shorter than period returns newest", []float64{7, 1, 2}, 5, 7},
		{"exact window", []float64{4, 2, 6}, 3, 4},
		{"uses newest elements only", []float64{10, 20, 1000, 1000}, 2, 15},
		{"non-positive period returns newest", []float64{3, 4}, 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MovingAverage(tt.prices, tt.period); got != tt.want {
				t.Errorf("MovingAverage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMovingAverageDescendingCandles(t *testing.T) {
	prices := descending(105, 20)
	got := MovingAverage(prices, 20)
	if !almostEqual(got, 95.5, 1e-9) {
		t.Fatalf("expected 95.5, got %v", got)
	}
	if again := MovingAverage(prices, 20); again != got {
		t.Fatalf("expected deterministic result, got %v then %v", got, again)
	}
}

func TestRelativeStrengthIndexFallbacks(t *testing.T) {
	if got := RelativeStrengthIndex(descending(100, 14), DefaultRSIPeriod); got != 50 {
		t.Fatalf("expected neutral 50 for short series, got %v", got)
	}
	if got := RelativeStrengthIndex(nil, DefaultRSIPeriod); got != 50 {
		t.Fatalf("expected neutral 50 for empty series, got %v", got)
	}
	// newest-first strictly descending closes produce only positive deltas
	if got := RelativeStrengthIndex(descending(105, 20), DefaultRSIPeriod); got != 100 {
		t.Fatalf("expected 100 when there are no losses, got %v", got)
	}
}

func TestRelativeStrengthIndexMixed(t *testing.T) {
	// deltas: +2, -1 -> avgGain 1, avgLoss 0.5 -> RS 2 -> 66.67
	prices := []float64{12, 10, 11}
	got := RelativeStrengthIndex(prices, 2)
	if !almostEqual(got, 100-100.0/3, 1e-9) {
		t.Fatalf("unexpected rsi %v", got)
	}
	// ascending newest-first series has only losses
	if got := RelativeStrengthIndex([]float64{1, 2, 3, 4}, 3); got != 0 {
		t.Fatalf("expected 0 with no gains, got %v", got)
	}
}

func TestSimpleVolatility(t *testing.T) {
	if got := SimpleVolatility([]float64{100}); got != 0 {
		t.Fatalf("expected 0 for a single price, got %v", got)
	}
	if got := SimpleVolatility([]float64{100, 100, 100}); got != 0 {
		t.Fatalf("expected 0 for flat prices, got %v", got)
	}
	// returns: (110-100)/100 = 0.1, (100-100)/100 = 0 -> population stdev 0.05 -> 5%
	got := SimpleVolatility([]float64{110, 100, 100})
	if !almostEqual(got, 5, 1e-9) {
		t.Fatalf("expected 5, got %v", got)
	}
}

func TestSimpleVolatilityWindow(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 100
	}
	// a shock outside the newest 20 prices must not be seen
	prices[25] = 50
	if got := SimpleVolatility(prices); got != 0 {
		t.Fatalf("expected prices beyond the window to be ignored, got %v", got)
	}
}

func TestLogReturnsAndSampleStdDev(t *testing.T) {
	r := LogReturns([]float64{110, 100, 0, 100})
	if len(r) != 1 {
		t.Fatalf("expected invalid pairs to be skipped, got %d returns", len(r))
	}
	if !almostEqual(r[0], math.Log(1.1), 1e-12) {
		t.Fatalf("unexpected log return %v", r[0])
	}
	if LogReturns([]float64{1}) != nil {
		t.Fatalf("expected nil for a single close")
	}
	if got := SampleStdDev([]float64{1}); got != 0 {
		t.Fatalf("expected 0 for one value, got %v", got)
	}
	// values 1,2,3,4: sample variance 5/3
	if got := SampleStdDev([]float64{1, 2, 3, 4}); !almostEqual(got, math.Sqrt(5.0/3.0), 1e-12) {
		t.Fatalf("unexpected stdev %v", got)
	}
}
