// Package indicators holds the price-series primitives shared by the
// analytics modules. Every series is newest-first: prices[0] is the latest
// observation and no function here re-sorts its input.
package indicators

import "math"

const (
	// DefaultRSIPeriod is the lookback used when callers have no preference.
	DefaultRSIPeriod = 14

	// SimpleVolatilityWindow caps the number of prices SimpleVolatility reads.
	SimpleVolatilityWindow = 20

	neutralRSI   = 50.0
	saturatedRSI = 100.0
)

// MovingAverage returns the mean of the newest period prices. When fewer than
// period prices exist it returns prices[0] unchanged; an empty series gives 0.
func MovingAverage(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if period <= 0 || len(prices) < period {
		return prices[0]
	}
	sum := 0.0
	for _, p := range prices[:period] {
		sum += p
	}
	return sum / float64(period)
}

// RelativeStrengthIndex computes RSI over the newest period deltas, where
// delta[i] = prices[i-1] - prices[i] on the newest-first array.
// Returns 50 when len(prices) < period+1 and 100 when there are no losses.
func RelativeStrengthIndex(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return neutralRSI
	}
	gains, losses := 0.0, 0.0
	for i := 1; i <= period; i++ {
		delta := prices[i-1] - prices[i]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return saturatedRSI
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

// SimpleVolatility is the population standard deviation of simple returns
// over the newest SimpleVolatilityWindow prices, in percent.
func SimpleVolatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	n := len(prices)
	if n > SimpleVolatilityWindow {
		n = SimpleVolatilityWindow
	}
	returns := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		if prices[i] == 0 {
			continue
		}
		returns = append(returns, (prices[i-1]-prices[i])/prices[i])
	}
	if len(returns) == 0 {
		return 0
	}
	return math.Sqrt(variance(returns, false)) * 100
}

// LogReturns computes ln(closes[i-1]/closes[i]) for each consecutive pair.
// Pairs with a non-positive price are skipped.
func LogReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		newer, older := closes[i-1], closes[i]
		if newer <= 0 || older <= 0 {
			continue
		}
		out = append(out, math.Log(newer/older))
	}
	return out
}

// SampleStdDev is the unbiased (n-1) standard deviation; 0 for fewer than 2 values.
func SampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return math.Sqrt(variance(values, true))
}

func variance(values []float64, sample bool) float64 {
	n := float64(len(values))
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= n
	sum2 := 0.0
	for _, v := range values {
		d := v - mean
		sum2 += d * d
	}
	if sample {
		return sum2 / (n - 1)
	}
	return sum2 / n
}
