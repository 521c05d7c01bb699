// Package indicators implements the technical indicators the analysis
// pipeline derives from daily close prices. Warm-up positions, where a
// window is not yet full, are NaN.
package indicators

import "math"

// Returns computes day-over-day percentage change. The first element is NaN.
func Returns(close []float64) []float64 {
	out := make([]float64, len(close))
	for i := range close {
		if i == 0 || close[i-1] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = close[i]/close[i-1] - 1
	}
	return out
}

// SMA computes the simple moving average over the given window.
func SMA(x []float64, window int) []float64 {
	return rolling(x, window, func(w []float64) float64 {
		return mean(w)
	})
}

// RollingStd computes the rolling sample standard deviation over the given
// window.
func RollingStd(x []float64, window int) []float64 {
	return rolling(x, window, func(w []float64) float64 {
		if len(w) < 2 {
			return math.NaN()
		}
		m := mean(w)
		var ss float64
		for _, v := range w {
			d := v - m
			ss += d * d
		}
		return math.Sqrt(ss / float64(len(w)-1))
	})
}

// EMA computes the exponential moving average with alpha = 2/(span+1),
// seeded with the first value.
func EMA(x []float64, span int) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = x[0]
	for i := 1; i < len(x); i++ {
		out[i] = alpha*x[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RSI computes the relative strength index using rolling average gains and
// losses over the given period.
func RSI(close []float64, period int) []float64 {
	n := len(close)
	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := range close {
		if i == 0 {
			gains[i] = math.NaN()
			losses[i] = math.NaN()
			continue
		}
		delta := close[i] - close[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	avgGain := rolling(gains, period, mean)
	avgLoss := rolling(losses, period, mean)

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		g, l := avgGain[i], avgLoss[i]
		if math.IsNaN(g) || math.IsNaN(l) {
			out[i] = math.NaN()
			continue
		}
		if l == 0 {
			out[i] = 100
			continue
		}
		rs := g / l
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// MACD computes the MACD line (fast EMA − slow EMA) and its signal line
// (EMA of the MACD line).
func MACD(close []float64, fast, slow, signal int) (macd, signalLine []float64) {
	fastEMA := EMA(close, fast)
	slowEMA := EMA(close, slow)
	macd = make([]float64, len(close))
	for i := range macd {
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine = EMA(macd, signal)
	return macd, signalLine
}

// Regime labels each position "Bullish" when the short average is above the
// long average and "Bearish" otherwise. NaN comparisons are Bearish, which
// matches how warm-up rows were labelled upstream.
func Regime(short, long []float64) []string {
	out := make([]string, len(short))
	for i := range short {
		if short[i] > long[i] {
			out[i] = "Bullish"
		} else {
			out[i] = "Bearish"
		}
	}
	return out
}

// rolling applies fn to each full window of x. Positions before the window
// fills, and windows containing NaN, yield NaN.
func rolling(x []float64, window int, fn func([]float64) float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		if window <= 0 || i+1 < window {
			out[i] = math.NaN()
			continue
		}
		w := x[i+1-window : i+1]
		if hasNaN(w) {
			out[i] = math.NaN()
			continue
		}
		out[i] = fn(w)
	}
	return out
}

func mean(w []float64) float64 {
	if len(w) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range w {
		sum += v
	}
	return sum / float64(len(w))
}

func hasNaN(w []float64) bool {
	for _, v := range w {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
