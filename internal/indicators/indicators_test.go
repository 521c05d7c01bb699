package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReturns(t *testing.T) {
	got := Returns([]float64{100, 110, 99})
	require.Len(t, got, 3)
	assert.True(t, math.IsNaN(got[0]))
	assert.InDelta(t, 0.10, got[1], 1e-9)
	assert.InDelta(t, -0.10, got[2], 1e-9)
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 3)
	require.Len(t, got, 5)
	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, 2, got[2], 1e-9)
	assert.InDelta(t, 3, got[3], 1e-9)
	assert.InDelta(t, 4, got[4], 1e-9)
}

func TestRollingStd(t *testing.T) {
	got := RollingStd([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8)
	require.Len(t, got, 8)
	// Sample standard deviation of the full window.
	assert.InDelta(t, 2.13809, got[7], 1e-4)
	for i := 0; i < 7; i++ {
		assert.True(t, math.IsNaN(got[i]), "index %d is warm-up", i)
	}
}

func TestRollingStd_PropagatesNaN(t *testing.T) {
	x := []float64{math.NaN(), 1, 2, 3}
	got := RollingStd(x, 2)
	assert.True(t, math.IsNaN(got[1]), "window containing NaN must be NaN")
	assert.False(t, math.IsNaN(got[2]))
}

func TestEMA(t *testing.T) {
	got := EMA([]float64{10, 20}, 3) // alpha = 0.5
	require.Len(t, got, 2)
	assert.InDelta(t, 10, got[0], 1e-9)
	assert.InDelta(t, 15, got[1], 1e-9)
}

func TestRSI_Bounds(t *testing.T) {
	// Strictly rising series: no losses, RSI pegs at 100.
	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = float64(i + 1)
	}
	got := RSI(rising, 14)
	assert.InDelta(t, 100, got[len(got)-1], 1e-9)

	// Strictly falling series: no gains, RSI at 0.
	falling := make([]float64, 20)
	for i := range falling {
		falling[i] = float64(100 - i)
	}
	got = RSI(falling, 14)
	assert.InDelta(t, 0, got[len(got)-1], 1e-9)
}

func TestRSI_WarmupGaps(t *testing.T) {
	x := make([]float64, 20)
	for i := range x {
		x[i] = float64(i%3) + 50
	}
	got := RSI(x, 14)
	for i := 0; i < 14; i++ {
		assert.True(t, math.IsNaN(got[i]), "index %d is warm-up", i)
	}
	for i := 14; i < len(got); i++ {
		assert.False(t, math.IsNaN(got[i]))
		assert.GreaterOrEqual(t, got[i], 0.0)
		assert.LessOrEqual(t, got[i], 100.0)
	}
}

func TestMACD(t *testing.T) {
	x := []float64{10, 11, 12, 13, 14, 15, 16, 17}
	macd, signal := MACD(x, 2, 4, 3)
	require.Len(t, macd, len(x))
	require.Len(t, signal, len(x))
	assert.InDelta(t, 0, macd[0], 1e-9, "both EMAs seed at the first value")
	// Trending series: fast EMA stays above slow EMA.
	assert.Greater(t, macd[len(x)-1], 0.0)
}

func TestRegime(t *testing.T) {
	short := []float64{math.NaN(), 2, 5}
	long := []float64{math.NaN(), 3, 4}
	got := Regime(short, long)
	assert.Equal(t, []string{"Bearish", "Bearish", "Bullish"}, got)
}
