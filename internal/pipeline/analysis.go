package pipeline

import (
	"github.com/yomogiu/yfinance-analytics/internal/indicators"
	"github.com/yomogiu/yfinance-analytics/internal/marketdata"
)

// Analysis is the transformed dataset: the raw bars plus the derived
// indicator columns, all aligned by index.
type Analysis struct {
	Bars         []marketdata.Bar
	DailyReturn  []float64
	SMAShort     []float64
	SMALong      []float64
	Volatility   []float64
	RSI          []float64
	MACD         []float64
	SignalLine   []float64
	MarketRegime []string
}

// Len returns the number of rows.
func (a *Analysis) Len() int { return len(a.Bars) }

// Transform derives the indicator columns from the fetched bars.
func Transform(cfg *Config, bars []marketdata.Bar) *Analysis {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	ac := cfg.Analysis
	ret := indicators.Returns(closes)
	smaShort := indicators.SMA(closes, ac.SMAShort)
	smaLong := indicators.SMA(closes, ac.SMALong)
	macd, signal := indicators.MACD(closes, ac.MACDFast, ac.MACDSlow, ac.MACDSignal)

	return &Analysis{
		Bars:         bars,
		DailyReturn:  ret,
		SMAShort:     smaShort,
		SMALong:      smaLong,
		Volatility:   indicators.RollingStd(ret, ac.VolatilityWindow),
		RSI:          indicators.RSI(closes, ac.RSIPeriod),
		MACD:         macd,
		SignalLine:   signal,
		MarketRegime: indicators.Regime(smaShort, smaLong),
	}
}
