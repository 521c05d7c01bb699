package pipeline

import (
	"fmt"
	"math"
)

// ValidationReport carries the outcome of the data-quality checks.
type ValidationReport struct {
	IsValid      bool           `json:"is_valid"`
	Warnings     []string       `json:"warnings"`
	InfoMessages []string       `json:"info_messages"`
	Metrics      QualityMetrics `json:"metrics"`
}

// QualityMetrics summarises the transformed dataset.
type QualityMetrics struct {
	DataPoints          int     `json:"data_points"`
	DateRange           string  `json:"date_range"`
	AvgDailyVolume      float64 `json:"avg_daily_volume"`
	VolatilityMean      float64 `json:"volatility_mean"`
	MissingDataPct      float64 `json:"missing_data_pct"`
	CurrentMarketRegime string  `json:"current_market_regime"`
	CurrentRSI          float64 `json:"current_rsi"`
}

// Validate checks the transformed data for completeness and consistency.
// Warm-up gaps from indicator windows are expected and reported as info;
// anything else downgrades the report.
func Validate(cfg *Config, a *Analysis) *ValidationReport {
	report := &ValidationReport{
		IsValid:      true,
		Warnings:     []string{},
		InfoMessages: []string{},
	}

	ac := cfg.Analysis
	expectedGaps := map[string]int{
		"Daily_Return": 1,
		"SMA_50":       ac.SMAShort - 1,
		"SMA_200":      ac.SMALong - 1,
		"Volatility":   ac.VolatilityWindow, // one return gap + window warm-up
		"RSI":          ac.RSIPeriod,
	}
	columns := map[string][]float64{
		"Daily_Return": a.DailyReturn,
		"SMA_50":       a.SMAShort,
		"SMA_200":      a.SMALong,
		"Volatility":   a.Volatility,
		"RSI":          a.RSI,
	}

	totalGaps := 0
	for name, col := range columns {
		gaps := countNaN(col)
		totalGaps += gaps
		if gaps == 0 {
			continue
		}
		if expected, ok := expectedGaps[name]; ok && gaps == expected {
			report.InfoMessages = append(report.InfoMessages,
				fmt.Sprintf("%s: %d gaps (normal for calculation window)", name, gaps))
		} else {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("Unexpected gaps in %s: %d values", name, gaps))
		}
	}

	// Range check: RSI lives in [0, 100].
	rsiMin, rsiMax := minMax(a.RSI)
	if rsiMax > 100 || rsiMin < 0 {
		report.IsValid = false
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("RSI values out of valid range: min=%.2f, max=%.2f", rsiMin, rsiMax))
	}

	for _, b := range a.Bars {
		if b.High < b.Low {
			report.IsValid = false
			report.Warnings = append(report.Warnings, "Found instances where High < Low")
			break
		}
	}

	report.Metrics = qualityMetrics(a, totalGaps, len(columns))
	return report
}

func qualityMetrics(a *Analysis, totalGaps, indicatorCols int) QualityMetrics {
	m := QualityMetrics{DataPoints: a.Len()}
	if a.Len() == 0 {
		return m
	}

	var volume float64
	for _, b := range a.Bars {
		volume += b.Volume
	}
	m.AvgDailyVolume = volume / float64(a.Len())
	m.VolatilityMean = noNaN(nanMean(a.Volatility))
	m.DateRange = fmt.Sprintf("%s to %s",
		a.Bars[0].Date.Format("2006-01-02"),
		a.Bars[a.Len()-1].Date.Format("2006-01-02"))
	m.MissingDataPct = float64(totalGaps) / float64(a.Len()*indicatorCols) * 100
	m.CurrentMarketRegime = a.MarketRegime[a.Len()-1]
	m.CurrentRSI = noNaN(a.RSI[a.Len()-1])
	return m
}

func countNaN(x []float64) int {
	n := 0
	for _, v := range x {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

func minMax(x []float64) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range x {
		if math.IsNaN(v) {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

func nanMean(x []float64) float64 {
	var sum float64
	n := 0
	for _, v := range x {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
