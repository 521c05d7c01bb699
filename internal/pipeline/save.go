package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

// Output file names under the processed data directory. The results API
// reads these.
const (
	AnalysisCSV    = "analysis.csv"
	ValidationJSON = "validation_report.json"
	MetricsJSON    = "latest_metrics.json"
)

// LatestMetrics is the last-row snapshot written for the dashboard.
type LatestMetrics struct {
	LastPrice    float64 `json:"last_price"`
	DailyReturn  float64 `json:"daily_return"`
	CurrentRSI   float64 `json:"current_rsi"`
	MarketRegime string  `json:"market_regime"`
	Volatility   float64 `json:"volatility"`
	SMA50        float64 `json:"sma_50"`
	SMA200       float64 `json:"sma_200"`
	MACD         float64 `json:"macd"`
	SignalLine   float64 `json:"signal_line"`
}

var csvHeader = []string{
	"Date", "Open", "High", "Low", "Close", "Volume",
	"Daily_Return", "SMA_50", "SMA_200", "Volatility",
	"RSI", "MACD", "Signal_Line", "Market_Regime",
}

// Save writes the analysis CSV, the validation report, and the latest
// metrics snapshot to the processed data directory. Returns the paths
// written.
func Save(cfg *Config, a *Analysis, report *ValidationReport) ([]string, error) {
	if a.Len() == 0 {
		return nil, fmt.Errorf("nothing to save: analysis is empty")
	}

	csvPath := filepath.Join(cfg.ProcessedDir, AnalysisCSV)
	if err := writeCSV(csvPath, a); err != nil {
		return nil, err
	}

	validationPath := filepath.Join(cfg.ProcessedDir, ValidationJSON)
	if err := writeJSON(validationPath, report); err != nil {
		return nil, err
	}

	last := a.Len() - 1
	metrics := LatestMetrics{
		LastPrice:    a.Bars[last].Close,
		DailyReturn:  noNaN(a.DailyReturn[last]),
		CurrentRSI:   noNaN(a.RSI[last]),
		MarketRegime: a.MarketRegime[last],
		Volatility:   noNaN(a.Volatility[last]),
		SMA50:        noNaN(a.SMAShort[last]),
		SMA200:       noNaN(a.SMALong[last]),
		MACD:         noNaN(a.MACD[last]),
		SignalLine:   noNaN(a.SignalLine[last]),
	}
	metricsPath := filepath.Join(cfg.ProcessedDir, MetricsJSON)
	if err := writeJSON(metricsPath, metrics); err != nil {
		return nil, err
	}

	return []string{csvPath, validationPath, metricsPath}, nil
}

func writeCSV(path string, a *Analysis) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, b := range a.Bars {
		rec := []string{
			b.Date.Format("2006-01-02"),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.Volume),
			formatFloat(a.DailyReturn[i]),
			formatFloat(a.SMAShort[i]),
			formatFloat(a.SMALong[i]),
			formatFloat(a.Volatility[i]),
			formatFloat(a.RSI[i]),
			formatFloat(a.MACD[i]),
			formatFloat(a.SignalLine[i]),
			a.MarketRegime[i],
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// formatFloat renders a value for CSV; warm-up NaNs become empty cells so
// they read back as missing values.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// noNaN clamps NaN to zero for JSON output, which rejects NaN literals.
func noNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
