package pipeline

import (
	"fmt"
	"os"
	"time"
)

// Config is the run configuration threaded into every task action.
// The scheduler treats it as opaque; actions assert it back at the edge.
type Config struct {
	Symbol    string
	StartDate time.Time

	RawDir       string
	ProcessedDir string

	Analysis AnalysisConfig

	// Priorities maps task name to a priority name (HIGH/MEDIUM/LOW).
	Priorities map[string]string

	TaskTimeout time.Duration
	TaskRetries int
}

// AnalysisConfig holds the indicator windows.
type AnalysisConfig struct {
	SMAShort         int
	SMALong          int
	VolatilityWindow int
	RSIPeriod        int
	MACDFast         int
	MACDSlow         int
	MACDSignal       int
}

// DefaultAnalysisConfig matches the windows the dashboard expects:
// 50/200-day averages, 20-day volatility, 14-day RSI, 12/26/9 MACD.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		SMAShort:         50,
		SMALong:          200,
		VolatilityWindow: 20,
		RSIPeriod:        14,
		MACDFast:         12,
		MACDSlow:         26,
		MACDSignal:       9,
	}
}

// EnsureDataDirs creates the raw and processed data directories.
func EnsureDataDirs(cfg *Config) error {
	for _, dir := range []string{cfg.RawDir, cfg.ProcessedDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir %s: %w", dir, err)
		}
	}
	return nil
}

// runConfig recovers the typed config from the opaque value the executor
// threads into actions.
func runConfig(v any) (*Config, error) {
	cfg, ok := v.(*Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("run configuration has unexpected type %T", v)
	}
	return cfg, nil
}
