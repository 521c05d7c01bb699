package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds typed configuration for the pipeline service.
type Config struct {
	LogLevel string

	Symbol    string
	StartDate string

	RawDir       string
	ProcessedDir string

	SMAShort         int
	SMALong          int
	VolatilityWindow int
	RSIPeriod        int
	MACDFast         int
	MACDSlow         int
	MACDSignal       int

	Priorities map[string]string

	TaskTimeout time.Duration
	TaskRetries int

	Schedule     string // cron expression for serve mode; empty disables re-runs
	MetricsAddr  string
	OTelEndpoint string
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:         v.GetString("log_level"),
		Symbol:           v.GetString("symbol"),
		StartDate:        v.GetString("start_date"),
		RawDir:           v.GetString("data.raw_dir"),
		ProcessedDir:     v.GetString("data.processed_dir"),
		SMAShort:         v.GetInt("analysis.sma_short"),
		SMALong:          v.GetInt("analysis.sma_long"),
		VolatilityWindow: v.GetInt("analysis.volatility_window"),
		RSIPeriod:        v.GetInt("analysis.rsi_period"),
		MACDFast:         v.GetInt("analysis.macd_fast"),
		MACDSlow:         v.GetInt("analysis.macd_slow"),
		MACDSignal:       v.GetInt("analysis.macd_signal"),
		Priorities:       v.GetStringMapString("priorities"),
		TaskTimeout:      v.GetDuration("task_timeout"),
		TaskRetries:      v.GetInt("task_retries"),
		Schedule:         v.GetString("schedule"),
		MetricsAddr:      v.GetString("metrics_addr"),
		OTelEndpoint:     v.GetString("otel_endpoint"),
	}
}
