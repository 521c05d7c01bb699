package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	pipe "github.com/yomogiu/yfinance-analytics/internal/pipeline"
	"github.com/yomogiu/yfinance-analytics/pkg/telemetry"
	pipeline "github.com/yomogiu/yfinance-analytics/services/pipeline"
	"github.com/yomogiu/yfinance-analytics/services/pipeline/config"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once and exit",
	RunE:  runOnce,
}

func init() {
	addPipelineFlags(runCmd)
}

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("symbol", "spy.us", "instrument symbol to fetch")
	cmd.Flags().String("start-date", "2015-01-01", "history start date (YYYY-MM-DD)")
	cmd.Flags().String("raw-dir", "data/raw", "raw data directory")
	cmd.Flags().String("processed-dir", "data/processed", "processed data directory")
	cmd.Flags().Duration("task-timeout", 60*time.Second, "per-attempt task timeout")
	cmd.Flags().Int("task-retries", 3, "attempts per task, including the first")
	cmd.Flags().String("otel-endpoint", "", "OTLP HTTP endpoint for tracing (e.g. localhost:4318); empty disables tracing")

	bindFlag("symbol", cmd.Flags(), "symbol")
	bindFlag("start_date", cmd.Flags(), "start-date")
	bindFlag("data.raw_dir", cmd.Flags(), "raw-dir")
	bindFlag("data.processed_dir", cmd.Flags(), "processed-dir")
	bindFlag("task_timeout", cmd.Flags(), "task-timeout")
	bindFlag("task_retries", cmd.Flags(), "task-retries")
	bindFlag("otel_endpoint", cmd.Flags(), "otel-endpoint")
	_ = viper.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func runOnce(_ *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())
	logger := buildLogger(cfg.LogLevel, "pipeline")

	shutdownTracer, err := telemetry.InitTracer(context.Background(), "pipeline", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer shutdownTracer()

	runCfg, err := buildRunConfig(cfg)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(runCfg, pipeline.WithLogger(logger))
	if _, err := runner.Run(context.Background()); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}

// buildRunConfig maps the service config onto the pipeline's run
// configuration, filling unset analysis windows with their defaults.
func buildRunConfig(cfg config.Config) (*pipe.Config, error) {
	start, err := time.Parse("2006-01-02", cfg.StartDate)
	if err != nil {
		return nil, fmt.Errorf("parse start_date %q: %w", cfg.StartDate, err)
	}

	analysis := pipe.DefaultAnalysisConfig()
	if cfg.SMAShort > 0 {
		analysis.SMAShort = cfg.SMAShort
	}
	if cfg.SMALong > 0 {
		analysis.SMALong = cfg.SMALong
	}
	if cfg.VolatilityWindow > 0 {
		analysis.VolatilityWindow = cfg.VolatilityWindow
	}
	if cfg.RSIPeriod > 0 {
		analysis.RSIPeriod = cfg.RSIPeriod
	}
	if cfg.MACDFast > 0 {
		analysis.MACDFast = cfg.MACDFast
	}
	if cfg.MACDSlow > 0 {
		analysis.MACDSlow = cfg.MACDSlow
	}
	if cfg.MACDSignal > 0 {
		analysis.MACDSignal = cfg.MACDSignal
	}

	return &pipe.Config{
		Symbol:       cfg.Symbol,
		StartDate:    start,
		RawDir:       cfg.RawDir,
		ProcessedDir: cfg.ProcessedDir,
		Analysis:     analysis,
		Priorities:   cfg.Priorities,
		TaskTimeout:  cfg.TaskTimeout,
		TaskRetries:  cfg.TaskRetries,
	}, nil
}
