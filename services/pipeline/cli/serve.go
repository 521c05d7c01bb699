package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yomogiu/yfinance-analytics/pkg/telemetry"
	pipeline "github.com/yomogiu/yfinance-analytics/services/pipeline"
	"github.com/yomogiu/yfinance-analytics/services/pipeline/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline once, then re-run it on a cron schedule",
	RunE:  runServe,
}

func init() {
	addPipelineFlags(serveCmd)
	serveCmd.Flags().String("schedule", "0 22 * * 1-5", "cron expression for re-runs (standard 5-field syntax)")
	serveCmd.Flags().String("metrics-addr", ":9091", "Prometheus metrics server address")

	bindFlag("schedule", serveCmd.Flags(), "schedule")
	bindFlag("metrics_addr", serveCmd.Flags(), "metrics-addr")
}

func runServe(_ *cobra.Command, _ []string) error {
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
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return fmt.Errorf("parse schedule %q: %w", cfg.Schedule, err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	telemetry.StartMetricsServer(runCtx, cfg.MetricsAddr, logger)

	runner := pipeline.NewRunner(runCfg, pipeline.WithLogger(logger))

	// First pass before waiting for the schedule.
	if _, err := runner.Run(runCtx); err != nil {
		return fmt.Errorf("initial pipeline run: %w", err)
	}

	c := cron.New()
	_, err = c.AddFunc(cfg.Schedule, func() {
		if _, err := runner.Run(runCtx); err != nil {
			logger.Error("scheduled pipeline run failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule pipeline: %w", err)
	}
	c.Start()
	logger.Info("pipeline scheduled", slog.String("schedule", cfg.Schedule))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logger.Info("shutting down...")
	runCancel()
	<-c.Stop().Done()
	logger.Info("stopped")
	return nil
}
