package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const defaultPipelineYAML = `# yfinance-analytics — Pipeline config
# Priority: CLI flag > this file > default.

log_level:  "info"
symbol:     "spy.us"
start_date: "2015-01-01"

data:
  raw_dir:       "data/raw"
  processed_dir: "data/processed"

analysis:
  sma_short:         50
  sma_long:          200
  volatility_window: 20
  rsi_period:        14
  macd_fast:         12
  macd_slow:         26
  macd_signal:       9

# Per-task priorities: HIGH | MEDIUM | LOW
priorities:
  fetch:     "HIGH"
  transform: "HIGH"
  validate:  "MEDIUM"
  save:      "LOW"

task_timeout: "60s"   # accepts Go duration strings: 30s, 1m, 2m30s
task_retries: 3

schedule:     "0 22 * * 1-5"   # serve mode: weekdays at 22:00
metrics_addr: ":9091"

# otel_endpoint: "localhost:4318"  # uncomment to enable OpenTelemetry tracing
`

func newInitCmd(serviceName, defaultYAML string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long: fmt.Sprintf(`Write default configuration for %s.

If --config is given the file is written to that path.
Otherwise it is written to ~/.yfinance-analytics/%s.yaml.
Fails if the file already exists unless --force is passed.`, serviceName, serviceName),
		RunE: func(_ *cobra.Command, _ []string) error {
			dest := cfgFile
			if dest == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("home dir: %w", err)
				}
				dest = filepath.Join(home, ".yfinance-analytics", serviceName+".yaml")
			}

			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return fmt.Errorf("mkdir: %w", err)
			}

			if !force {
				if _, err := os.Stat(dest); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", dest)
				} else if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("stat %s: %w", dest, err)
				}
			}

			if err := os.WriteFile(dest, []byte(defaultYAML), 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Printf("config written to %s\n", dest)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config file")
	return cmd
}
