package pipeline

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yomogiu/yfinance-analytics/internal/domain"
	"github.com/yomogiu/yfinance-analytics/internal/marketdata"
	"github.com/yomogiu/yfinance-analytics/internal/scheduler"
)

type fakeFetcher struct {
	bars []marketdata.Bar
	err  error
}

func (f *fakeFetcher) FetchDaily(_ context.Context, _ string, _, _ time.Time) ([]marketdata.Bar, error) {
	return f.bars, f.err
}

func syntheticBars(n int) []marketdata.Bar {
	bars := make([]marketdata.Bar, n)
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := range bars {
		if i%4 == 3 {
			price -= 0.8
		} else {
			price += 1.1
		}
		bars[i] = marketdata.Bar{
			Date:   day.AddDate(0, 0, i),
			Open:   price - 0.5,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1_000_000 + float64(i)*1000,
		}
	}
	return bars
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	return &Config{
		Symbol:       "spy.us",
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		RawDir:       filepath.Join(dir, "raw"),
		ProcessedDir: filepath.Join(dir, "processed"),
		Analysis: AnalysisConfig{
			SMAShort:         3,
			SMALong:          5,
			VolatilityWindow: 3,
			RSIPeriod:        3,
			MACDFast:         2,
			MACDSlow:         4,
			MACDSignal:       3,
		},
		TaskTimeout: 5 * time.Second,
		TaskRetries: 2,
	}
}

func TestTransform_DerivesAllColumns(t *testing.T) {
	cfg := testConfig(t)
	a := Transform(cfg, syntheticBars(30))

	require.Equal(t, 30, a.Len())
	require.Len(t, a.DailyReturn, 30)
	require.Len(t, a.SMAShort, 30)
	require.Len(t, a.SMALong, 30)
	require.Len(t, a.Volatility, 30)
	require.Len(t, a.RSI, 30)
	require.Len(t, a.MACD, 30)
	require.Len(t, a.SignalLine, 30)
	require.Len(t, a.MarketRegime, 30)

	assert.True(t, math.IsNaN(a.DailyReturn[0]))
	assert.False(t, math.IsNaN(a.SMAShort[2]), "3-day SMA fills from index 2")
	assert.False(t, math.IsNaN(a.SMALong[4]), "5-day SMA fills from index 4")
	last := a.Len() - 1
	assert.Contains(t, []string{"Bullish", "Bearish"}, a.MarketRegime[last])
}

func TestValidate_CleanDataIsValid(t *testing.T) {
	cfg := testConfig(t)
	a := Transform(cfg, syntheticBars(30))
	report := Validate(cfg, a)

	assert.True(t, report.IsValid)
	assert.Empty(t, report.Warnings)
	assert.NotEmpty(t, report.InfoMessages, "warm-up gaps are reported as info")
	assert.Equal(t, 30, report.Metrics.DataPoints)
	assert.Equal(t, "2024-01-01 to 2024-01-30", report.Metrics.DateRange)
	assert.Greater(t, report.Metrics.AvgDailyVolume, 0.0)
}

func TestValidate_FlagsHighBelowLow(t *testing.T) {
	cfg := testConfig(t)
	bars := syntheticBars(30)
	bars[10].High = bars[10].Low - 5
	report := Validate(cfg, Transform(cfg, bars))

	assert.False(t, report.IsValid)
	assert.Contains(t, report.Warnings, "Found instances where High < Low")
}

func TestSave_WritesAllOutputs(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, EnsureDataDirs(cfg))

	a := Transform(cfg, syntheticBars(30))
	report := Validate(cfg, a)
	paths, err := Save(cfg, a, report)
	require.NoError(t, err)
	require.Len(t, paths, 3)

	for _, p := range paths {
		_, err := os.Stat(p)
		assert.NoError(t, err, "missing output %s", p)
	}

	raw, err := os.ReadFile(filepath.Join(cfg.ProcessedDir, MetricsJSON))
	require.NoError(t, err)
	var metrics LatestMetrics
	require.NoError(t, json.Unmarshal(raw, &metrics))
	assert.InDelta(t, a.Bars[a.Len()-1].Close, metrics.LastPrice, 1e-9)
	assert.NotEmpty(t, metrics.MarketRegime)
}

func TestSave_EmptyAnalysis(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, EnsureDataDirs(cfg))
	_, err := Save(cfg, &Analysis{}, &ValidationReport{})
	require.Error(t, err)
}

func TestBuildTasks_DefaultsAndOverrides(t *testing.T) {
	cfg := testConfig(t)
	cfg.Priorities = map[string]string{"save": "HIGH"}

	tasks, err := BuildTasks(cfg, &fakeFetcher{})
	require.NoError(t, err)
	require.Len(t, tasks, 4)

	byName := map[string]*domain.Task{}
	for _, task := range tasks {
		byName[task.Name] = task
	}
	assert.Equal(t, domain.PriorityHigh, byName[TaskFetch].Priority)
	assert.Equal(t, domain.PriorityHigh, byName[TaskSave].Priority, "config override")
	assert.Equal(t, []string{TaskFetch}, byName[TaskTransform].Dependencies)
	assert.Equal(t, []string{TaskTransform, TaskValidate}, byName[TaskSave].Dependencies)
	assert.Equal(t, 2, byName[TaskFetch].Retries)
	assert.Equal(t, 5*time.Second, byName[TaskFetch].Timeout)
}

func TestBuildTasks_RejectsBadPriorities(t *testing.T) {
	cfg := testConfig(t)

	cfg.Priorities = map[string]string{"fetch": "URGENT"}
	_, err := BuildTasks(cfg, &fakeFetcher{})
	require.Error(t, err)

	cfg.Priorities = map[string]string{"cleanup": "LOW"}
	_, err = BuildTasks(cfg, &fakeFetcher{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown task")
}

// TestPipeline_EndToEnd drives the four tasks through the real scheduler and
// checks the on-disk outputs.
func TestPipeline_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, EnsureDataDirs(cfg))

	tasks, err := BuildTasks(cfg, &fakeFetcher{bars: syntheticBars(40)})
	require.NoError(t, err)

	reg := scheduler.NewRegistry()
	for _, task := range tasks {
		require.NoError(t, reg.Add(task))
	}
	assert.Equal(t, [][]string{{TaskFetch}, {TaskTransform}, {TaskValidate}, {TaskSave}}, reg.Layers())

	results, err := scheduler.NewExecutor(reg, cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 4)

	report, ok := results[TaskValidate].(*ValidationReport)
	require.True(t, ok)
	assert.True(t, report.IsValid)

	saved, ok := results[TaskSave].([]string)
	require.True(t, ok)
	assert.Len(t, saved, 3)

	for _, name := range []string{AnalysisCSV, ValidationJSON, MetricsJSON} {
		_, err := os.Stat(filepath.Join(cfg.ProcessedDir, name))
		assert.NoError(t, err, "pipeline output %s missing", name)
	}
}

func TestPipeline_FetchFailureAbortsRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.TaskRetries = 1
	require.NoError(t, EnsureDataDirs(cfg))

	tasks, err := BuildTasks(cfg, &fakeFetcher{err: context.DeadlineExceeded})
	require.NoError(t, err)

	reg := scheduler.NewRegistry()
	for _, task := range tasks {
		require.NoError(t, reg.Add(task))
	}

	results, err := scheduler.NewExecutor(reg, cfg).Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, results)

	var failErr *domain.TaskExecutionFailedError
	require.ErrorAs(t, err, &failErr)
	assert.Equal(t, TaskFetch, failErr.Task)

	// Downstream tasks never ran, so no outputs were written.
	entries, readErr := os.ReadDir(cfg.ProcessedDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}
