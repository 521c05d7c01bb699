package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yomogiu/yfinance-analytics/internal/domain"
	"github.com/yomogiu/yfinance-analytics/internal/marketdata"
	pipe "github.com/yomogiu/yfinance-analytics/internal/pipeline"
)

type fakeFetcher struct {
	bars []marketdata.Bar
	err  error
}

func (f *fakeFetcher) FetchDaily(_ context.Context, _ string, _, _ time.Time) ([]marketdata.Bar, error) {
	return f.bars, f.err
}

func testRunConfig(t *testing.T) *pipe.Config {
	t.Helper()
	dir := t.TempDir()
	return &pipe.Config{
		Symbol:       "spy.us",
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		RawDir:       filepath.Join(dir, "raw"),
		ProcessedDir: filepath.Join(dir, "processed"),
		Analysis: pipe.AnalysisConfig{
			SMAShort:         3,
			SMALong:          5,
			VolatilityWindow: 3,
			RSIPeriod:        3,
			MACDFast:         2,
			MACDSlow:         4,
			MACDSignal:       3,
		},
		TaskTimeout: 5 * time.Second,
		TaskRetries: 1,
	}
}

func testBars(n int) []marketdata.Bar {
	bars := make([]marketdata.Bar, n)
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		price := 100 + float64(i)
		bars[i] = marketdata.Bar{
			Date: day.AddDate(0, 0, i), Open: price, High: price + 1,
			Low: price - 1, Close: price, Volume: 1_000_000,
		}
	}
	return bars
}

func TestRunner_Run(t *testing.T) {
	cfg := testRunConfig(t)
	r := NewRunner(cfg, WithFetcher(&fakeFetcher{bars: testBars(20)}))

	results, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 4)

	// Data directories were created and outputs written.
	for _, dir := range []string{cfg.RawDir, cfg.ProcessedDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	_, err = os.Stat(filepath.Join(cfg.ProcessedDir, pipe.AnalysisCSV))
	assert.NoError(t, err)
}

func TestRunner_FetchErrorSurfacesTaskFailure(t *testing.T) {
	cfg := testRunConfig(t)
	r := NewRunner(cfg, WithFetcher(&fakeFetcher{err: errors.New("provider down")}))

	results, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, results)

	var failErr *domain.TaskExecutionFailedError
	require.ErrorAs(t, err, &failErr)
	assert.Equal(t, pipe.TaskFetch, failErr.Task)
	assert.Equal(t, 1, failErr.Attempts)
}

func TestRunner_BadPriorityConfig(t *testing.T) {
	cfg := testRunConfig(t)
	cfg.Priorities = map[string]string{"fetch": "CRITICAL"}
	r := NewRunner(cfg, WithFetcher(&fakeFetcher{bars: testBars(20)}))

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "priority")
}
