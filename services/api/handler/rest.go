package handler

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/yomogiu/yfinance-analytics/internal/pipeline"
	"github.com/yomogiu/yfinance-analytics/pkg/telemetry"
)

const defaultHistoryDays = 252

// REST serves the pipeline's output files over HTTP.
type REST struct {
	processedDir string
	logger       *slog.Logger
}

// NewREST creates a REST handler reading from the given processed data
// directory.
func NewREST(processedDir string, logger *slog.Logger) *REST {
	return &REST{processedDir: processedDir, logger: logger}
}

// HistoricalDataResponse is the GET /data/historical response body. Indicator
// warm-up gaps are null.
type HistoricalDataResponse struct {
	Dates        []string   `json:"dates"`
	Close        []float64  `json:"close"`
	Volume       []float64  `json:"volume"`
	SMA50        []*float64 `json:"sma_50"`
	SMA200       []*float64 `json:"sma_200"`
	RSI          []*float64 `json:"rsi"`
	MACD         []*float64 `json:"macd"`
	SignalLine   []*float64 `json:"signal_line"`
	MarketRegime []string   `json:"market_regime"`
}

func (h *REST) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Readyz reports ready once the pipeline has produced a metrics snapshot.
func (h *REST) Readyz(w http.ResponseWriter, _ *http.Request) {
	if _, err := os.Stat(filepath.Join(h.processedDir, pipeline.MetricsJSON)); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GetLatestMetrics serves the latest metrics snapshot.
func (h *REST) GetLatestMetrics(w http.ResponseWriter, r *http.Request) {
	h.serveJSONFile(w, r, pipeline.MetricsJSON, "metrics/latest")
}

// GetValidationReport serves the validation report of the last run.
func (h *REST) GetValidationReport(w http.ResponseWriter, r *http.Request) {
	h.serveJSONFile(w, r, pipeline.ValidationJSON, "analysis/validation")
}

// GetHistoricalData serves the analysis time series, trimmed to the trailing
// ?days=N rows (default 252, one trading year).
func (h *REST) GetHistoricalData(w http.ResponseWriter, r *http.Request) {
	const route = "data/historical"

	days := defaultHistoryDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeError(w, route, http.StatusBadRequest, fmt.Sprintf("invalid days parameter %q", raw))
			return
		}
		days = n
	}

	path := filepath.Join(h.processedDir, pipeline.AnalysisCSV)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		h.writeError(w, route, http.StatusNotFound,
			"Data file not found. Please ensure the pipeline has run successfully.")
		return
	}
	if err != nil {
		h.logger.Error("open analysis csv", slog.String("error", err.Error()))
		h.writeError(w, route, http.StatusInternalServerError, "failed to read data")
		return
	}
	defer f.Close()

	resp, err := readHistory(f, days)
	if err != nil {
		h.logger.Error("parse analysis csv", slog.String("error", err.Error()))
		h.writeError(w, route, http.StatusInternalServerError, "failed to parse data")
		return
	}
	if len(resp.Dates) == 0 {
		h.writeError(w, route, http.StatusNotFound, "No data available")
		return
	}

	h.writeJSON(w, route, http.StatusOK, resp)
}

func (h *REST) serveJSONFile(w http.ResponseWriter, _ *http.Request, name, route string) {
	data, err := os.ReadFile(filepath.Join(h.processedDir, name))
	if errors.Is(err, os.ErrNotExist) {
		h.writeError(w, route, http.StatusNotFound, name+" not found")
		return
	}
	if err != nil {
		h.logger.Error("read output file", slog.String("file", name), slog.String("error", err.Error()))
		h.writeError(w, route, http.StatusInternalServerError, "failed to read "+name)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	telemetry.APIRequestsTotal.WithLabelValues(route, "200").Inc()
}

func (h *REST) writeJSON(w http.ResponseWriter, route string, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", slog.String("error", err.Error()))
	}
	telemetry.APIRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func (h *REST) writeError(w http.ResponseWriter, route string, status int, detail string) {
	h.writeJSON(w, route, status, map[string]string{"detail": detail})
}

// readHistory parses the analysis CSV and keeps the trailing days rows.
func readHistory(r io.Reader, days int) (*HistoricalDataResponse, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"Date", "Close", "Volume", "SMA_50", "SMA_200", "RSI", "MACD", "Signal_Line", "Market_Regime"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) > days {
		rows = rows[len(rows)-days:]
	}

	resp := &HistoricalDataResponse{}
	for _, rec := range rows {
		resp.Dates = append(resp.Dates, rec[col["Date"]])
		resp.Close = append(resp.Close, mustFloat(rec[col["Close"]]))
		resp.Volume = append(resp.Volume, mustFloat(rec[col["Volume"]]))
		resp.SMA50 = append(resp.SMA50, optFloat(rec[col["SMA_50"]]))
		resp.SMA200 = append(resp.SMA200, optFloat(rec[col["SMA_200"]]))
		resp.RSI = append(resp.RSI, optFloat(rec[col["RSI"]]))
		resp.MACD = append(resp.MACD, optFloat(rec[col["MACD"]]))
		resp.SignalLine = append(resp.SignalLine, optFloat(rec[col["Signal_Line"]]))
		resp.MarketRegime = append(resp.MarketRegime, rec[col["Market_Regime"]])
	}
	return resp, nil
}

func mustFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// optFloat maps empty cells (indicator warm-up gaps) to nil.
func optFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
