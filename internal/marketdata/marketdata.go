package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Bar is one daily OHLCV observation.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Fetcher retrieves daily bars for a symbol. The pipeline's fetch task talks
// to this interface so tests can substitute canned data.
type Fetcher interface {
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error)
}

const defaultBaseURL = "https://stooq.com/q/d/l/"

// Client fetches daily bars from a Stooq-compatible CSV endpoint.
type Client struct {
	baseURL string
	client  *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithBaseURL(u string) ClientOption          { return func(c *Client) { c.baseURL = u } }
func WithHTTPClient(h *http.Client) ClientOption { return func(c *Client) { c.client = h } }

// NewClient creates a market-data client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchDaily downloads daily bars for symbol between start and end inclusive,
// oldest first.
func (c *Client) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	q := url.Values{}
	q.Set("s", strings.ToLower(symbol))
	q.Set("d1", start.Format("20060102"))
	q.Set("d2", end.Format("20060102"))
	q.Set("i", "d")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build quotes request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch quotes for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quotes endpoint returned status %d for %s", resp.StatusCode, symbol)
	}

	bars, err := ParseCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse quotes for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no data returned for %s", symbol)
	}
	return bars, nil
}

// ParseCSV reads bars from a Date,Open,High,Low,Close,Volume CSV stream.
// Rows with non-numeric fields (the provider marks gaps "N/D") are skipped.
func ParseCSV(r io.Reader) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 6 || !strings.EqualFold(header[0], "Date") {
		return nil, fmt.Errorf("unexpected header %v", header)
	}

	var bars []Bar
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(rec) < 6 {
			continue
		}
		bar, err := parseRow(rec)
		if err != nil {
			continue
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseRow(rec []string) (Bar, error) {
	date, err := time.Parse("2006-01-02", rec[0])
	if err != nil {
		return Bar{}, err
	}
	fields := make([]float64, 5)
	for i, raw := range rec[1:6] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Bar{}, err
		}
		fields[i] = v
	}
	return Bar{
		Date:   date,
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: fields[4],
	}, nil
}
