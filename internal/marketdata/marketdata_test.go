package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Date,Open,High,Low,Close,Volume
2024-01-02,470.1,472.9,469.5,472.65,81964000
2024-01-03,470.4,471.2,468.2,468.79,80187000
2024-01-04,468.3,470.0,N/D,467.28,77482000
2024-01-05,467.5,469.4,466.9,467.92,85415000
`

func TestParseCSV(t *testing.T) {
	bars, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	// The N/D row is skipped.
	require.Len(t, bars, 3)

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.InDelta(t, 472.65, bars[0].Close, 1e-9)
	assert.InDelta(t, 81964000, bars[0].Volume, 1e-9)
	assert.Equal(t, "2024-01-05", bars[2].Date.Format("2006-01-02"))
}

func TestParseCSV_BadHeader(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("Foo,Bar\n1,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected header")
}

func TestClient_FetchDaily(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	bars, err := c.FetchDaily(context.Background(), "SPY.US", start, end)
	require.NoError(t, err)
	assert.Len(t, bars, 3)
	assert.Contains(t, gotQuery, "s=spy.us", "symbol is lowercased")
	assert.Contains(t, gotQuery, "d1=20240101")
	assert.Contains(t, gotQuery, "d2=20240131")
	assert.Contains(t, gotQuery, "i=d")
}

func TestClient_FetchDaily_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	_, err := c.FetchDaily(context.Background(), "spy.us", time.Now().AddDate(0, -1, 0), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestClient_FetchDaily_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Date,Open,High,Low,Close,Volume\n"))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	_, err := c.FetchDaily(context.Background(), "spy.us", time.Now().AddDate(0, -1, 0), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data")
}
