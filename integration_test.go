package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

var envKeys = []string{
	"FINNHUB_API_KEY",
	"ALPHAVANTAGE_API_KEY",
	"FINNHUB_BASE_URL",
	"ALPHAVANTAGE_BASE_URL",
	"PROVIDER",
	"WINDOW_DAYS",
	"RESOLUTION",
	"SEARCH_QUIET_WINDOW",
	"MAX_CONCURRENCY",
	"RETRY_COUNT",
	"REQUESTS_PER_SECOND",
	"REFRESH_SCHEDULE",
	"WATCHLIST_DB",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"SYMBOLS",
}

// finnhubServer is a fake Finnhub API that records the requests it serves.
type finnhubServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests map[string][]string // path -> symbol or q parameter
}

func newFinnhubServer(t *testing.T) *finnhubServer {
	t.Helper()
	s := &finnhubServer{requests: make(map[string][]string)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *finnhubServer) hits(path string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests[path]...)
}

func (s *finnhubServer) handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	s.requests[r.URL.Path] = append(s.requests[r.URL.Path], q.Get("symbol")+q.Get("q"))
	s.mu.Unlock()

	if q.Get("token") != "test_token" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/stock/candle":
		// 2024-03-13 and 2024-03-14, ascending
		switch q.Get("symbol") {
		case "AAPL":
			w.Write([]byte(`{"c":[100,110],"h":[101,111],"l":[99,109],"o":[99,108],"t":[1710288000,1710374400],"v":[40000000,50000000],"s":"ok"}`))
		case "MSFT":
			w.Write([]byte(`{"c":[200,190],"h":[201,200],"l":[199,189],"o":[199,199],"t":[1710288000,1710374400],"v":[1000,2000],"s":"ok"}`))
		case "TSLA":
			w.Write([]byte(`{"c":[170,175],"h":[171,176],"l":[169,174],"o":[169,170],"t":[1710288000,1710374400],"v":[100,200],"s":"ok"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	case "/search":
		w.Write([]byte(`{"count":1,"result":[{"description":"APPLE INC","displaySymbol":"AAPL","symbol":"AAPL","type":"Common Stock"}]}`))
	case "/news", "/company-news":
		w.Write([]byte(`[{"category":"technology","datetime":1710496800,"headline":"Chip stocks rally","source":"CNBC","url":"https://example.com/a"}]`))
	case "/stock/metric":
		w.Write([]byte(`{"metric":{"10DayAverageTradingVolume":61.2,"52WeekHigh":199.62,"52WeekLow":143.9,"52WeekLowDate":"2023-03-15","52WeekPriceReturnDaily":12.5,"beta":1.29},"symbol":"AAPL"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// setupEnv clears configuration from the host environment and applies env.
func setupEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	t.Setenv("REQUESTS_PER_SECOND", "0")
	t.Setenv("LOG_LEVEL", "error")
	for key, value := range env {
		t.Setenv(key, value)
	}

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var stdout, stderr bytes.Buffer
	err := run(ctx, args, &stdout, &stderr)
	return stdout.String(), err
}

// TestIntegration_WatchlistTable runs one aggregation pass against a fake
// Finnhub where one symbol fails.
func TestIntegration_WatchlistTable(t *testing.T) {
	server := newFinnhubServer(t)
	setupEnv(t, map[string]string{
		"FINNHUB_API_KEY":  "test_token",
		"FINNHUB_BASE_URL": server.URL,
		"SYMBOLS":          "AAPL,MSFT,SNAP",
	})

	out, err := runCLI(t)
	if err != nil {
		t.Fatalf("run() returned unexpected error: %v", err)
	}

	for _, want := range []string{"AAPL", "110", "▲ 9.09%", "50,000,000", "MSFT", "190", "▼ -5.26%", "3 symbols, 0 cached, 2 fetched, 1 failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "SNAP") {
		t.Errorf("failed symbol SNAP should be omitted:\n%s", out)
	}

	lines := strings.Split(out, "\n")
	if len(lines) < 3 || !strings.HasPrefix(lines[1], "AAPL") || !strings.HasPrefix(lines[2], "MSFT") {
		t.Errorf("rows not in watchlist order:\n%s", out)
	}

	if got := len(server.hits("/stock/candle")); got != 3 {
		t.Errorf("candle requests = %d, want 3 (one per symbol, no retries)", got)
	}
}

func TestIntegration_BoundedConcurrency(t *testing.T) {
	server := newFinnhubServer(t)
	setupEnv(t, map[string]string{
		"FINNHUB_API_KEY":  "test_token",
		"FINNHUB_BASE_URL": server.URL,
		"SYMBOLS":          "AAPL,MSFT,TSLA",
	})

	out, err := runCLI(t, "--max-concurrency=1", "--window-days=3")
	if err != nil {
		t.Fatalf("run() returned unexpected error: %v", err)
	}
	if !strings.Contains(out, "3 symbols, 0 cached, 3 fetched, 0 failed") {
		t.Errorf("unexpected stats:\n%s", out)
	}
}

func TestIntegration_Search(t *testing.T) {
	server := newFinnhubServer(t)
	setupEnv(t, map[string]string{
		"FINNHUB_API_KEY":     "test_token",
		"FINNHUB_BASE_URL":    server.URL,
		"SEARCH_QUIET_WINDOW": "20ms",
	})

	out, err := runCLI(t, "--search", "AAP", "--search", "AAPL")
	if err != nil {
		t.Fatalf("run() returned unexpected error: %v", err)
	}

	hits := server.hits("/search")
	if len(hits) != 1 || hits[0] != "AAPL" {
		t.Errorf("search requests = %v, want exactly one for AAPL", hits)
	}
	if !strings.Contains(out, `Results for "AAPL"`) || !strings.Contains(out, "APPLE INC") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestIntegration_SearchBlankQuery(t *testing.T) {
	server := newFinnhubServer(t)
	setupEnv(t, map[string]string{
		"FINNHUB_API_KEY":  "test_token",
		"FINNHUB_BASE_URL": server.URL,
	})

	if _, err := runCLI(t, "--search", "  "); err == nil {
		t.Error("run() expected error for blank search, got nil")
	}
	if hits := server.hits("/search"); len(hits) != 0 {
		t.Errorf("search requests = %v, want none", hits)
	}
}

func TestIntegration_SearchFailureShowsNoMatches(t *testing.T) {
	server := newFinnhubServer(t)
	setupEnv(t, map[string]string{
		"FINNHUB_API_KEY":     "wrong_token",
		"FINNHUB_BASE_URL":    server.URL,
		"SEARCH_QUIET_WINDOW": "1ms",
	})

	out, err := runCLI(t, "--search", "AAPL")
	if err != nil {
		t.Fatalf("run() returned unexpected error: %v", err)
	}
	if !strings.Contains(out, "no matches") {
		t.Errorf("output = %q, want empty results after a failed search", out)
	}
}

func TestIntegration_News(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantPath  string
		wantTitle string
	}{
		{"top stories", []string{"--news"}, "/news", "Top Stories"},
		{"company", []string{"--news=aapl"}, "/company-news", "AAPL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newFinnhubServer(t)
			setupEnv(t, map[string]string{
				"FINNHUB_API_KEY":  "test_token",
				"FINNHUB_BASE_URL": server.URL,
			})

			out, err := runCLI(t, tt.args...)
			if err != nil {
				t.Fatalf("run() returned unexpected error: %v", err)
			}
			if len(server.hits(tt.wantPath)) != 1 {
				t.Errorf("requests to %s = %d, want 1", tt.wantPath, len(server.hits(tt.wantPath)))
			}
			if !strings.HasPrefix(out, tt.wantTitle+"\n") || !strings.Contains(out, "Chip stocks rally") {
				t.Errorf("unexpected output:\n%s", out)
			}
		})
	}
}

func TestIntegration_Metrics(t *testing.T) {
	server := newFinnhubServer(t)
	setupEnv(t, map[string]string{
		"FINNHUB_API_KEY":  "test_token",
		"FINNHUB_BASE_URL": server.URL,
	})

	out, err := runCLI(t, "--metrics", "aapl")
	if err != nil {
		t.Fatalf("run() returned unexpected error: %v", err)
	}
	for _, want := range []string{"AAPL", "199.62", "143.9 (2023-03-15)", "12.5%", "61.2M", "1.29"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// TestIntegration_PersistentWatchlist checks that edits survive between runs
// and that the onboarding list is only seeded once.
func TestIntegration_PersistentWatchlist(t *testing.T) {
	server := newFinnhubServer(t)
	setupEnv(t, map[string]string{
		"FINNHUB_API_KEY":  "test_token",
		"FINNHUB_BASE_URL": server.URL,
		"SYMBOLS":          "AAPL",
		"WATCHLIST_DB":     filepath.Join(t.TempDir(), "watchlist.db"),
	})

	out, err := runCLI(t, "--add", "tsla=Tesla Inc")
	if err != nil {
		t.Fatalf("run(--add) returned unexpected error: %v", err)
	}
	if !strings.Contains(out, "AAPL") || !strings.Contains(out, "Tesla Inc") {
		t.Errorf("after add, output:\n%s", out)
	}

	out, err = runCLI(t, "--remove", "AAPL")
	if err != nil {
		t.Fatalf("run(--remove) returned unexpected error: %v", err)
	}
	if strings.Contains(out, "AAPL") {
		t.Errorf("removed symbol still listed:\n%s", out)
	}
	if !strings.Contains(out, "TSLA") || !strings.Contains(out, "1 symbols") {
		t.Errorf("after remove, output:\n%s", out)
	}
}

func TestIntegration_AlphaVantageProvider(t *testing.T) {
	latest := time.Now().UTC().AddDate(0, 0, -2).Format("2006-01-02")
	prior := time.Now().UTC().AddDate(0, 0, -3).Format("2006-01-02")

	var calls sync.WaitGroup
	calls.Add(1)
	av := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer calls.Done()
		if r.URL.Query().Get("function") != "TIME_SERIES_DAILY" {
			t.Errorf("function = %q, want TIME_SERIES_DAILY", r.URL.Query().Get("function"))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"Time Series (Daily)": {
			%q: {"1. open": "99", "2. high": "101", "3. low": "98", "4. close": "100", "5. volume": "10"},
			%q: {"1. open": "100", "2. high": "126", "3. low": "99", "4. close": "125", "5. volume": "1234567"}
		}}`, prior, latest)
	}))
	defer av.Close()

	setupEnv(t, map[string]string{
		"PROVIDER":              "alphavantage",
		"ALPHAVANTAGE_API_KEY":  "test_key",
		"ALPHAVANTAGE_BASE_URL": av.URL,
		"SYMBOLS":               "IBM",
	})

	out, err := runCLI(t)
	if err != nil {
		t.Fatalf("run() returned unexpected error: %v", err)
	}
	calls.Wait()

	for _, want := range []string{"IBM", "125", "▲ 20%", "1,234,567"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestIntegration_MissingConfiguration(t *testing.T) {
	setupEnv(t, nil)

	_, err := runCLI(t)
	if err == nil || !strings.Contains(err.Error(), "FINNHUB_API_KEY") {
		t.Errorf("run() error = %v, want missing FINNHUB_API_KEY", err)
	}
}
