package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"trade-signal/internal/cache"
	"trade-signal/internal/domain"
	"trade-signal/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func writeFlatBars(t *testing.T, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("time,open,high,low,close,volume\n")
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%s,100,101,99,100,1000\n", start.AddDate(0, 0, i).Format("2006-01-02"))
	}
	path := filepath.Join(t.TempDir(), "bars.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write bars: %v", err)
	}
	return path
}

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	orig := stdout
	stdout = buf
	t.Cleanup(func() { stdout = orig })
	return buf
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"--symbol", "aapl", "--interval", "1H", "bars.csv"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.file != "bars.csv" || opts.symbol != "AAPL" || opts.interval != "1h" {
		t.Fatalf("unexpected options: %+v", opts)
	}

	if _, err := parseOptions(nil); err == nil {
		t.Fatal("expected missing file error")
	}
	if _, err := parseOptions([]string{"--file", "x.csv", "--interval", "3d"}); err == nil {
		t.Fatal("expected unsupported interval error")
	}
	if _, err := parseOptions([]string{"--file", "x.csv", "--symbol", "$$"}); err == nil {
		t.Fatal("expected invalid symbol error")
	}
}

func TestReadCandles(t *testing.T) {
	input := "time,open,high,low,close,volume\n" +
		"2024-01-02,10,11,9,10.5,100\n" +
		"1704240000,10.5,12,10,11,200\n"
	candles, err := readCandles(strings.NewReader(input), "SPY", "1d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	if candles[0].Symbol != "SPY" || candles[0].Interval != "1d" || candles[0].Close != 10.5 {
		t.Fatalf("unexpected first candle: %+v", candles[0])
	}
	if !candles[1].OpenTime.Equal(time.Unix(1704240000, 0)) || candles[1].Volume != 200 {
		t.Fatalf("unexpected second candle: %+v", candles[1])
	}
}

func TestReadCandlesErrors(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"header only":  "time,open,high,low,close,volume\n",
		"short row":    "2024-01-02,1,2,3\n",
		"bad number":   "2024-01-02,1,2,x,1,1\n",
		"bad time row": "2024-01-02,1,2,1,1,1\nyesterday,1,2,1,1,1\n",
	}
	for name, input := range cases {
		if _, err := readCandles(strings.NewReader(input), "SPY", "1d"); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestRunPrintsPlainReport(t *testing.T) {
	out := captureStdout(t)
	path := writeFlatBars(t, 200)

	err := run(context.Background(), options{file: path, symbol: "ADHOC", interval: "1d", plain: true}, func(string) string { return "" })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report := out.String()
	for _, want := range []string{
		"ADHOC 1d  SELL  confidence 10%",
		"200 bars, last bar 2023-07-20T00:00:00Z",
		"volatility_context",
		"entry 99.00 - 101.00  stop 97.00  targets 102.00 / 104.00 / 106.00",
	} {
		if !strings.Contains(report, want) {
			t.Fatalf("expected %q in report:\n%s", want, report)
		}
	}
}

func TestRunShortHistoryReport(t *testing.T) {
	out := captureStdout(t)
	path := writeFlatBars(t, 50)

	if err := run(context.Background(), options{file: path, symbol: "ADHOC", interval: "1d", plain: true}, func(string) string { return "" }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "HOLD  confidence 0%") || !strings.Contains(out.String(), "not enough history") {
		t.Fatalf("unexpected report:\n%s", out.String())
	}
}

func TestRunStoreRequiresDSN(t *testing.T) {
	captureStdout(t)
	path := writeFlatBars(t, 10)

	err := run(context.Background(), options{file: path, symbol: "ADHOC", interval: "1d", store: true}, func(string) string { return "" })
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL is required") {
		t.Fatalf("expected missing DSN error, got %v", err)
	}
}

func TestRunStoreConnectError(t *testing.T) {
	captureStdout(t)
	path := writeFlatBars(t, 10)

	orig := openPool
	openPool = func(context.Context, string) (repository.PgxPool, func(), error) {
		return nil, nil, errors.New("connection refused")
	}
	defer func() { openPool = orig }()

	getenv := func(key string) string {
		if key == "DATABASE_URL" {
			return "postgres://localhost/signals"
		}
		return ""
	}
	err := run(context.Background(), options{file: path, symbol: "ADHOC", interval: "1d", store: true}, getenv)
	if err == nil || !strings.Contains(err.Error(), "connect postgres") {
		t.Fatalf("expected connect error, got %v", err)
	}
}

func TestRenderReportStyled(t *testing.T) {
	report := renderReport(domain.Evaluation{
		Symbol: "AAPL", Interval: "1d", Bars: 10,
		Result: domain.SignalResult{Rating: domain.RatingHold},
	}, true)
	if !strings.Contains(report, "AAPL") || !strings.Contains(report, "HOLD") {
		t.Fatalf("unexpected styled report:\n%s", report)
	}
}

func TestRunStoreIngestsAndDropsCachedEvaluation(t *testing.T) {
	captureStdout(t)
	path := writeFlatBars(t, 10)

	pool := &storePool{}
	stubStore(t, pool)
	mr := miniredis.RunT(t)
	if err := mr.Set(cache.Key("ADHOC", "1d"), "{}"); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	getenv := func(key string) string {
		switch key {
		case "DATABASE_URL":
			return "postgres://localhost/signals"
		case "REDIS_URL":
			return mr.Addr()
		}
		return ""
	}
	if err := run(context.Background(), options{file: path, symbol: "ADHOC", interval: "1d", store: true, plain: true}, getenv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.queued != 10 {
		t.Fatalf("expected 10 upserts, got %d", pool.queued)
	}
	if mr.Exists(cache.Key("ADHOC", "1d")) {
		t.Fatal("expected cached evaluation to be dropped")
	}
}

func TestRunStoreRejectsMalformedBars(t *testing.T) {
	out := captureStdout(t)
	csv := "time,open,high,low,close,volume\n" +
		"2024-01-02,100,101,99,100,1000\n" +
		"2024-01-01,100,101,99,100,1000\n" +
		"2024-01-03,100,99,98,100,1000\n"
	path := filepath.Join(t.TempDir(), "bars.csv")
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatalf("write bars: %v", err)
	}

	pool := &storePool{}
	stubStore(t, pool)
	getenv := func(key string) string {
		if key == "DATABASE_URL" {
			return "postgres://localhost/signals"
		}
		return ""
	}
	err := run(context.Background(), options{file: path, symbol: "ADHOC", interval: "1d", store: true}, getenv)
	if err == nil || !strings.Contains(err.Error(), "invalid candles") {
		t.Fatalf("expected validation error, got %v", err)
	}
	if pool.queued != 0 {
		t.Fatalf("malformed bars must not be stored, got %d upserts", pool.queued)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no report on store failure, got:\n%s", out.String())
	}
}

func stubStore(t *testing.T, pool *storePool) {
	t.Helper()
	orig := openPool
	openPool = func(context.Context, string) (repository.PgxPool, func(), error) {
		return pool, func() {}, nil
	}
	t.Cleanup(func() { openPool = orig })
}

type storePool struct {
	migrations int
	queued     int
}

func (p *storePool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.migrations++
	return pgconn.CommandTag{}, nil
}

func (p *storePool) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	p.queued += b.Len()
	return storeBatchResults{}
}

func (p *storePool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (p *storePool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

type storeBatchResults struct{}

func (storeBatchResults) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, nil }
func (storeBatchResults) Query() (pgx.Rows, error)         { return nil, errors.New("not implemented") }
func (storeBatchResults) QueryRow() pgx.Row                { return nil }
func (storeBatchResults) Close() error                     { return nil }
