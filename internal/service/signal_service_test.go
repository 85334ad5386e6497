package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"trade-signal/internal/cache"
	"trade-signal/internal/domain"
	"trade-signal/internal/indicator"
	"trade-signal/internal/metrics"
	"trade-signal/internal/signal"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

func risingCandles(symbol string, n int, step float64) []domain.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.Candle, n)
	for i := range out {
		c := 100 * math.Pow(1+step, float64(i))
		out[i] = domain.Candle{
			Symbol:   symbol,
			Interval: "1d",
			OpenTime: base.AddDate(0, 0, i),
			Open:     c,
			High:     c * 1.01,
			Low:      c * 0.99,
			Close:    c,
			Volume:   1000,
		}
	}
	return out
}

func TestEvaluateRejectsBadInput(t *testing.T) {
	svc := NewSignalService(testTracer(), &stubCandleRepo{}, &stubEvaluationRepo{}, &stubEngine{}, Settings{})

	if _, err := svc.Evaluate(context.Background(), "$$", "1d"); !errors.Is(err, ErrInvalidSymbol) {
		t.Fatalf("expected invalid symbol, got %v", err)
	}
	if _, err := svc.Evaluate(context.Background(), "AAPL", "3m"); !errors.Is(err, ErrUnsupportedInterval) {
		t.Fatalf("expected unsupported interval, got %v", err)
	}
}

func TestEvaluateNotInitialized(t *testing.T) {
	svc := NewSignalService(testTracer(), nil, nil, nil, Settings{})
	if _, err := svc.Evaluate(context.Background(), "AAPL", "1d"); err == nil {
		t.Fatal("expected initialization error")
	}
}

func TestEvaluatePersistsAndUsesDefaults(t *testing.T) {
	candles := &stubCandleRepo{candles: map[string][]domain.Candle{"AAPL": risingCandles("AAPL", 250, 0.003)}}
	evals := &stubEvaluationRepo{}
	engine := &stubEngine{result: domain.SignalResult{Rating: domain.RatingBuy, Confidence: 70, Levels: domain.Levels{Computed: true}}}
	svc := NewSignalService(testTracer(), candles, evals, engine, Settings{Lookback: 300})

	eval, err := svc.Evaluate(context.Background(), " aapl ", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if candles.lastSymbol != "AAPL" || candles.lastInterval != "1d" || candles.lastLimit != 300 {
		t.Fatalf("unexpected candle query: %s %s %d", candles.lastSymbol, candles.lastInterval, candles.lastLimit)
	}
	if eval.ID != 1 || eval.Bars != 250 || eval.Result.Rating != domain.RatingBuy {
		t.Fatalf("unexpected evaluation: %+v", eval)
	}
	if want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 249); !eval.BarTime.Equal(want) {
		t.Fatalf("expected bar time %s, got %s", want, eval.BarTime)
	}
	if len(evals.inserted) != 1 {
		t.Fatalf("expected one insert, got %d", len(evals.inserted))
	}
}

func TestEvaluateShortHistoryIsNotPersisted(t *testing.T) {
	candles := &stubCandleRepo{candles: map[string][]domain.Candle{"AAPL": risingCandles("AAPL", 10, 0.01)}}
	evals := &stubEvaluationRepo{}
	svc := NewSignalService(testTracer(), candles, evals, signal.NewEngine(nil), Settings{})

	eval, err := svc.Evaluate(context.Background(), "AAPL", "1d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.Result.Rating != domain.RatingHold || eval.Result.Confidence != 0 || eval.Result.Levels.Computed {
		t.Fatalf("expected neutral result, got %+v", eval.Result)
	}
	if len(evals.inserted) != 0 {
		t.Fatal("short history must not be persisted")
	}
}

func TestEvaluatePropagatesRepositoryErrors(t *testing.T) {
	boom := errors.New("db down")
	svc := NewSignalService(testTracer(), &stubCandleRepo{err: boom}, &stubEvaluationRepo{}, &stubEngine{}, Settings{})
	if _, err := svc.Evaluate(context.Background(), "AAPL", "1d"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped candle error, got %v", err)
	}

	candles := &stubCandleRepo{candles: map[string][]domain.Candle{"AAPL": risingCandles("AAPL", 250, 0.003)}}
	engine := &stubEngine{result: domain.SignalResult{Levels: domain.Levels{Computed: true}}}
	svc = NewSignalService(testTracer(), candles, &stubEvaluationRepo{err: boom}, engine, Settings{})
	if _, err := svc.Evaluate(context.Background(), "AAPL", "1d"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped insert error, got %v", err)
	}
}

func TestEvaluateReadsThroughRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	m := metrics.New(nil)
	candles := &stubCandleRepo{candles: map[string][]domain.Candle{"AAPL": risingCandles("AAPL", 250, 0.003)}}
	engine := &stubEngine{result: domain.SignalResult{Rating: domain.RatingHold, Confidence: 45, Levels: domain.Levels{Computed: true}}}
	svc := NewSignalService(testTracer(), candles, &stubEvaluationRepo{}, engine, Settings{}).
		WithCache(cache.NewEvaluationCache(client, time.Minute)).
		WithMetrics(m)

	for i := 0; i < 3; i++ {
		eval, err := svc.Evaluate(context.Background(), "AAPL", "1d")
		if err != nil {
			t.Fatalf("evaluate %d: %v", i, err)
		}
		if eval.Result.Confidence != 45 {
			t.Fatalf("unexpected confidence %d", eval.Result.Confidence)
		}
	}
	if engine.calls != 1 || candles.calls != 1 {
		t.Fatalf("expected one evaluation behind the cache, got engine=%d candles=%d", engine.calls, candles.calls)
	}
	if hits := testutil.ToFloat64(m.CacheRequests.WithLabelValues("hit")); hits != 2 {
		t.Fatalf("expected 2 cache hits, got %f", hits)
	}
	if !mr.Exists(cache.Key("AAPL", "1d")) {
		t.Fatal("expected evaluation to be cached")
	}
}

func TestEvaluateShortHistoryIsNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	candles := &stubCandleRepo{candles: map[string][]domain.Candle{"AAPL": risingCandles("AAPL", 150, 0.003)}}
	svc := NewSignalService(testTracer(), candles, &stubEvaluationRepo{}, signal.NewEngine(nil), Settings{}).
		WithCache(cache.NewEvaluationCache(client, time.Minute))

	for i := 0; i < 2; i++ {
		eval, err := svc.Evaluate(context.Background(), "AAPL", "1d")
		if err != nil {
			t.Fatalf("evaluate %d: %v", i, err)
		}
		if eval.Result.Levels.Computed {
			t.Fatalf("expected short history result, got %+v", eval.Result)
		}
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("short history must not be cached, found %v", keys)
	}
	if candles.calls != 2 {
		t.Fatalf("expected every call to read candles, got %d", candles.calls)
	}
}

func TestEvaluateFallsBackWhenCacheFails(t *testing.T) {
	candles := &stubCandleRepo{candles: map[string][]domain.Candle{"AAPL": risingCandles("AAPL", 250, 0.003)}}
	engine := &stubEngine{result: domain.SignalResult{Rating: domain.RatingSell, Levels: domain.Levels{Computed: true}}}
	svc := NewSignalService(testTracer(), candles, &stubEvaluationRepo{}, engine, Settings{}).
		WithCache(&stubCache{getErr: errors.New("timeout"), setErr: errors.New("timeout")})

	eval, err := svc.Evaluate(context.Background(), "AAPL", "1d")
	if err != nil {
		t.Fatalf("cache errors must not fail evaluation: %v", err)
	}
	if eval.Result.Rating != domain.RatingSell || engine.calls != 1 {
		t.Fatalf("expected fresh evaluation, got %+v", eval)
	}
}

func TestEvaluateCandlesValidatesInput(t *testing.T) {
	svc := NewSignalService(testTracer(), nil, nil, signal.NewEngine(nil), Settings{})

	good := risingCandles("", 250, 0.003)
	eval, err := svc.EvaluateCandles(context.Background(), "", "", good)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.Symbol != "ADHOC" || eval.Interval != "1d" || eval.Result.Rating != domain.RatingBuy {
		t.Fatalf("unexpected evaluation: %+v", eval)
	}

	unordered := risingCandles("", 5, 0.01)
	unordered[3].OpenTime = unordered[1].OpenTime
	if _, err := svc.EvaluateCandles(context.Background(), "X", "1d", unordered); !errors.Is(err, ErrInvalidCandles) {
		t.Fatalf("expected invalid candles for unordered input, got %v", err)
	}

	nan := risingCandles("", 5, 0.01)
	nan[2].Close = math.NaN()
	if _, err := svc.EvaluateCandles(context.Background(), "X", "1d", nan); !errors.Is(err, ErrInvalidCandles) {
		t.Fatalf("expected invalid candles for NaN input, got %v", err)
	}

	inverted := risingCandles("", 5, 0.01)
	inverted[4].High = inverted[4].Low - 1
	if _, err := svc.EvaluateCandles(context.Background(), "X", "1d", inverted); !errors.Is(err, ErrInvalidCandles) {
		t.Fatalf("expected invalid candles for bad envelope, got %v", err)
	}
}

func TestScreenWatchlistFiltersAndCountsFailures(t *testing.T) {
	candles := &stubCandleRepo{
		candles: map[string][]domain.Candle{
			"AAPL": risingCandles("AAPL", 250, 0.003),
			"TSLA": risingCandles("TSLA", 250, -0.003),
			"MSFT": risingCandles("MSFT", 120, 0.003),
		},
		errFor: map[string]error{"NVDA": errors.New("no data")},
	}
	svc := NewSignalService(testTracer(), candles, &stubEvaluationRepo{}, signal.NewEngine(nil), Settings{
		Watchlist:   []string{"AAPL", "TSLA", "MSFT", "NVDA"},
		Concurrency: 2,
	})

	res, err := svc.ScreenWatchlist(context.Background(), "", domain.ScreenBullish)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stats.Total != 3 || res.Stats.Bullish != 1 || res.Stats.Bearish != 1 {
		t.Fatalf("unexpected stats: %+v", res.Stats)
	}
	if len(res.Evaluations) != 1 || res.Evaluations[0].Symbol != "AAPL" {
		t.Fatalf("expected only AAPL in bullish view, got %+v", res.Evaluations)
	}
	if len(res.Failed) != 1 || res.Failed[0] != "NVDA" {
		t.Fatalf("expected NVDA to fail, got %v", res.Failed)
	}

	all, err := svc.ScreenWatchlist(context.Background(), "1d", domain.ScreenAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all.Evaluations) != 3 || all.Evaluations[0].Symbol != "AAPL" || all.Evaluations[2].Symbol != "MSFT" {
		t.Fatalf("expected watchlist order preserved, got %+v", all.Evaluations)
	}

	if _, err := svc.ScreenWatchlist(context.Background(), "2h", domain.ScreenAll); !errors.Is(err, ErrUnsupportedInterval) {
		t.Fatalf("expected unsupported interval, got %v", err)
	}
}

func TestListEvaluationsNormalizesFilter(t *testing.T) {
	evals := &stubEvaluationRepo{}
	svc := NewSignalService(testTracer(), nil, evals, nil, Settings{})

	if _, err := svc.ListEvaluations(context.Background(), domain.EvaluationFilter{Rating: "maybe"}); err == nil {
		t.Fatal("expected invalid rating error")
	}
	if _, err := svc.ListEvaluations(context.Background(), domain.EvaluationFilter{Interval: "7m"}); !errors.Is(err, ErrUnsupportedInterval) {
		t.Fatalf("expected unsupported interval, got %v", err)
	}

	if _, err := svc.ListEvaluations(context.Background(), domain.EvaluationFilter{Symbol: "aapl", Rating: "buy"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evals.lastFilter.Symbol != "AAPL" || evals.lastFilter.Rating != domain.RatingBuy || evals.lastFilter.Limit != 50 {
		t.Fatalf("unexpected normalized filter: %+v", evals.lastFilter)
	}
}

func TestIndicatorsComputesOverlay(t *testing.T) {
	candles := &stubCandleRepo{candles: map[string][]domain.Candle{"SPY": risingCandles("SPY", 60, 0.01)}}
	svc := NewSignalService(testTracer(), candles, nil, nil, Settings{})

	report, err := svc.Indicators(context.Background(), "spy", "1d", indicator.DefaultOverlayConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Candles) != 60 || len(report.Overlay.SMA["20"]) != 60 || len(report.Overlay.VWAP) != 60 {
		t.Fatalf("expected aligned overlay, got %+v", report.Overlay)
	}
	if _, ok := report.Overlay.SMA["200"].At(59); ok {
		t.Fatal("expected SMA200 undefined on 60 bars")
	}

	bad := indicator.DefaultOverlayConfig()
	bad.RSI = 0
	if _, err := svc.Indicators(context.Background(), "SPY", "1d", bad); err == nil {
		t.Fatal("expected invalid overlay config error")
	}
}

func TestIngestCandlesNormalizesAndInvalidates(t *testing.T) {
	candles := &stubCandleRepo{}
	c := &stubCache{}
	svc := NewSignalService(testTracer(), candles, nil, nil, Settings{}).WithCache(c)

	bars := risingCandles("", 3, 0.01)
	n, err := svc.IngestCandles(context.Background(), "msft", "1h", bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 || len(candles.upserted) != 3 {
		t.Fatalf("expected 3 upserted, got n=%d stored=%d", n, len(candles.upserted))
	}
	for _, b := range candles.upserted {
		if b.Symbol != "MSFT" || b.Interval != "1h" {
			t.Fatalf("expected symbol/interval stamped, got %+v", b)
		}
	}
	if c.invalidated != "MSFT:1h" {
		t.Fatalf("expected cache invalidation, got %q", c.invalidated)
	}

	if n, err := svc.IngestCandles(context.Background(), "MSFT", "1h", nil); err != nil || n != 0 {
		t.Fatalf("expected empty ingest to be a no-op, got %d %v", n, err)
	}
}

func TestChartRendersWithoutPersisting(t *testing.T) {
	candles := &stubCandleRepo{candles: map[string][]domain.Candle{"AAPL": risingCandles("AAPL", 250, 0.003)}}
	evals := &stubEvaluationRepo{}
	engine := &stubEngine{result: domain.SignalResult{Rating: domain.RatingSell, Confidence: 55, Levels: domain.Levels{Computed: true}}}
	renderer := &stubRenderer{out: []byte("png")}
	svc := NewSignalService(testTracer(), candles, evals, engine, Settings{}).WithChartRenderer(renderer)

	data, eval, err := svc.Chart(context.Background(), "aapl", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "png" || eval.Result.Rating != domain.RatingSell {
		t.Fatalf("unexpected chart result: %q %+v", data, eval.Result)
	}
	if renderer.bars != 250 || renderer.rating != domain.RatingSell {
		t.Fatalf("renderer got %d bars rated %s", renderer.bars, renderer.rating)
	}
	if len(evals.inserted) != 0 {
		t.Fatal("chart evaluations must not be persisted")
	}
}

func TestChartErrors(t *testing.T) {
	full := &stubCandleRepo{candles: map[string][]domain.Candle{"AAPL": risingCandles("AAPL", 250, 0.003)}}

	svc := NewSignalService(testTracer(), full, &stubEvaluationRepo{}, &stubEngine{}, Settings{})
	if _, _, err := svc.Chart(context.Background(), "AAPL", "1d"); !errors.Is(err, ErrChartUnavailable) {
		t.Fatalf("expected chart unavailable, got %v", err)
	}

	short := &stubCandleRepo{candles: map[string][]domain.Candle{"AAPL": risingCandles("AAPL", 1, 0.003)}}
	svc = NewSignalService(testTracer(), short, &stubEvaluationRepo{}, &stubEngine{}, Settings{}).WithChartRenderer(&stubRenderer{})
	if _, _, err := svc.Chart(context.Background(), "AAPL", "1d"); !errors.Is(err, ErrNotEnoughBars) {
		t.Fatalf("expected not enough bars, got %v", err)
	}

	boom := errors.New("draw failed")
	svc = NewSignalService(testTracer(), full, &stubEvaluationRepo{}, &stubEngine{}, Settings{}).WithChartRenderer(&stubRenderer{err: boom})
	if _, _, err := svc.Chart(context.Background(), "AAPL", "1d"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped render error, got %v", err)
	}
}

type stubCandleRepo struct {
	mu           sync.Mutex
	candles      map[string][]domain.Candle
	errFor       map[string]error
	err          error
	upserted     []domain.Candle
	calls        int
	lastSymbol   string
	lastInterval string
	lastLimit    int
}

func (s *stubCandleRepo) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastSymbol, s.lastInterval, s.lastLimit = symbol, interval, limit
	if s.err != nil {
		return nil, s.err
	}
	if err := s.errFor[symbol]; err != nil {
		return nil, err
	}
	return s.candles[symbol], nil
}

func (s *stubCandleRepo) UpsertCandles(ctx context.Context, candles []domain.Candle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserted = append(s.upserted, candles...)
	return s.err
}

type stubEvaluationRepo struct {
	mu         sync.Mutex
	inserted   []domain.Evaluation
	lastFilter domain.EvaluationFilter
	err        error
}

func (s *stubEvaluationRepo) InsertEvaluation(ctx context.Context, e domain.Evaluation) (domain.Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return e, s.err
	}
	s.inserted = append(s.inserted, e)
	e.ID = int64(len(s.inserted))
	return e, nil
}

func (s *stubEvaluationRepo) ListEvaluations(ctx context.Context, filter domain.EvaluationFilter) ([]domain.Evaluation, error) {
	s.lastFilter = filter
	return s.inserted, s.err
}

type stubEngine struct {
	mu     sync.Mutex
	result domain.SignalResult
	calls  int
}

func (s *stubEngine) Evaluate(candles []domain.Candle) domain.SignalResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.result
}

type stubCache struct {
	getErr      error
	setErr      error
	invalidated string
}

func (s *stubCache) Get(ctx context.Context, symbol, interval string) (domain.Evaluation, error) {
	if s.getErr != nil {
		return domain.Evaluation{}, s.getErr
	}
	return domain.Evaluation{}, cache.ErrMiss
}

func (s *stubCache) Set(ctx context.Context, eval domain.Evaluation) error { return s.setErr }

func (s *stubCache) Invalidate(ctx context.Context, symbol, interval string) error {
	s.invalidated = fmt.Sprintf("%s:%s", symbol, interval)
	return nil
}

type stubRenderer struct {
	out    []byte
	err    error
	bars   int
	rating domain.Rating
}

func (s *stubRenderer) RenderEvaluationChart(candles []domain.Candle, result domain.SignalResult) ([]byte, error) {
	s.bars = len(candles)
	s.rating = result.Rating
	return s.out, s.err
}
