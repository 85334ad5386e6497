package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"trade-signal/internal/cache"
	"trade-signal/internal/domain"
	"trade-signal/internal/indicator"
	"trade-signal/internal/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	defaultLookback    = 250
	defaultConcurrency = 4
	defaultInterval    = "1d"
	defaultListLimit   = 50
)

var (
	ErrInvalidSymbol       = errors.New("invalid symbol")
	ErrUnsupportedInterval = errors.New("unsupported interval")
	ErrInvalidCandles      = errors.New("invalid candles")
	ErrNotEnoughBars       = errors.New("not enough bars")
	ErrChartUnavailable    = errors.New("chart rendering not configured")
)

type CandleRepository interface {
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error)
	UpsertCandles(ctx context.Context, candles []domain.Candle) error
}

type EvaluationRepository interface {
	InsertEvaluation(ctx context.Context, e domain.Evaluation) (domain.Evaluation, error)
	ListEvaluations(ctx context.Context, filter domain.EvaluationFilter) ([]domain.Evaluation, error)
}

type EvaluationCache interface {
	Get(ctx context.Context, symbol, interval string) (domain.Evaluation, error)
	Set(ctx context.Context, eval domain.Evaluation) error
	Invalidate(ctx context.Context, symbol, interval string) error
}

type SignalEngine interface {
	Evaluate(candles []domain.Candle) domain.SignalResult
}

type ChartRenderer interface {
	RenderEvaluationChart(candles []domain.Candle, result domain.SignalResult) ([]byte, error)
}

type Settings struct {
	Lookback    int
	Watchlist   []string
	Interval    string
	Concurrency int
}

// ScreenResult is one pass over the watchlist. Stats cover every symbol that
// evaluated; Evaluations holds only those matching Filter.
type ScreenResult struct {
	Interval    string              `json:"interval"`
	Filter      domain.ScreenFilter `json:"filter"`
	Stats       domain.ScreenStats  `json:"stats"`
	Evaluations []domain.Evaluation `json:"evaluations"`
	Failed      []string            `json:"failed,omitempty"`
}

type IndicatorReport struct {
	Symbol   string            `json:"symbol"`
	Interval string            `json:"interval"`
	Candles  []domain.Candle   `json:"candles"`
	Overlay  indicator.Overlay `json:"overlay"`
}

type SignalService struct {
	tracer      trace.Tracer
	candles     CandleRepository
	evaluations EvaluationRepository
	cache       EvaluationCache
	engine      SignalEngine
	metrics     *metrics.Metrics
	charts      ChartRenderer
	settings    Settings
}

func NewSignalService(
	tracer trace.Tracer,
	candles CandleRepository,
	evaluations EvaluationRepository,
	engine SignalEngine,
	settings Settings,
) *SignalService {
	if settings.Lookback <= 0 {
		settings.Lookback = defaultLookback
	}
	if settings.Concurrency <= 0 {
		settings.Concurrency = defaultConcurrency
	}
	if settings.Interval == "" {
		settings.Interval = defaultInterval
	}
	return &SignalService{
		tracer:      tracer,
		candles:     candles,
		evaluations: evaluations,
		engine:      engine,
		settings:    settings,
	}
}

// WithCache enables the read-through evaluation cache.
func (s *SignalService) WithCache(c EvaluationCache) *SignalService {
	s.cache = c
	return s
}

func (s *SignalService) WithMetrics(m *metrics.Metrics) *SignalService {
	s.metrics = m
	return s
}

func (s *SignalService) WithChartRenderer(r ChartRenderer) *SignalService {
	s.charts = r
	return s
}

func (s *SignalService) Watchlist() []string {
	return append([]string(nil), s.settings.Watchlist...)
}

func (s *SignalService) DefaultInterval() string {
	return s.settings.Interval
}

// Evaluate scores the latest stored bar for symbol. A fresh cached evaluation
// is returned as is; otherwise the result is persisted and cached. Short
// history results are neither.
func (s *SignalService) Evaluate(ctx context.Context, symbol, interval string) (domain.Evaluation, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.evaluate")
	defer span.End()

	if s.candles == nil || s.engine == nil {
		return domain.Evaluation{}, fmt.Errorf("signal service is not fully initialized")
	}

	symbol, interval, err := s.normalize(symbol, interval)
	if err != nil {
		return domain.Evaluation{}, err
	}
	span.SetAttributes(attribute.String("symbol", symbol), attribute.String("interval", interval))

	if eval, ok := s.cached(ctx, symbol, interval); ok {
		return eval, nil
	}

	started := time.Now()
	candles, err := s.candles.GetCandles(ctx, symbol, interval, s.settings.Lookback)
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("get candles for %s %s: %w", symbol, interval, err)
	}

	eval := s.evaluate(symbol, interval, candles)
	s.metrics.ObserveEvaluation(eval.Result, time.Since(started))

	if eval.Result.Levels.Computed && s.evaluations != nil {
		stored, err := s.evaluations.InsertEvaluation(ctx, eval)
		if err != nil {
			return domain.Evaluation{}, fmt.Errorf("insert evaluation: %w", err)
		}
		eval = stored
	}

	if eval.Result.Levels.Computed && s.cache != nil {
		if err := s.cache.Set(ctx, eval); err != nil {
			log.Printf("signal cache set error for %s %s: %v", symbol, interval, err)
		}
	}
	return eval, nil
}

// EvaluateCandles scores caller-supplied bars without touching storage.
func (s *SignalService) EvaluateCandles(ctx context.Context, symbol, interval string, candles []domain.Candle) (domain.Evaluation, error) {
	_, span := s.tracer.Start(ctx, "signal-service.evaluate-candles")
	defer span.End()

	if s.engine == nil {
		return domain.Evaluation{}, fmt.Errorf("signal service is not fully initialized")
	}
	if symbol == "" {
		symbol = "ADHOC"
	}
	symbol, interval, err := s.normalize(symbol, interval)
	if err != nil {
		return domain.Evaluation{}, err
	}
	if err := validateCandles(candles); err != nil {
		return domain.Evaluation{}, err
	}
	span.SetAttributes(attribute.Int("bars", len(candles)))

	started := time.Now()
	eval := s.evaluate(symbol, interval, candles)
	s.metrics.ObserveEvaluation(eval.Result, time.Since(started))
	return eval, nil
}

// ScreenWatchlist evaluates every watchlist symbol concurrently. A symbol that
// fails is reported in Failed and does not abort the screen.
func (s *SignalService) ScreenWatchlist(ctx context.Context, interval string, filter domain.ScreenFilter) (ScreenResult, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.screen-watchlist")
	defer span.End()

	if interval == "" {
		interval = s.settings.Interval
	}
	if !domain.IsSupportedInterval(interval) {
		return ScreenResult{}, fmt.Errorf("%w: %s", ErrUnsupportedInterval, interval)
	}
	if filter == "" {
		filter = domain.ScreenAll
	}

	symbols := s.settings.Watchlist
	results := make([]*domain.Evaluation, len(symbols))
	errs := make([]error, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.settings.Concurrency)
	for i, symbol := range symbols {
		g.Go(func() error {
			eval, err := s.Evaluate(gctx, symbol, interval)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = &eval
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ScreenResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return ScreenResult{}, err
	}

	out := ScreenResult{Interval: interval, Filter: filter, Evaluations: []domain.Evaluation{}}
	all := make([]domain.Evaluation, 0, len(symbols))
	for i, eval := range results {
		if eval == nil {
			log.Printf("watchlist screen: %s %s failed: %v", symbols[i], interval, errs[i])
			out.Failed = append(out.Failed, symbols[i])
			continue
		}
		all = append(all, *eval)
		if filter.Match(*eval) {
			out.Evaluations = append(out.Evaluations, *eval)
		}
	}
	out.Stats = domain.NewScreenStats(all)
	span.SetAttributes(attribute.Int("evaluated", len(all)), attribute.Int("failed", len(out.Failed)))
	return out, nil
}

func (s *SignalService) ListEvaluations(ctx context.Context, filter domain.EvaluationFilter) ([]domain.Evaluation, error) {
	_, span := s.tracer.Start(ctx, "signal-service.list-evaluations")
	defer span.End()

	if s.evaluations == nil {
		return nil, fmt.Errorf("signal service is not fully initialized")
	}

	if filter.Symbol != "" {
		symbol, ok := domain.NormalizeSymbol(filter.Symbol)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSymbol, filter.Symbol)
		}
		filter.Symbol = symbol
	}
	if filter.Interval != "" && !domain.IsSupportedInterval(filter.Interval) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedInterval, filter.Interval)
	}
	if filter.Rating != "" {
		filter.Rating = domain.Rating(strings.ToUpper(string(filter.Rating)))
		if !filter.Rating.IsValid() {
			return nil, fmt.Errorf("invalid rating: %s", filter.Rating)
		}
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}

	return s.evaluations.ListEvaluations(ctx, filter)
}

// Indicators computes the chart overlay over the stored lookback window.
func (s *SignalService) Indicators(ctx context.Context, symbol, interval string, cfg indicator.OverlayConfig) (IndicatorReport, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.indicators")
	defer span.End()

	if s.candles == nil {
		return IndicatorReport{}, fmt.Errorf("signal service is not fully initialized")
	}
	symbol, interval, err := s.normalize(symbol, interval)
	if err != nil {
		return IndicatorReport{}, err
	}
	if err := cfg.Validate(); err != nil {
		return IndicatorReport{}, err
	}

	candles, err := s.candles.GetCandles(ctx, symbol, interval, s.settings.Lookback)
	if err != nil {
		return IndicatorReport{}, fmt.Errorf("get candles for %s %s: %w", symbol, interval, err)
	}
	if candles == nil {
		candles = []domain.Candle{}
	}
	return IndicatorReport{
		Symbol:   symbol,
		Interval: interval,
		Candles:  candles,
		Overlay:  indicator.ComputeOverlay(candles, cfg),
	}, nil
}

// Chart renders the stored lookback window as a PNG together with the
// evaluation of its latest bar. The evaluation is neither cached nor persisted.
func (s *SignalService) Chart(ctx context.Context, symbol, interval string) ([]byte, domain.Evaluation, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.chart")
	defer span.End()

	if s.candles == nil || s.engine == nil {
		return nil, domain.Evaluation{}, fmt.Errorf("signal service is not fully initialized")
	}
	if s.charts == nil {
		return nil, domain.Evaluation{}, ErrChartUnavailable
	}
	symbol, interval, err := s.normalize(symbol, interval)
	if err != nil {
		return nil, domain.Evaluation{}, err
	}

	candles, err := s.candles.GetCandles(ctx, symbol, interval, s.settings.Lookback)
	if err != nil {
		return nil, domain.Evaluation{}, fmt.Errorf("get candles for %s %s: %w", symbol, interval, err)
	}
	if len(candles) < 2 {
		return nil, domain.Evaluation{}, fmt.Errorf("%w: %s %s has %d", ErrNotEnoughBars, symbol, interval, len(candles))
	}

	eval := s.evaluate(symbol, interval, candles)
	png, err := s.charts.RenderEvaluationChart(candles, eval.Result)
	if err != nil {
		return nil, domain.Evaluation{}, fmt.Errorf("render chart: %w", err)
	}
	span.SetAttributes(attribute.Int("bytes", len(png)))
	return png, eval, nil
}

// IngestCandles stores bars for symbol and drops its cached evaluation.
func (s *SignalService) IngestCandles(ctx context.Context, symbol, interval string, candles []domain.Candle) (int, error) {
	ctx, span := s.tracer.Start(ctx, "signal-service.ingest-candles")
	defer span.End()

	if s.candles == nil {
		return 0, fmt.Errorf("signal service is not fully initialized")
	}
	symbol, interval, err := s.normalize(symbol, interval)
	if err != nil {
		return 0, err
	}
	if len(candles) == 0 {
		return 0, nil
	}
	if err := validateCandles(candles); err != nil {
		return 0, err
	}

	bars := make([]domain.Candle, len(candles))
	for i, c := range candles {
		c.Symbol = symbol
		c.Interval = interval
		c.OpenTime = c.OpenTime.UTC()
		bars[i] = c
	}
	if err := s.candles.UpsertCandles(ctx, bars); err != nil {
		return 0, fmt.Errorf("upsert candles: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, symbol, interval); err != nil {
			log.Printf("signal cache invalidate error for %s %s: %v", symbol, interval, err)
		}
	}
	return len(bars), nil
}

func (s *SignalService) evaluate(symbol, interval string, candles []domain.Candle) domain.Evaluation {
	eval := domain.Evaluation{
		Symbol:   symbol,
		Interval: interval,
		Bars:     len(candles),
		Result:   s.engine.Evaluate(candles),
	}
	if len(candles) > 0 {
		eval.BarTime = candles[len(candles)-1].OpenTime.UTC()
	}
	return eval
}

func (s *SignalService) cached(ctx context.Context, symbol, interval string) (domain.Evaluation, bool) {
	if s.cache == nil {
		return domain.Evaluation{}, false
	}
	eval, err := s.cache.Get(ctx, symbol, interval)
	switch {
	case err == nil:
		s.metrics.CacheHit()
		return eval, true
	case errors.Is(err, cache.ErrMiss):
		s.metrics.CacheMiss()
	default:
		s.metrics.CacheError()
		log.Printf("signal cache get error for %s %s: %v", symbol, interval, err)
	}
	return domain.Evaluation{}, false
}

func (s *SignalService) normalize(symbol, interval string) (string, string, error) {
	normalized, ok := domain.NormalizeSymbol(symbol)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	interval = strings.TrimSpace(interval)
	if interval == "" {
		interval = s.settings.Interval
	}
	if !domain.IsSupportedInterval(interval) {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedInterval, interval)
	}
	return normalized, interval, nil
}

// validateCandles enforces the upstream contract at the service boundary:
// strictly increasing open times, finite prices and a high/low envelope.
func validateCandles(candles []domain.Candle) error {
	for i, c := range candles {
		for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite value at bar %d", ErrInvalidCandles, i)
			}
		}
		if c.Volume < 0 {
			return fmt.Errorf("%w: negative volume at bar %d", ErrInvalidCandles, i)
		}
		if c.High < math.Max(c.Open, c.Close) || c.Low > math.Min(c.Open, c.Close) {
			return fmt.Errorf("%w: high/low do not bound open/close at bar %d", ErrInvalidCandles, i)
		}
		if i > 0 && !c.OpenTime.After(candles[i-1].OpenTime) {
			return fmt.Errorf("%w: open times must strictly increase (bar %d)", ErrInvalidCandles, i)
		}
	}
	return nil
}
