package mcp

import (
	"context"
	"encoding/json"
	"time"

	"trade-signal/internal/domain"
	"trade-signal/internal/indicator"
	"trade-signal/internal/service"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type stubSignalService struct {
	evaluation domain.Evaluation
	listed     []domain.Evaluation
	screen     service.ScreenResult
	candles    []domain.Candle
	watchlist  []string

	lastEvaluateSymbol   string
	lastEvaluateInterval string
	lastFilter           domain.EvaluationFilter
	lastScreenFilter     domain.ScreenFilter
}

func (s *stubSignalService) Evaluate(ctx context.Context, symbol, interval string) (domain.Evaluation, error) {
	s.lastEvaluateSymbol = symbol
	s.lastEvaluateInterval = interval
	return s.evaluation, nil
}

func (s *stubSignalService) ListEvaluations(ctx context.Context, filter domain.EvaluationFilter) ([]domain.Evaluation, error) {
	s.lastFilter = filter
	return append([]domain.Evaluation(nil), s.listed...), nil
}

func (s *stubSignalService) ScreenWatchlist(ctx context.Context, interval string, filter domain.ScreenFilter) (service.ScreenResult, error) {
	s.lastScreenFilter = filter
	res := s.screen
	res.Filter = filter
	return res, nil
}

func (s *stubSignalService) Indicators(ctx context.Context, symbol, interval string, cfg indicator.OverlayConfig) (service.IndicatorReport, error) {
	if interval == "" {
		interval = "1d"
	}
	return service.IndicatorReport{
		Symbol:   symbol,
		Interval: interval,
		Candles:  s.candles,
		Overlay:  indicator.ComputeOverlay(s.candles, cfg),
	}, nil
}

func (s *stubSignalService) Watchlist() []string {
	return append([]string(nil), s.watchlist...)
}

func (s *stubSignalService) DefaultInterval() string { return "1d" }

func sampleEvaluation() domain.Evaluation {
	return domain.Evaluation{
		ID:       1,
		Symbol:   "AAPL",
		Interval: "1d",
		BarTime:  time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Bars:     250,
		Result: domain.SignalResult{
			Rating:     domain.RatingBuy,
			Confidence: 60,
			Flags: []domain.RuleFlag{
				{ID: domain.RuleTrendFilter, Passed: true, Weight: 0.25, Note: "close above SMA200"},
			},
			Levels: domain.Levels{
				Computed:   true,
				Entry:      [2]float64{99, 101},
				Stop:       97,
				TakeProfit: [3]float64{102, 104, 106},
			},
			Timestamp: time.Date(2024, 6, 3, 21, 0, 0, 0, time.UTC),
		},
	}
}

func flatCandles(n int) []domain.Candle {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]domain.Candle, n)
	for i := range out {
		out[i] = domain.Candle{
			OpenTime: start.AddDate(0, 0, i),
			Open:     100, High: 101, Low: 99, Close: 100, Volume: 1000,
		}
	}
	return out
}

func testServer() (*sdkmcp.Server, *stubSignalService) {
	signals := &stubSignalService{
		evaluation: sampleEvaluation(),
		listed:     []domain.Evaluation{sampleEvaluation()},
		screen: service.ScreenResult{
			Interval:    "1d",
			Stats:       domain.ScreenStats{Total: 2, Bullish: 1},
			Evaluations: []domain.Evaluation{sampleEvaluation()},
			Failed:      []string{"NVDA"},
		},
		candles:   flatCandles(60),
		watchlist: []string{"AAPL", "NVDA"},
	}

	srv := NewServer(nil, signals, ServerConfig{RequestTimeout: time.Second})
	return srv, signals
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

func decodeStructured(result *sdkmcp.CallToolResult, out any) error {
	body, err := json.Marshal(result.StructuredContent)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}
