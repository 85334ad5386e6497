package mcp

import (
	"context"

	"trade-signal/internal/domain"
	"trade-signal/internal/indicator"
	"trade-signal/internal/service"
)

// SignalReader exposes the evaluation operations served as tools and resources.
type SignalReader interface {
	Evaluate(ctx context.Context, symbol, interval string) (domain.Evaluation, error)
	ListEvaluations(ctx context.Context, filter domain.EvaluationFilter) ([]domain.Evaluation, error)
	ScreenWatchlist(ctx context.Context, interval string, filter domain.ScreenFilter) (service.ScreenResult, error)
	Indicators(ctx context.Context, symbol, interval string, cfg indicator.OverlayConfig) (service.IndicatorReport, error)
	Watchlist() []string
	DefaultInterval() string
}
