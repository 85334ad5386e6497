package mcp

import (
	"context"
	"fmt"

	"trade-signal/internal/domain"
	"trade-signal/internal/indicator"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *mcp.Server, signals SignalReader) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "signal_evaluate",
		Description: "Evaluate the BUY/SELL/HOLD rating, rule flags and trade levels for the latest bar of a symbol",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in signalEvaluateInput) (*mcp.CallToolResult, signalEvaluateOutput, error) {
		if signals == nil {
			return nil, signalEvaluateOutput{}, fmt.Errorf("signal service unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, signalEvaluateOutput{}, err
		}
		interval, err := normalizeInterval(in.Interval)
		if err != nil {
			return nil, signalEvaluateOutput{}, err
		}
		eval, err := signals.Evaluate(ctx, symbol, interval)
		if err != nil {
			return nil, signalEvaluateOutput{}, err
		}
		return nil, signalEvaluateOutput{Evaluation: newEvaluationView(eval)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "signals_history",
		Description: "List stored evaluations, newest first, with optional symbol/interval/rating filters",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in signalsHistoryInput) (*mcp.CallToolResult, signalsHistoryOutput, error) {
		if signals == nil {
			return nil, signalsHistoryOutput{}, fmt.Errorf("signal service unavailable")
		}
		filter, err := normalizeHistoryFilter(in)
		if err != nil {
			return nil, signalsHistoryOutput{}, err
		}
		evals, err := signals.ListEvaluations(ctx, filter)
		if err != nil {
			return nil, signalsHistoryOutput{}, err
		}
		return nil, signalsHistoryOutput{Evaluations: newEvaluationViews(evals)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "watchlist_screen",
		Description: "Evaluate every watchlist symbol and return the filtered ratings with aggregate stats",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in watchlistScreenInput) (*mcp.CallToolResult, watchlistScreenOutput, error) {
		if signals == nil {
			return nil, watchlistScreenOutput{}, fmt.Errorf("signal service unavailable")
		}
		interval, err := normalizeInterval(in.Interval)
		if err != nil {
			return nil, watchlistScreenOutput{}, err
		}
		filter, ok := domain.ParseScreenFilter(in.Filter)
		if !ok {
			return nil, watchlistScreenOutput{}, fmt.Errorf("unsupported filter: %s", in.Filter)
		}
		res, err := signals.ScreenWatchlist(ctx, interval, filter)
		if err != nil {
			return nil, watchlistScreenOutput{}, err
		}
		return nil, newScreenOutput(res), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "indicators_latest",
		Description: "Get the latest SMA/EMA/RSI/MACD/Bollinger/ATR/VWAP values for a symbol",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in indicatorsLatestInput) (*mcp.CallToolResult, indicatorsLatestOutput, error) {
		if signals == nil {
			return nil, indicatorsLatestOutput{}, fmt.Errorf("signal service unavailable")
		}
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return nil, indicatorsLatestOutput{}, err
		}
		interval, err := normalizeInterval(in.Interval)
		if err != nil {
			return nil, indicatorsLatestOutput{}, err
		}
		report, err := signals.Indicators(ctx, symbol, interval, indicator.DefaultOverlayConfig())
		if err != nil {
			return nil, indicatorsLatestOutput{}, err
		}
		return nil, newIndicatorsLatest(report), nil
	})
}
