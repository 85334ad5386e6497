package mcp

import (
	"fmt"
	"math"
	"strings"
	"time"

	"trade-signal/internal/domain"
	"trade-signal/internal/indicator"
	"trade-signal/internal/service"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type signalEvaluateInput struct {
	Symbol   string `json:"symbol" jsonschema:"instrument symbol (e.g. AAPL, BRK.B)"`
	Interval string `json:"interval,omitempty" jsonschema:"bar interval: 5m, 15m, 1h, 4h, 1d, 1w; defaults to the watchlist interval"`
}

type signalEvaluateOutput struct {
	Evaluation evaluationView `json:"evaluation"`
}

type signalsHistoryInput struct {
	Symbol   string `json:"symbol,omitempty" jsonschema:"optional instrument symbol"`
	Interval string `json:"interval,omitempty" jsonschema:"optional bar interval"`
	Rating   string `json:"rating,omitempty" jsonschema:"optional rating: BUY, SELL, HOLD"`
	Limit    int    `json:"limit,omitempty" jsonschema:"number of evaluations to return, max 200"`
}

type signalsHistoryOutput struct {
	Evaluations []evaluationView `json:"evaluations"`
}

type watchlistScreenInput struct {
	Interval string `json:"interval,omitempty" jsonschema:"optional bar interval"`
	Filter   string `json:"filter,omitempty" jsonschema:"all, bullish, bearish or oversold"`
}

type watchlistScreenOutput struct {
	Interval    string             `json:"interval"`
	Filter      string             `json:"filter"`
	Stats       domain.ScreenStats `json:"stats"`
	Evaluations []evaluationView   `json:"evaluations"`
	Failed      []string           `json:"failed,omitempty"`
}

type indicatorsLatestInput struct {
	Symbol   string `json:"symbol" jsonschema:"instrument symbol"`
	Interval string `json:"interval,omitempty" jsonschema:"optional bar interval"`
}

// indicatorsLatestOutput holds the last value of each overlay series; null
// means the series is undefined at the latest bar.
type indicatorsLatestOutput struct {
	Symbol        string              `json:"symbol"`
	Interval      string              `json:"interval"`
	Bars          int                 `json:"bars"`
	BarTime       string              `json:"bar_time,omitempty"`
	Close         *float64            `json:"close"`
	SMA           map[string]*float64 `json:"sma"`
	EMA           map[string]*float64 `json:"ema"`
	RSI           *float64            `json:"rsi"`
	MACD          *float64            `json:"macd"`
	MACDSignal    *float64            `json:"macd_signal"`
	MACDHistogram *float64            `json:"macd_histogram"`
	BBUpper       *float64            `json:"bb_upper"`
	BBMiddle      *float64            `json:"bb_middle"`
	BBLower       *float64            `json:"bb_lower"`
	ATR           *float64            `json:"atr"`
	VWAP          *float64            `json:"vwap"`
}

type evaluationView struct {
	ID         int64             `json:"id,omitempty"`
	Symbol     string            `json:"symbol"`
	Interval   string            `json:"interval"`
	BarTime    string            `json:"bar_time,omitempty"`
	Bars       int               `json:"bars"`
	Rating     string            `json:"rating"`
	Confidence int               `json:"confidence"`
	Flags      []domain.RuleFlag `json:"flags"`
	Levels     *levelsView       `json:"levels,omitempty"`
	Timestamp  string            `json:"timestamp"`
}

type levelsView struct {
	EntryLow   *float64   `json:"entry_low"`
	EntryHigh  *float64   `json:"entry_high"`
	Stop       *float64   `json:"stop"`
	TakeProfit []*float64 `json:"tp"`
}

func newEvaluationView(e domain.Evaluation) evaluationView {
	view := evaluationView{
		ID:         e.ID,
		Symbol:     e.Symbol,
		Interval:   e.Interval,
		Bars:       e.Bars,
		Rating:     string(e.Result.Rating),
		Confidence: e.Result.Confidence,
		Flags:      e.Result.Flags,
		Timestamp:  e.Result.Timestamp.UTC().Format(time.RFC3339),
	}
	if view.Flags == nil {
		view.Flags = []domain.RuleFlag{}
	}
	if !e.BarTime.IsZero() {
		view.BarTime = e.BarTime.UTC().Format(time.RFC3339)
	}
	if l := e.Result.Levels; l.Computed {
		view.Levels = &levelsView{
			EntryLow:   finite(l.Entry[0]),
			EntryHigh:  finite(l.Entry[1]),
			Stop:       finite(l.Stop),
			TakeProfit: []*float64{finite(l.TakeProfit[0]), finite(l.TakeProfit[1]), finite(l.TakeProfit[2])},
		}
	}
	return view
}

func newEvaluationViews(evals []domain.Evaluation) []evaluationView {
	out := make([]evaluationView, 0, len(evals))
	for _, e := range evals {
		out = append(out, newEvaluationView(e))
	}
	return out
}

func newScreenOutput(res service.ScreenResult) watchlistScreenOutput {
	return watchlistScreenOutput{
		Interval:    res.Interval,
		Filter:      string(res.Filter),
		Stats:       res.Stats,
		Evaluations: newEvaluationViews(res.Evaluations),
		Failed:      res.Failed,
	}
}

func newIndicatorsLatest(report service.IndicatorReport) indicatorsLatestOutput {
	out := indicatorsLatestOutput{
		Symbol:   report.Symbol,
		Interval: report.Interval,
		Bars:     len(report.Candles),
		SMA:      make(map[string]*float64, len(report.Overlay.SMA)),
		EMA:      make(map[string]*float64, len(report.Overlay.EMA)),
	}
	if n := len(report.Candles); n > 0 {
		last := report.Candles[n-1]
		out.BarTime = last.OpenTime.UTC().Format(time.RFC3339)
		out.Close = finite(last.Close)
	}
	for period, s := range report.Overlay.SMA {
		out.SMA[period] = lastValue(s)
	}
	for period, s := range report.Overlay.EMA {
		out.EMA[period] = lastValue(s)
	}
	out.RSI = lastValue(report.Overlay.RSI)
	out.MACD = lastValue(report.Overlay.MACD.Line)
	out.MACDSignal = lastValue(report.Overlay.MACD.Signal)
	out.MACDHistogram = lastValue(report.Overlay.MACD.Histogram)
	out.BBUpper = lastValue(report.Overlay.Bollinger.Upper)
	out.BBMiddle = lastValue(report.Overlay.Bollinger.Middle)
	out.BBLower = lastValue(report.Overlay.Bollinger.Lower)
	out.ATR = lastValue(report.Overlay.ATR)
	out.VWAP = lastValue(report.Overlay.VWAP)
	return out
}

func lastValue(s indicator.Series) *float64 {
	v, ok := s.Last()
	if !ok {
		return nil
	}
	return finite(v)
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func normalizeSymbol(symbol string) (string, error) {
	if strings.TrimSpace(symbol) == "" {
		return "", fmt.Errorf("symbol is required")
	}
	normalized, ok := domain.NormalizeSymbol(symbol)
	if !ok {
		return "", fmt.Errorf("invalid symbol: %s", symbol)
	}
	return normalized, nil
}

// normalizeInterval passes an empty interval through so the service applies its default.
func normalizeInterval(interval string) (string, error) {
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return "", nil
	}
	if !domain.IsSupportedInterval(interval) {
		return "", fmt.Errorf("unsupported interval: %s", interval)
	}
	return interval, nil
}

func normalizeHistoryLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}

func normalizeHistoryFilter(in signalsHistoryInput) (domain.EvaluationFilter, error) {
	filter := domain.EvaluationFilter{Limit: normalizeHistoryLimit(in.Limit)}

	if strings.TrimSpace(in.Symbol) != "" {
		symbol, err := normalizeSymbol(in.Symbol)
		if err != nil {
			return domain.EvaluationFilter{}, err
		}
		filter.Symbol = symbol
	}

	interval, err := normalizeInterval(in.Interval)
	if err != nil {
		return domain.EvaluationFilter{}, err
	}
	filter.Interval = interval

	if raw := strings.TrimSpace(in.Rating); raw != "" {
		rating := domain.Rating(strings.ToUpper(raw))
		if !rating.IsValid() {
			return domain.EvaluationFilter{}, fmt.Errorf("rating must be BUY, SELL or HOLD")
		}
		filter.Rating = rating
	}
	return filter, nil
}

type watchlistView struct {
	Symbols  []string `json:"symbols"`
	Interval string   `json:"interval"`
}
