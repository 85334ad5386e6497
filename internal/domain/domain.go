package domain

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"time"
)

// Candle is one bar of OHLCV data for a symbol at a fixed interval.
type Candle struct {
	Symbol   string    `json:"symbol,omitempty"`
	Interval string    `json:"interval,omitempty"`
	OpenTime time.Time `json:"t"`
	Open     float64   `json:"o"`
	High     float64   `json:"h"`
	Low      float64   `json:"l"`
	Close    float64   `json:"c"`
	Volume   float64   `json:"v"`
}

type Rating string

const (
	RatingBuy  Rating = "BUY"
	RatingSell Rating = "SELL"
	RatingHold Rating = "HOLD"
)

func (r Rating) IsValid() bool {
	return r == RatingBuy || r == RatingSell || r == RatingHold
}

const (
	RuleTrendFilter       = "trend_filter"
	RuleMomentumConfirm   = "momentum_confirm"
	RuleVolatilityContext = "volatility_context"
	RuleMeanReversion     = "mean_reversion"
	RuleBreakout          = "breakout"
	RuleBearishPenalty    = "bearish_penalty"
	RuleOverheated        = "overheated"
)

// RuleFlag records the outcome of one weighted rule. For penalty rules
// (negative weight) Passed means the adverse condition was detected.
type RuleFlag struct {
	ID     string  `json:"id"`
	Passed bool    `json:"passed"`
	Weight float64 `json:"weight"`
	Note   string  `json:"note"`
}

// Levels holds trade levels. Computed is false when the evaluator
// short-circuited and no levels exist; the price fields are then zero.
type Levels struct {
	Computed   bool
	Entry      [2]float64
	Stop       float64
	TakeProfit [3]float64
}

type levelsJSON struct {
	Computed   bool       `json:"computed"`
	Entry      []*float64 `json:"entry,omitempty"`
	Stop       *float64   `json:"stop,omitempty"`
	TakeProfit []*float64 `json:"tp,omitempty"`
}

func (l Levels) MarshalJSON() ([]byte, error) {
	if !l.Computed {
		return json.Marshal(levelsJSON{})
	}
	return json.Marshal(levelsJSON{
		Computed:   true,
		Entry:      []*float64{finite(l.Entry[0]), finite(l.Entry[1])},
		Stop:       finite(l.Stop),
		TakeProfit: []*float64{finite(l.TakeProfit[0]), finite(l.TakeProfit[1]), finite(l.TakeProfit[2])},
	})
}

func (l *Levels) UnmarshalJSON(data []byte) error {
	var raw levelsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = Levels{Computed: raw.Computed}
	if !raw.Computed {
		return nil
	}
	for i := 0; i < len(raw.Entry) && i < len(l.Entry); i++ {
		l.Entry[i] = orNaN(raw.Entry[i])
	}
	l.Stop = orNaN(raw.Stop)
	for i := 0; i < len(raw.TakeProfit) && i < len(l.TakeProfit); i++ {
		l.TakeProfit[i] = orNaN(raw.TakeProfit[i])
	}
	return nil
}

// encoding/json rejects NaN and Inf, so they travel as null.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// SignalResult is the evaluator output for the latest bar of a candle sequence.
type SignalResult struct {
	Rating     Rating     `json:"rating"`
	Confidence int        `json:"confidence"`
	Flags      []RuleFlag `json:"flags"`
	Levels     Levels     `json:"levels"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Flag returns the flag with the given rule id.
func (r SignalResult) Flag(id string) (RuleFlag, bool) {
	for _, f := range r.Flags {
		if f.ID == id {
			return f, true
		}
	}
	return RuleFlag{}, false
}

// Evaluation ties a SignalResult to the instrument and bar it was computed for.
type Evaluation struct {
	ID       int64        `json:"id,omitempty"`
	Symbol   string       `json:"symbol"`
	Interval string       `json:"interval"`
	BarTime  time.Time    `json:"bar_time"`
	Bars     int          `json:"bars"`
	Result   SignalResult `json:"result"`
}

type EvaluationFilter struct {
	Symbol   string
	Interval string
	Rating   Rating
	Limit    int
}

type ScreenFilter string

const (
	ScreenAll      ScreenFilter = "all"
	ScreenBullish  ScreenFilter = "bullish"
	ScreenBearish  ScreenFilter = "bearish"
	ScreenOversold ScreenFilter = "oversold"
)

func ParseScreenFilter(raw string) (ScreenFilter, bool) {
	switch f := ScreenFilter(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return ScreenAll, true
	case ScreenAll, ScreenBullish, ScreenBearish, ScreenOversold:
		return f, true
	default:
		return "", false
	}
}

// Match reports whether an evaluation belongs in the filtered watchlist view.
func (f ScreenFilter) Match(e Evaluation) bool {
	switch f {
	case ScreenBullish:
		return e.Result.Rating == RatingBuy
	case ScreenBearish:
		return e.Result.Rating == RatingSell
	case ScreenOversold:
		flag, ok := e.Result.Flag(RuleMeanReversion)
		return ok && flag.Passed
	default:
		return true
	}
}

type ScreenStats struct {
	Total    int `json:"total"`
	Bullish  int `json:"bullish"`
	Bearish  int `json:"bearish"`
	Oversold int `json:"oversold"`
}

func NewScreenStats(evals []Evaluation) ScreenStats {
	stats := ScreenStats{Total: len(evals)}
	for _, e := range evals {
		if ScreenBullish.Match(e) {
			stats.Bullish++
		}
		if ScreenBearish.Match(e) {
			stats.Bearish++
		}
		if ScreenOversold.Match(e) {
			stats.Oversold++
		}
	}
	return stats
}

var SupportedIntervals = []string{"5m", "15m", "1h", "4h", "1d", "1w"}

func IsSupportedInterval(interval string) bool {
	for _, s := range SupportedIntervals {
		if s == interval {
			return true
		}
	}
	return false
}

var symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-^=]{0,19}$`)

// NormalizeSymbol upper-cases and validates a ticker such as AAPL, BRK.B or BTC-USD.
func NormalizeSymbol(raw string) (string, bool) {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if !symbolPattern.MatchString(symbol) {
		return "", false
	}
	return symbol, true
}

// RatingChange records a watchlist symbol whose rating moved between two screens.
type RatingChange struct {
	From       Rating     `json:"from"`
	Evaluation Evaluation `json:"evaluation"`
}

func (c RatingChange) To() Rating {
	return c.Evaluation.Result.Rating
}
