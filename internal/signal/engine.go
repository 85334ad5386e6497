package signal

import (
	"math"
	"time"

	"trade-signal/internal/domain"
	"trade-signal/internal/indicator"
)

const (
	// MinBars is the shortest history the evaluator scores; shorter input
	// yields a neutral HOLD result.
	MinBars = 200

	fastSMAPeriod    = 50
	slowSMAPeriod    = 200
	rsiPeriod        = indicator.DefaultRSIPeriod
	macdFastPeriod   = indicator.DefaultMACDFast
	macdSlowPeriod   = indicator.DefaultMACDSlow
	macdSignalPeriod = indicator.DefaultMACDSignal
	bollingerPeriod  = indicator.DefaultBollingerPeriod
	bollingerStdDevs = indicator.DefaultBollingerStdDevs
	atrPeriod        = indicator.DefaultATRPeriod

	buyThreshold  = 60
	sellThreshold = 30
)

type Engine struct {
	now func() time.Time
}

func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// Evaluate scores the latest bar of candles with the fixed rule battery.
// Candles must be in ascending time order; each position counts as one bar.
func (e *Engine) Evaluate(candles []domain.Candle) domain.SignalResult {
	ts := e.now().UTC()
	if len(candles) < MinBars {
		return domain.SignalResult{
			Rating:    domain.RatingHold,
			Flags:     []domain.RuleFlag{},
			Timestamp: ts,
		}
	}

	snap := newSnapshot(candles)
	flags := make([]domain.RuleFlag, 0, len(rules))
	points := 0
	for _, r := range rules {
		passed, note := r.check(snap)
		flags = append(flags, domain.RuleFlag{
			ID:     r.id,
			Passed: passed,
			Weight: float64(r.points) / 100,
			Note:   note,
		})
		if passed {
			points += r.points
		}
	}

	confidence := clampConfidence(points)
	return domain.SignalResult{
		Rating:     ratingFor(confidence),
		Confidence: confidence,
		Flags:      flags,
		Levels:     tradeLevels(candles, snap.idx, snap.atr[snap.idx]),
		Timestamp:  ts,
	}
}

// snapshot holds every series the rules read, computed once per evaluation.
type snapshot struct {
	candles []domain.Candle
	idx     int
	close   float64
	sma50   indicator.Series
	sma200  indicator.Series
	rsi     indicator.Series
	macd    indicator.MACDResult
	bands   indicator.BandsResult
	atr     indicator.Series
	volAvg  indicator.Series
}

func newSnapshot(candles []domain.Candle) *snapshot {
	idx := len(candles) - 1
	return &snapshot{
		candles: candles,
		idx:     idx,
		close:   candles[idx].Close,
		sma50:   indicator.SMA(candles, fastSMAPeriod),
		sma200:  indicator.SMA(candles, slowSMAPeriod),
		rsi:     indicator.RSI(candles, rsiPeriod),
		macd:    indicator.MACD(candles, macdFastPeriod, macdSlowPeriod, macdSignalPeriod),
		bands:   indicator.BollingerBands(candles, bollingerPeriod, bollingerStdDevs),
		atr:     indicator.ATR(candles, atrPeriod),
		volAvg:  indicator.VolumeSMA(candles, volumeWindow),
	}
}

func clampConfidence(points int) int {
	if points < 0 {
		return 0
	}
	if points > 100 {
		return 100
	}
	return points
}

func ratingFor(confidence int) domain.Rating {
	switch {
	case confidence >= buyThreshold:
		return domain.RatingBuy
	case confidence <= sellThreshold:
		return domain.RatingSell
	default:
		return domain.RatingHold
	}
}

// tradeLevels derives entry, stop and take-profit prices from the close and ATR at idx.
func tradeLevels(candles []domain.Candle, idx int, atr float64) domain.Levels {
	c := candles[idx].Close
	swingLow := math.Inf(1)
	for i := max(0, idx-swingLookback+1); i <= idx; i++ {
		swingLow = math.Min(swingLow, candles[i].Low)
	}
	return domain.Levels{
		Computed:   true,
		Entry:      [2]float64{c - 0.5*atr, c + 0.5*atr},
		Stop:       math.Min(swingLow, c-1.5*atr),
		TakeProfit: [3]float64{c + atr, c + 2*atr, c + 3*atr},
	}
}
