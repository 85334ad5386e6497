package indicator

import (
	"math"

	"trade-signal/internal/domain"
)

// TrueRange is max(h-l, |h-prevClose|, |l-prevClose|); index 0 is undefined.
func TrueRange(candles []domain.Candle) Series {
	out := undefined(len(candles))
	for i := 1; i < len(candles); i++ {
		h, l, prev := candles[i].High, candles[i].Low, candles[i-1].Close
		out[i] = math.Max(h-l, math.Max(math.Abs(h-prev), math.Abs(l-prev)))
	}
	return out
}

// ATR is the simple mean of the last period true ranges, defined once period
// true ranges exist (index period onwards).
func ATR(candles []domain.Candle, period int) Series {
	out := undefined(len(candles))
	if period <= 0 {
		return out
	}
	tr := TrueRange(candles)
	w := newRollingSum(period)
	for i := 1; i < len(tr); i++ {
		w.Add(tr[i])
		if w.Full() {
			out[i] = w.Mean()
		}
	}
	return out
}
