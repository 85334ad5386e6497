package indicator

import "trade-signal/internal/domain"

// SMA is the arithmetic mean of the last period closes, defined from index period-1.
func SMA(candles []domain.Candle, period int) Series {
	return rollingMean(closes(candles), period)
}

// VolumeSMA is the arithmetic mean of the last period volumes, defined from index period-1.
func VolumeSMA(candles []domain.Candle, period int) Series {
	return rollingMean(volumes(candles), period)
}

// EMA smooths closes with k = 2/(period+1). It is seeded with the first close
// and, unlike SMA, is defined at every index. A constant input stays exactly
// constant.
func EMA(candles []domain.Candle, period int) Series {
	return emaOf(closes(candles), period)
}

func rollingMean(values []float64, period int) Series {
	out := undefined(len(values))
	if period <= 0 {
		return out
	}
	w := newRollingSum(period)
	for i, v := range values {
		w.Add(v)
		if w.Full() {
			out[i] = w.Mean()
		}
	}
	return out
}

func emaOf(values []float64, period int) Series {
	if period <= 0 {
		return undefined(len(values))
	}
	out := make(Series, len(values))
	if len(values) == 0 {
		return out
	}
	k := 2 / (float64(period) + 1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		// close*k + prev*(1-k), rearranged so a constant series stays exact.
		out[i] = out[i-1] + k*(values[i]-out[i-1])
	}
	return out
}
