package indicator

import (
	"math"

	"trade-signal/internal/domain"
)

// RSI uses plain rolling means of the last period gains and losses (not
// Wilder's recursive smoothing). Index 0 and indices 1..period-1 are
// undefined. A zero average loss yields exactly 100.
func RSI(candles []domain.Candle, period int) Series {
	out := undefined(len(candles))
	if period <= 0 {
		return out
	}

	gains := newRollingSum(period)
	losses := newRollingSum(period)
	for i := 1; i < len(candles); i++ {
		change := candles[i].Close - candles[i-1].Close
		gains.Add(math.Max(change, 0))
		losses.Add(math.Max(-change, 0))
		if i < period {
			continue
		}
		out[i] = rsiFromAvg(gains.Mean(), losses.Mean())
	}
	return out
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}
