package indicator

import (
	"math"

	"trade-signal/internal/domain"
)

type MACDResult struct {
	Line      Series `json:"line"`
	Signal    Series `json:"signal"`
	Histogram Series `json:"histogram"`
}

// MACD returns line = EMA(fast) - EMA(slow), a signal line and their difference.
//
// The signal line is anchored to the slow period rather than warmed up on its
// own: positions before slow-1 are undefined, position slow-1 takes the raw
// MACD line value, and smoothing with k = 2/(signal+1) proceeds from there.
func MACD(candles []domain.Candle, fast, slow, signal int) MACDResult {
	n := len(candles)
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return MACDResult{Line: undefined(n), Signal: undefined(n), Histogram: undefined(n)}
	}

	values := closes(candles)
	fastEMA := emaOf(values, fast)
	slowEMA := emaOf(values, slow)

	line := make(Series, n)
	for i := range line {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	sig := undefined(n)
	seed := slow - 1
	if seed < n {
		k := 2 / (float64(signal) + 1)
		sig[seed] = line[seed]
		for i := seed + 1; i < n; i++ {
			sig[i] = sig[i-1] + k*(line[i]-sig[i-1])
		}
	}

	hist := make(Series, n)
	for i := range hist {
		if math.IsNaN(sig[i]) {
			hist[i] = math.NaN()
			continue
		}
		hist[i] = line[i] - sig[i]
	}

	return MACDResult{Line: line, Signal: sig, Histogram: hist}
}
