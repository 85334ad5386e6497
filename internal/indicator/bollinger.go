package indicator

import (
	"math"

	"trade-signal/internal/domain"

	"gonum.org/v1/gonum/stat"
)

type BandsResult struct {
	Upper  Series `json:"upper"`
	Middle Series `json:"middle"`
	Lower  Series `json:"lower"`
}

// BollingerBands returns SMA(period) ± k population standard deviations of
// the closes in the same trailing window. Undefined before index period-1.
func BollingerBands(candles []domain.Candle, period int, k float64) BandsResult {
	middle := SMA(candles, period)
	upper := undefined(len(candles))
	lower := undefined(len(candles))
	if period <= 0 {
		return BandsResult{Upper: upper, Middle: middle, Lower: lower}
	}

	values := closes(candles)
	for i := period - 1; i < len(values); i++ {
		if math.IsNaN(middle[i]) {
			continue
		}
		std := stat.PopStdDev(values[i-period+1:i+1], nil)
		upper[i] = middle[i] + k*std
		lower[i] = middle[i] - k*std
	}
	return BandsResult{Upper: upper, Middle: middle, Lower: lower}
}
