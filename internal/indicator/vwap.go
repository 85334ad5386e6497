package indicator

import "trade-signal/internal/domain"

// VWAP is cumulative typical price × volume over cumulative volume from the
// first supplied bar. While cumulative volume is zero it falls back to the
// bar's typical price.
func VWAP(candles []domain.Candle) Series {
	out := make(Series, len(candles))
	var pv, vol float64
	for i, c := range candles {
		typical := typicalPrice(c)
		pv += typical * c.Volume
		vol += c.Volume
		if vol == 0 {
			out[i] = typical
			continue
		}
		out[i] = pv / vol
	}
	return out
}
