// Package indicator computes technical indicator series over a candle sequence.
//
// Every function is pure: it never mutates its input and returns a freshly
// allocated Series that is index-aligned with the candles. Positions that lack
// enough history hold NaN. Too-short inputs and non-positive periods degrade
// to all-NaN output rather than failing; callers check At before trusting a value.
package indicator

import (
	"math"
	"strconv"

	"trade-signal/internal/domain"
)

const (
	DefaultRSIPeriod        = 14
	DefaultMACDFast         = 12
	DefaultMACDSlow         = 26
	DefaultMACDSignal       = 9
	DefaultBollingerPeriod  = 20
	DefaultBollingerStdDevs = 2.0
	DefaultATRPeriod        = 14
)

// Series is one indicator value per candle; NaN marks an undefined position.
type Series []float64

// At returns the value at i and whether it is defined.
func (s Series) At(i int) (float64, bool) {
	if i < 0 || i >= len(s) {
		return math.NaN(), false
	}
	v := s[i]
	return v, !math.IsNaN(v)
}

// Last returns the final value of the series.
func (s Series) Last() (float64, bool) {
	return s.At(len(s) - 1)
}

// MarshalJSON writes undefined and non-finite positions as null.
func (s Series) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	buf := make([]byte, 0, 2+len(s)*10)
	buf = append(buf, '[')
	for i, v := range s {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
	}
	return append(buf, ']'), nil
}

func undefined(n int) Series {
	out := make(Series, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func closes(candles []domain.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		out[i] = candles[i].Close
	}
	return out
}

func volumes(candles []domain.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		out[i] = candles[i].Volume
	}
	return out
}

func typicalPrice(c domain.Candle) float64 {
	return (c.High + c.Low + c.Close) / 3
}
