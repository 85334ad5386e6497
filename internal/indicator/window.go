package indicator

import "math"

// rollingSum keeps the sum of the last n values in a circular buffer.
//
// Non-finite values are counted but kept out of the running total so the sum
// recovers once they leave the window. Zero values are tracked as well: when
// every member of a full window is zero Sum reports exactly 0 instead of the
// residue left behind by add/subtract rounding.
type rollingSum struct {
	buf       []float64
	idx       int
	count     int
	sum       float64
	nonZero   int
	nonFinite int
}

func newRollingSum(n int) *rollingSum {
	return &rollingSum{buf: make([]float64, n)}
}

func (w *rollingSum) Add(v float64) {
	if w.count >= len(w.buf) {
		w.remove(w.buf[w.idx])
	} else {
		w.count++
	}
	w.buf[w.idx] = v
	w.idx = (w.idx + 1) % len(w.buf)

	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		w.nonFinite++
	case v != 0:
		w.nonZero++
		w.sum += v
	}
}

func (w *rollingSum) remove(v float64) {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		w.nonFinite--
	case v != 0:
		w.nonZero--
		w.sum -= v
	}
}

// Full reports whether n values have been added.
func (w *rollingSum) Full() bool { return w.count >= len(w.buf) }

func (w *rollingSum) Sum() float64 {
	if w.nonFinite > 0 {
		return math.NaN()
	}
	if w.nonZero == 0 {
		return 0
	}
	return w.sum
}

func (w *rollingSum) Mean() float64 {
	if !w.Full() {
		return math.NaN()
	}
	return w.Sum() / float64(len(w.buf))
}
