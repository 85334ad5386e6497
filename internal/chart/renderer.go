package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"trade-signal/internal/domain"
	"trade-signal/internal/indicator"
)

const (
	defaultChartWidth  = 960
	defaultChartHeight = 720
	maxChartCandles    = 120
	trendSMAPeriod     = 50
)

var (
	colBackground = color.RGBA{R: 250, G: 252, B: 255, A: 255}
	colGrid       = color.RGBA{R: 225, G: 232, B: 240, A: 255}
	colBull       = color.RGBA{R: 18, G: 140, B: 126, A: 255}
	colBear       = color.RGBA{R: 210, G: 61, B: 87, A: 255}
	colWick       = color.RGBA{R: 58, G: 64, B: 90, A: 255}
	colEntry      = color.RGBA{R: 62, G: 106, B: 214, A: 255}
	colTrend      = color.RGBA{R: 255, G: 149, B: 0, A: 255}
	colBand       = color.RGBA{R: 104, G: 122, B: 146, A: 255}
	colThreshold  = color.RGBA{R: 170, G: 178, B: 190, A: 255}
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderEvaluationChart draws the last bars as candles with Bollinger bands,
// the trend SMA and any computed trade levels, over RSI and MACD histogram
// panels. Indicators are computed on the full input so the visible window
// carries no warm-up gap.
func (r *Renderer) RenderEvaluationChart(candles []domain.Candle, result domain.SignalResult) ([]byte, error) {
	if len(candles) < 2 {
		return nil, fmt.Errorf("need at least 2 candles to render chart")
	}

	bands := indicator.BollingerBands(candles, indicator.DefaultBollingerPeriod, indicator.DefaultBollingerStdDevs)
	trend := indicator.SMA(candles, trendSMAPeriod)
	rsi := indicator.RSI(candles, indicator.DefaultRSIPeriod)
	macd := indicator.MACD(candles, indicator.DefaultMACDFast, indicator.DefaultMACDSlow, indicator.DefaultMACDSignal)

	from := 0
	if len(candles) > maxChartCandles {
		from = len(candles) - maxChartCandles
	}
	window := candles[from:]

	img := image.NewRGBA(image.Rect(0, 0, defaultChartWidth, defaultChartHeight))
	fillRect(img, img.Bounds(), colBackground)

	mainRect := image.Rect(60, 20, defaultChartWidth-20, (defaultChartHeight*62)/100)
	rsiRect := image.Rect(60, mainRect.Max.Y+16, defaultChartWidth-20, (defaultChartHeight*80)/100)
	macdRect := image.Rect(60, rsiRect.Max.Y+16, defaultChartWidth-20, defaultChartHeight-20)
	drawGrid(img, mainRect, 8, 6)
	drawGrid(img, rsiRect, 8, 2)
	drawGrid(img, macdRect, 8, 2)

	var levels []float64
	if result.Levels.Computed {
		l := result.Levels
		levels = []float64{l.Entry[0], l.Entry[1], l.Stop, l.TakeProfit[0], l.TakeProfit[1], l.TakeProfit[2]}
	}
	minP, maxP := priceBounds(window, bands.Upper[from:], bands.Lower[from:], levels)

	drawSeries(img, mainRect, bands.Upper[from:], minP, maxP, colBand)
	drawSeries(img, mainRect, bands.Middle[from:], minP, maxP, colBand)
	drawSeries(img, mainRect, bands.Lower[from:], minP, maxP, colBand)
	drawSeries(img, mainRect, trend[from:], minP, maxP, colTrend)
	drawCandles(img, mainRect, window, minP, maxP)

	if result.Levels.Computed {
		l := result.Levels
		drawHorizontalValueLine(img, mainRect, l.Entry[0], minP, maxP, colEntry)
		drawHorizontalValueLine(img, mainRect, l.Entry[1], minP, maxP, colEntry)
		drawHorizontalValueLine(img, mainRect, l.Stop, minP, maxP, colBear)
		for _, tp := range l.TakeProfit {
			drawHorizontalValueLine(img, mainRect, tp, minP, maxP, colBull)
		}
	}

	drawHorizontalValueLine(img, rsiRect, 30, 0, 100, colThreshold)
	drawHorizontalValueLine(img, rsiRect, 70, 0, 100, colThreshold)
	drawSeries(img, rsiRect, rsi[from:], 0, 100, colEntry)

	hist := macd.Histogram[from:]
	lo, hi := finiteBounds(hist)
	span := math.Max(math.Abs(lo), math.Abs(hi))
	if span == 0 {
		span = 1
	}
	drawHorizontalValueLine(img, macdRect, 0, -span, span, colThreshold)
	drawBars(img, macdRect, hist, -span, span)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func priceBounds(candles []domain.Candle, upper, lower indicator.Series, levels []float64) (float64, float64) {
	values := make([]float64, 0, 2*len(candles)+len(upper)+len(lower)+len(levels))
	for _, c := range candles {
		values = append(values, c.High, c.Low)
	}
	values = append(values, upper...)
	values = append(values, lower...)
	values = append(values, levels...)
	return finiteBounds(values)
}

func drawCandles(img *image.RGBA, rect image.Rectangle, candles []domain.Candle, minPrice, maxPrice float64) {
	candleWidth := max(3, (rect.Dx()-10)/len(candles)-1)
	for i, c := range candles {
		x := mapIndexToX(i, len(candles), rect)
		highY := mapValueToY(c.High, minPrice, maxPrice, rect)
		lowY := mapValueToY(c.Low, minPrice, maxPrice, rect)
		drawLine(img, x, highY, x, lowY, colWick)

		openY := mapValueToY(c.Open, minPrice, maxPrice, rect)
		closeY := mapValueToY(c.Close, minPrice, maxPrice, rect)
		top := min(openY, closeY)
		bottom := max(openY, closeY)
		if bottom-top < 2 {
			bottom = top + 2
		}

		bodyColor := colBull
		if c.Close < c.Open {
			bodyColor = colBear
		}
		fillRect(img, image.Rect(x-candleWidth/2, top, x+candleWidth/2+1, bottom+1), bodyColor)
	}
}

func drawSeries(img *image.RGBA, rect image.Rectangle, series []float64, minV, maxV float64, col color.RGBA) {
	lastX, lastY := -1, -1
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			lastX, lastY = -1, -1
			continue
		}
		x := mapIndexToX(i, len(series), rect)
		y := mapValueToY(v, minV, maxV, rect)
		if lastX >= 0 {
			drawLine(img, lastX, lastY, x, y, col)
		}
		lastX, lastY = x, y
	}
}

// drawBars colors each bar by sign around the zero line.
func drawBars(img *image.RGBA, rect image.Rectangle, series []float64, minV, maxV float64) {
	barW := max(1, (rect.Dx()-10)/len(series)-1)
	zeroY := mapValueToY(0, minV, maxV, rect)
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		col := colBull
		if v < 0 {
			col = colBear
		}
		x := mapIndexToX(i, len(series), rect)
		y := mapValueToY(v, minV, maxV, rect)
		top := min(y, zeroY)
		bottom := max(y, zeroY)
		fillRect(img, image.Rect(x-barW/2, top, x+barW/2+1, bottom+1), col)
	}
}

func drawGrid(img *image.RGBA, rect image.Rectangle, verticalLines, horizontalLines int) {
	for i := 0; i <= verticalLines; i++ {
		x := rect.Min.X + (rect.Dx()*i)/max(1, verticalLines)
		drawLine(img, x, rect.Min.Y, x, rect.Max.Y, colGrid)
	}
	for i := 0; i <= horizontalLines; i++ {
		y := rect.Min.Y + (rect.Dy()*i)/max(1, horizontalLines)
		drawLine(img, rect.Min.X, y, rect.Max.X, y, colGrid)
	}
}

func drawHorizontalValueLine(img *image.RGBA, rect image.Rectangle, value, minV, maxV float64, col color.RGBA) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return
	}
	y := mapValueToY(value, minV, maxV, rect)
	drawLine(img, rect.Min.X, y, rect.Max.X, y, col)
}

func mapIndexToX(idx, total int, rect image.Rectangle) int {
	if total <= 1 {
		return rect.Min.X
	}
	return rect.Min.X + (idx*(rect.Dx()-1))/(total-1)
}

func mapValueToY(value, minV, maxV float64, rect image.Rectangle) int {
	if maxV <= minV {
		return rect.Max.Y
	}
	ratio := (value - minV) / (maxV - minV)
	ratio = math.Max(0, math.Min(1, ratio))
	return rect.Max.Y - int(ratio*float64(rect.Dy()-1))
}

func finiteBounds(values []float64) (float64, float64) {
	minV := math.Inf(1)
	maxV := math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	if math.IsInf(minV, 1) || math.IsInf(maxV, -1) {
		return 0, 1
	}
	if minV == maxV {
		return minV, maxV + 1
	}
	return minV, maxV
}

func fillRect(img *image.RGBA, rect image.Rectangle, col color.RGBA) {
	r := rect.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

// drawLine is Bresenham clipped to the image bounds.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		if image.Pt(x0, y0).In(img.Bounds()) {
			img.SetRGBA(x0, y0, col)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
