package indicator

import (
	"fmt"

	"trade-signal/internal/domain"
)

// OverlayConfig selects the chart overlay series computed by ComputeOverlay.
type OverlayConfig struct {
	SMA        []int   `json:"sma"`
	EMA        []int   `json:"ema"`
	MACDFast   int     `json:"macd_fast"`
	MACDSlow   int     `json:"macd_slow"`
	MACDSignal int     `json:"macd_signal"`
	RSI        int     `json:"rsi"`
	BBPeriod   int     `json:"bb_period"`
	BBStdDevs  float64 `json:"bb_std_devs"`
	ATR        int     `json:"atr"`
}

func DefaultOverlayConfig() OverlayConfig {
	return OverlayConfig{
		SMA:        []int{20, 50, 200},
		EMA:        []int{12, 26},
		MACDFast:   DefaultMACDFast,
		MACDSlow:   DefaultMACDSlow,
		MACDSignal: DefaultMACDSignal,
		RSI:        DefaultRSIPeriod,
		BBPeriod:   DefaultBollingerPeriod,
		BBStdDevs:  DefaultBollingerStdDevs,
		ATR:        DefaultATRPeriod,
	}
}

// Validate rejects configurations that would only ever produce undefined series.
func (c OverlayConfig) Validate() error {
	for _, p := range append(append([]int(nil), c.SMA...), c.EMA...) {
		if p <= 0 {
			return fmt.Errorf("moving average period must be positive, got %d", p)
		}
	}
	if c.MACDFast <= 0 || c.MACDSlow <= 0 || c.MACDSignal <= 0 {
		return fmt.Errorf("macd periods must be positive")
	}
	if c.RSI <= 0 || c.BBPeriod <= 0 || c.ATR <= 0 {
		return fmt.Errorf("rsi, bollinger and atr periods must be positive")
	}
	if c.BBStdDevs <= 0 {
		return fmt.Errorf("bollinger std devs must be positive")
	}
	return nil
}

type Overlay struct {
	SMA       map[string]Series `json:"sma"`
	EMA       map[string]Series `json:"ema"`
	RSI       Series            `json:"rsi"`
	MACD      MACDResult        `json:"macd"`
	Bollinger BandsResult       `json:"bollinger"`
	ATR       Series            `json:"atr"`
	VWAP      Series            `json:"vwap"`
}

// ComputeOverlay evaluates every series named by cfg over the same candles.
func ComputeOverlay(candles []domain.Candle, cfg OverlayConfig) Overlay {
	out := Overlay{
		SMA: make(map[string]Series, len(cfg.SMA)),
		EMA: make(map[string]Series, len(cfg.EMA)),
	}
	for _, p := range cfg.SMA {
		out.SMA[fmt.Sprintf("%d", p)] = SMA(candles, p)
	}
	for _, p := range cfg.EMA {
		out.EMA[fmt.Sprintf("%d", p)] = EMA(candles, p)
	}
	out.RSI = RSI(candles, cfg.RSI)
	out.MACD = MACD(candles, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	out.Bollinger = BollingerBands(candles, cfg.BBPeriod, cfg.BBStdDevs)
	out.ATR = ATR(candles, cfg.ATR)
	out.VWAP = VWAP(candles)
	return out
}
