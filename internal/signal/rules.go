package signal

import (
	"fmt"

	"trade-signal/internal/domain"
)

const (
	volumeWindow          = 20
	volumeExpansion       = 1.2
	meanReversionLookback = 5
	histogramRisingPoints = 4
	swingLookback         = 21

	oversoldRSI   = 30.0
	overboughtRSI = 70.0
	minATRPct     = 1.0
	maxATRPct     = 3.0
)

// rule is one weighted check. points is the weight in hundredths so the
// score sums exactly; negative points are penalties applied when check passes.
type rule struct {
	id     string
	points int
	check  func(s *snapshot) (bool, string)
}

// rules run in this order and flags keep it.
var rules = []rule{
	{id: domain.RuleTrendFilter, points: 25, check: trendFilter},
	{id: domain.RuleMomentumConfirm, points: 25, check: momentumConfirm},
	{id: domain.RuleVolatilityContext, points: 10, check: volatilityContext},
	{id: domain.RuleMeanReversion, points: 20, check: meanReversion},
	{id: domain.RuleBreakout, points: 20, check: breakout},
	{id: domain.RuleBearishPenalty, points: -30, check: bearishPenalty},
	{id: domain.RuleOverheated, points: -15, check: overheated},
}

func trendFilter(s *snapshot) (bool, string) {
	i := s.idx
	if s.close > s.sma50[i] && s.sma50[i] > s.sma200[i] {
		return true, "Price above 50-SMA and 50-SMA above 200-SMA (bullish trend)"
	}
	return false, "Trend filter not met"
}

func momentumConfirm(s *snapshot) (bool, string) {
	i := s.idx
	if s.macd.Line[i] > s.macd.Signal[i] && histogramRising(s) {
		return true, "MACD line above signal with rising histogram (momentum confirmed)"
	}
	return false, "MACD momentum not confirmed"
}

func histogramRising(s *snapshot) bool {
	h := s.macd.Histogram
	if s.idx < histogramRisingPoints-1 {
		return false
	}
	for i := s.idx - histogramRisingPoints + 2; i <= s.idx; i++ {
		if !(h[i] > h[i-1]) {
			return false
		}
	}
	return true
}

func volatilityContext(s *snapshot) (bool, string) {
	pct := s.atr[s.idx] / s.close * 100
	if pct >= minATRPct && pct <= maxATRPct {
		return true, fmt.Sprintf("ATR %.2f%% - tradable volatility", pct)
	}
	return false, fmt.Sprintf("ATR %.2f%% - outside ideal range", pct)
}

func meanReversion(s *snapshot) (bool, string) {
	if s.rsi[s.idx] > oversoldRSI {
		for i := max(0, s.idx-meanReversionLookback); i < s.idx; i++ {
			touchedLower := s.candles[i].Low <= s.bands.Lower[i]
			if touchedLower && s.rsi[i] <= oversoldRSI {
				return true, "Price touched lower BB and RSI crossed above 30 (mean-reversion setup)"
			}
		}
	}
	return false, "No mean-reversion signal"
}

// volumeExpanded compares the latest volume with the mean of the preceding
// window. A zero-volume window makes any positive volume an expansion.
func volumeExpanded(s *snapshot) bool {
	if s.idx < volumeWindow {
		return false
	}
	return s.candles[s.idx].Volume > s.volAvg[s.idx-1]*volumeExpansion
}

func breakout(s *snapshot) (bool, string) {
	if s.close > s.bands.Upper[s.idx] && volumeExpanded(s) {
		return true, "Price broke above upper BB with volume expansion (breakout)"
	}
	return false, "No breakout signal"
}

func bearishPenalty(s *snapshot) (bool, string) {
	i := s.idx
	bearishTrend := s.close < s.sma50[i] || s.sma50[i] < s.sma200[i]
	macdBearish := s.macd.Line[i] < s.macd.Signal[i]
	if bearishTrend || macdBearish {
		return true, "Bearish trend or MACD crossover detected (penalty applied)"
	}
	return false, "No bearish signals"
}

func overheated(s *snapshot) (bool, string) {
	if s.rsi[s.idx] > overboughtRSI && s.close > s.bands.Upper[s.idx] && !volumeExpanded(s) {
		return true, "RSI > 70 and price above upper BB without volume (overbought)"
	}
	return false, "Not overbought"
}
