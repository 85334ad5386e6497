package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"trade-signal/internal/indicator"

	"github.com/gin-gonic/gin"
)

// GetIndicators godoc
// @Summary      Indicator overlay
// @Description  Returns the stored bars and every overlay series aligned to them
// @Tags         indicators
// @Produce      json
// @Param        symbol     path   string  true   "Instrument symbol"
// @Param        interval   query  string  false  "Bar interval"
// @Param        sma        query  string  false  "Comma-separated SMA periods (default 20,50,200)"
// @Param        ema        query  string  false  "Comma-separated EMA periods (default 12,26)"
// @Param        rsi        query  int     false  "RSI period (default 14)"
// @Param        atr        query  int     false  "ATR period (default 14)"
// @Param        bb_period  query  int     false  "Bollinger period (default 20)"
// @Param        bb_std     query  number  false  "Bollinger std devs (default 2)"
// @Success      200  {object}  service.IndicatorReport
// @Failure      400  {object}  map[string]string
// @Router       /api/indicators/{symbol} [get]
func (h *Handler) GetIndicators(c *gin.Context) {
	if h.unavailable(c) {
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-indicators")
	defer span.End()

	cfg, err := overlayConfigFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.signalService.Indicators(ctx, c.Param("symbol"), c.Query("interval"), cfg)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func overlayConfigFromQuery(c *gin.Context) (indicator.OverlayConfig, error) {
	cfg := indicator.DefaultOverlayConfig()

	var err error
	if raw := strings.TrimSpace(c.Query("sma")); raw != "" {
		if cfg.SMA, err = parsePeriods(raw); err != nil {
			return cfg, fmt.Errorf("sma: %w", err)
		}
	}
	if raw := strings.TrimSpace(c.Query("ema")); raw != "" {
		if cfg.EMA, err = parsePeriods(raw); err != nil {
			return cfg, fmt.Errorf("ema: %w", err)
		}
	}
	for key, dst := range map[string]*int{"rsi": &cfg.RSI, "atr": &cfg.ATR, "bb_period": &cfg.BBPeriod} {
		if raw := strings.TrimSpace(c.Query(key)); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return cfg, fmt.Errorf("%s must be an integer", key)
			}
			*dst = n
		}
	}
	if raw := strings.TrimSpace(c.Query("bb_std")); raw != "" {
		k, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return cfg, fmt.Errorf("bb_std must be a number")
		}
		cfg.BBStdDevs = k
	}
	return cfg, cfg.Validate()
}

func parsePeriods(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid period %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}
