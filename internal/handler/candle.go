package handler

import (
	"net/http"
	"strconv"

	"trade-signal/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type candlesRequest struct {
	Candles []domain.Candle `json:"candles" binding:"required"`
}

// PutCandles godoc
// @Summary      Store candles
// @Description  Upserts bars for a symbol and interval; the cached evaluation is dropped
// @Tags         candles
// @Accept       json
// @Produce      json
// @Param        symbol    path   string  true   "Instrument symbol"
// @Param        interval  query  string  false  "Bar interval"
// @Param        request   body   candlesRequest  true  "Bars to store"
// @Success      200  {object}  map[string]int
// @Failure      400  {object}  map[string]string
// @Router       /api/candles/{symbol} [put]
func (h *Handler) PutCandles(c *gin.Context) {
	if h.unavailable(c) {
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.put-candles")
	defer span.End()

	var req candlesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(req.Candles) > maxRequestCandles {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at most " + strconv.Itoa(maxRequestCandles) + " candles per request"})
		return
	}
	span.SetAttributes(attribute.Int("candles", len(req.Candles)))

	n, err := h.signalService.IngestCandles(ctx, c.Param("symbol"), c.Query("interval"), req.Candles)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stored": n})
}
