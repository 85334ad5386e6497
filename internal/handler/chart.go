package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetSignalChart godoc
// @Summary      Evaluation chart
// @Description  PNG of the recent bars with Bollinger bands, trend SMA, trade levels, RSI and MACD histogram
// @Tags         signals
// @Produce      png
// @Param        symbol    path   string  true   "Instrument symbol"
// @Param        interval  query  string  false  "Bar interval"
// @Success      200
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/signals/{symbol}/chart [get]
func (h *Handler) GetSignalChart(c *gin.Context) {
	if h.unavailable(c) {
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signal-chart")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", c.Param("symbol")))

	png, eval, err := h.signalService.Chart(ctx, c.Param("symbol"), c.Query("interval"))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Header("X-Signal-Rating", string(eval.Result.Rating))
	c.Header("X-Signal-Confidence", strconv.Itoa(eval.Result.Confidence))
	c.Data(http.StatusOK, "image/png", png)
}
