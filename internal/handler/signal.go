package handler

import (
	"net/http"
	"strconv"
	"strings"

	"trade-signal/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const maxRequestCandles = 5000

type evaluateRequest struct {
	Symbol   string          `json:"symbol"`
	Interval string          `json:"interval"`
	Candles  []domain.Candle `json:"candles" binding:"required"`
}

// GetSignal godoc
// @Summary      Evaluate a symbol
// @Description  Scores the latest stored bar with the seven-rule evaluator
// @Tags         signals
// @Produce      json
// @Param        symbol    path   string  true   "Instrument symbol (e.g., AAPL)"
// @Param        interval  query  string  false  "Bar interval (5m, 15m, 1h, 4h, 1d, 1w)"
// @Success      200  {object}  domain.Evaluation
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/signals/{symbol} [get]
func (h *Handler) GetSignal(c *gin.Context) {
	if h.unavailable(c) {
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signal")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", c.Param("symbol")))

	eval, err := h.signalService.Evaluate(ctx, c.Param("symbol"), c.Query("interval"))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, eval)
}

// EvaluateCandles godoc
// @Summary      Evaluate supplied candles
// @Description  Scores caller-supplied bars (ascending time order) without touching storage
// @Tags         signals
// @Accept       json
// @Produce      json
// @Param        request  body  evaluateRequest  true  "Bars to score"
// @Success      200  {object}  domain.Evaluation
// @Failure      400  {object}  map[string]string
// @Router       /api/signals/evaluate [post]
func (h *Handler) EvaluateCandles(c *gin.Context) {
	if h.unavailable(c) {
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.evaluate-candles")
	defer span.End()

	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(req.Candles) > maxRequestCandles {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at most " + strconv.Itoa(maxRequestCandles) + " candles per request"})
		return
	}

	eval, err := h.signalService.EvaluateCandles(ctx, req.Symbol, req.Interval, req.Candles)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, eval)
}

// GetSignals godoc
// @Summary      Evaluation history
// @Description  Returns stored evaluations, optionally filtered by symbol/interval/rating
// @Tags         signals
// @Produce      json
// @Param        symbol    query  string  false  "Instrument symbol"
// @Param        interval  query  string  false  "Bar interval"
// @Param        rating    query  string  false  "BUY, SELL or HOLD"
// @Param        limit     query  int     false  "Number of evaluations (default 50, max 200)"  default(50)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/signals [get]
func (h *Handler) GetSignals(c *gin.Context) {
	if h.unavailable(c) {
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signals")
	defer span.End()

	filter := domain.EvaluationFilter{
		Symbol:   strings.TrimSpace(c.Query("symbol")),
		Interval: strings.TrimSpace(c.Query("interval")),
		Rating:   domain.Rating(strings.ToUpper(strings.TrimSpace(c.Query("rating")))),
	}
	if filter.Symbol != "" {
		span.SetAttributes(attribute.String("symbol", filter.Symbol))
	}
	if filter.Rating != "" && !filter.Rating.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be BUY, SELL or HOLD"})
		return
	}

	limit := 50
	if rawLimit := strings.TrimSpace(c.Query("limit")); rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n <= 0 || n > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
			return
		}
		limit = n
	}
	filter.Limit = limit

	evals, err := h.signalService.ListEvaluations(ctx, filter)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	if evals == nil {
		evals = []domain.Evaluation{}
	}
	c.JSON(http.StatusOK, gin.H{"evaluations": evals})
}

// GetWatchlist godoc
// @Summary      Screen the watchlist
// @Description  Evaluates every watchlist symbol and returns the filtered view with stats
// @Tags         signals
// @Produce      json
// @Param        interval  query  string  false  "Bar interval"
// @Param        filter    query  string  false  "all, bullish, bearish or oversold"
// @Success      200  {object}  service.ScreenResult
// @Failure      400  {object}  map[string]string
// @Router       /api/watchlist [get]
func (h *Handler) GetWatchlist(c *gin.Context) {
	if h.unavailable(c) {
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-watchlist")
	defer span.End()

	filter, ok := domain.ParseScreenFilter(c.Query("filter"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filter must be one of all, bullish, bearish, oversold"})
		return
	}

	res, err := h.signalService.ScreenWatchlist(ctx, strings.TrimSpace(c.Query("interval")), filter)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}
