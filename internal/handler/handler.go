package handler

import (
	"errors"
	"net/http"

	"trade-signal/internal/metrics"
	"trade-signal/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	tracer        trace.Tracer
	signalService *service.SignalService
	metrics       *metrics.Metrics
}

func New(
	tracer trace.Tracer,
	signalService *service.SignalService,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		tracer:        tracer,
		signalService: signalService,
		metrics:       m,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	api := r.Group("/api")
	api.GET("/signals", h.GetSignals)
	api.GET("/signals/:symbol", h.GetSignal)
	api.GET("/signals/:symbol/chart", h.GetSignalChart)
	api.POST("/signals/evaluate", h.EvaluateCandles)
	api.GET("/watchlist", h.GetWatchlist)
	api.GET("/indicators/:symbol", h.GetIndicators)
	api.PUT("/candles/:symbol", h.PutCandles)
}

// Health godoc
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidSymbol),
		errors.Is(err, service.ErrUnsupportedInterval),
		errors.Is(err, service.ErrInvalidCandles):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotEnoughBars):
		return http.StatusNotFound
	case errors.Is(err, service.ErrChartUnavailable):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) unavailable(c *gin.Context) bool {
	if h.signalService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "signal service unavailable"})
		return true
	}
	return false
}
