package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"trade-signal/internal/bot"
	"trade-signal/internal/cache"
	"trade-signal/internal/chart"
	"trade-signal/internal/config"
	"trade-signal/internal/db"
	"trade-signal/internal/handler"
	"trade-signal/internal/job"
	"trade-signal/internal/metrics"
	"trade-signal/internal/repository"
	"trade-signal/internal/service"
	signalengine "trade-signal/internal/signal"
	"trade-signal/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "trade-signal/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newCandleRepoFunc      = repository.NewCandleRepository
	newEvaluationRepoFunc  = repository.NewEvaluationRepository
	newSignalEngineFunc    = signalengine.NewEngine
	newSignalServiceFunc   = service.NewSignalService
	newChartRendererFunc   = chart.NewRenderer
	newMetricsFunc         = metrics.New
	newSignalPollerFunc    = job.NewSignalPoller
	startSignalPollerFunc  = func(p *job.SignalPoller, ctx context.Context) { go p.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Trade Signal API
// @version         1.0
// @description     Rule-based BUY/SELL/HOLD ratings with trade levels over OHLCV bars.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	initPostgresFunc(ctx, cfg.DatabaseURL)
	defer db.Close()
	initRedisFunc(ctx, cfg.RedisURL)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Repositories are only wired when Postgres is connected
	var (
		candleRepo     service.CandleRepository
		evaluationRepo service.EvaluationRepository
	)
	if db.Pool != nil {
		candles := newCandleRepoFunc(db.Pool, tracer)
		evaluations := newEvaluationRepoFunc(db.Pool, tracer)
		if err := candles.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run candle migrations: %v", err)
		}
		if err := evaluations.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run evaluation migrations: %v", err)
		}
		candleRepo, evaluationRepo = candles, evaluations
	}

	m := newMetricsFunc(nil)
	signalService := newSignalServiceFunc(tracer, candleRepo, evaluationRepo, newSignalEngineFunc(nil), service.Settings{
		Lookback:    cfg.SignalLookback,
		Watchlist:   cfg.Watchlist,
		Interval:    cfg.WatchlistInterval,
		Concurrency: cfg.EvalConcurrency,
	}).WithMetrics(m).WithChartRenderer(newChartRendererFunc())
	if cache.Client != nil {
		ttl := time.Duration(cfg.SignalCacheTTLSecs) * time.Second
		signalService = signalService.WithCache(cache.NewEvaluationCache(cache.Client, ttl))
	}

	// Telegram bot doubles as the rating change notifier
	var notifier job.RatingNotifier
	if alerts := startTelegramBotFunc(cfg.TelegramBotToken, signalService); alerts != nil {
		notifier = alerts
	}

	// Start background poller (stopped by ctx cancel)
	poller := newSignalPollerFunc(tracer, signalService, notifier, m, time.Duration(cfg.SignalPollSecs)*time.Second)
	startSignalPollerFunc(poller, ctx)

	h := newHandlerFunc(tracer, signalService, m)

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	}
	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    httpAddr(cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

func httpAddr(port int) string {
	if port <= 0 {
		port = 8080
	}
	return fmt.Sprintf(":%d", port)
}

func corsConfig(origins []string) cors.Config {
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
}
