package main

import (
	"context"
	"log"
	"time"

	"trade-signal/internal/cache"
	"trade-signal/internal/config"
	"trade-signal/internal/db"
	mcpserver "trade-signal/internal/mcp"
	"trade-signal/internal/repository"
	"trade-signal/internal/service"
	signalengine "trade-signal/internal/signal"
	"trade-signal/pkg/tracing"

	"github.com/joho/godotenv"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	loadEnvFunc           = godotenv.Load
	loadConfigFunc        = config.Load
	initPostgresFunc      = db.InitPostgres
	initRedisFunc         = cache.InitRedis
	initTracerFunc        = tracing.InitTracer
	newCandleRepoFunc     = repository.NewCandleRepository
	newEvaluationRepoFunc = repository.NewEvaluationRepository
	newSignalEngineFunc   = signalengine.NewEngine
	newSignalServiceFunc  = service.NewSignalService
	newMCPServerFunc      = mcpserver.NewServer
	runStdioFunc          = func(ctx context.Context, server *sdkmcp.Server) error {
		return server.Run(ctx, &sdkmcp.StdioTransport{})
	}
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initPostgresFunc(ctx, cfg.DatabaseURL)
	defer db.Close()
	initRedisFunc(ctx, cfg.RedisURL)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	var (
		candleRepo     service.CandleRepository
		evaluationRepo service.EvaluationRepository
	)
	if db.Pool != nil {
		candleRepo = newCandleRepoFunc(db.Pool, tracer)
		evaluationRepo = newEvaluationRepoFunc(db.Pool, tracer)
	}

	signalService := newSignalServiceFunc(tracer, candleRepo, evaluationRepo, newSignalEngineFunc(nil), service.Settings{
		Lookback:    cfg.SignalLookback,
		Watchlist:   cfg.Watchlist,
		Interval:    cfg.WatchlistInterval,
		Concurrency: cfg.EvalConcurrency,
	})
	if cache.Client != nil {
		ttl := time.Duration(cfg.SignalCacheTTLSecs) * time.Second
		signalService = signalService.WithCache(cache.NewEvaluationCache(cache.Client, ttl))
	}

	mcpSrv := newMCPServerFunc(tracer, signalService, mcpserver.ServerConfig{
		RequestTimeout: time.Duration(cfg.MCPRequestTimeoutSecs) * time.Second,
	})

	// stdout carries the protocol; the standard logger writes to stderr.
	if err := runStdioFunc(ctx, mcpSrv); err != nil {
		log.Fatalf("mcp stdio server failed: %v", err)
	}
}
