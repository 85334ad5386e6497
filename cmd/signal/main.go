package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"trade-signal/internal/cache"
	"trade-signal/internal/domain"
	"trade-signal/internal/repository"
	"trade-signal/internal/service"
	signalengine "trade-signal/internal/signal"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

var (
	loadEnvFunc = godotenv.Load
	openPool    = func(ctx context.Context, dsn string) (repository.PgxPool, func(), error) {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pool, pool.Close, nil
	}
	newRedisClient = func(addr string) *redis.Client {
		return redis.NewClient(&redis.Options{Addr: addr})
	}
	stdout io.Writer = os.Stdout
)

type options struct {
	file     string
	symbol   string
	interval string
	store    bool
	plain    bool
}

func main() {
	loadEnvFunc()

	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		log.Fatalf("parse options: %v", err)
	}
	if err := run(context.Background(), opts, os.Getenv); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, opts options, getenv func(string) string) error {
	f, err := os.Open(opts.file)
	if err != nil {
		return fmt.Errorf("open bars: %w", err)
	}
	defer f.Close()

	candles, err := readCandles(f, opts.symbol, opts.interval)
	if err != nil {
		return fmt.Errorf("read bars from %s: %w", opts.file, err)
	}

	if opts.store {
		if err := storeCandles(ctx, candles, getenv); err != nil {
			return err
		}
	}

	result := signalengine.NewEngine(nil).Evaluate(candles)
	eval := domain.Evaluation{
		Symbol:   opts.symbol,
		Interval: opts.interval,
		Bars:     len(candles),
		Result:   result,
	}
	if n := len(candles); n > 0 {
		eval.BarTime = candles[n-1].OpenTime
	}

	_, err = fmt.Fprintln(stdout, renderReport(eval, !opts.plain))
	return err
}

func storeCandles(ctx context.Context, candles []domain.Candle, getenv func(string) string) error {
	dsn := strings.TrimSpace(getenv("DATABASE_URL"))
	if dsn == "" {
		return fmt.Errorf("DATABASE_URL is required with --store")
	}
	if len(candles) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	pool, closePool, err := openPool(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer closePool()

	tracer := trace.NewNoopTracerProvider().Tracer("signal-cli")
	repo := repository.NewCandleRepository(pool, tracer)
	if err := repo.RunMigrations(ctx); err != nil {
		return fmt.Errorf("run candle migrations: %w", err)
	}

	svc := service.NewSignalService(tracer, repo, nil, signalengine.NewEngine(nil), service.Settings{})
	if addr := strings.TrimSpace(getenv("REDIS_URL")); addr != "" {
		client := newRedisClient(addr)
		defer client.Close()
		svc = svc.WithCache(cache.NewEvaluationCache(client, 0))
	}

	symbol, interval := candles[0].Symbol, candles[0].Interval
	n, err := svc.IngestCandles(ctx, symbol, interval, candles)
	if err != nil {
		return fmt.Errorf("store candles: %w", err)
	}
	log.Printf("stored %d candles for %s %s", n, symbol, interval)
	return nil
}

func parseOptions(args []string) (options, error) {
	fs := flag.NewFlagSet("signal", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	file := fs.String("file", "", "CSV file of bars: time,open,high,low,close,volume (oldest first)")
	symbol := fs.String("symbol", "ADHOC", "symbol the bars belong to")
	interval := fs.String("interval", "1d", "bar interval: "+strings.Join(domain.SupportedIntervals, ", "))
	store := fs.Bool("store", false, "also upsert the bars into Postgres (requires DATABASE_URL; drops the cached evaluation when REDIS_URL is set)")
	plain := fs.Bool("plain", false, "disable colors and borders")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if *file == "" && fs.NArg() == 1 {
		*file = fs.Arg(0)
	}
	if strings.TrimSpace(*file) == "" {
		return options{}, fmt.Errorf("a bars file is required")
	}

	sym, ok := domain.NormalizeSymbol(*symbol)
	if !ok {
		return options{}, fmt.Errorf("invalid symbol: %s", *symbol)
	}
	iv := strings.ToLower(strings.TrimSpace(*interval))
	if !domain.IsSupportedInterval(iv) {
		return options{}, fmt.Errorf("unsupported interval: %s", *interval)
	}

	return options{
		file:     *file,
		symbol:   sym,
		interval: iv,
		store:    *store,
		plain:    *plain,
	}, nil
}
