package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"trade-signal/internal/domain"
	"trade-signal/internal/signal"
)

var defaultWatchlist = []string{"AAPL", "MSFT", "TSLA", "NVDA", "SPY"}

type Config struct {
	TelegramBotToken string
	DatabaseURL      string
	RedisURL         string
	HTTPPort         int
	CORSOrigins      []string

	SignalPollSecs     int
	SignalCacheTTLSecs int
	SignalLookback     int
	Watchlist          []string
	WatchlistInterval  string
	EvalConcurrency    int

	MCPRequestTimeoutSecs int
}

func Load() *Config {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, alerts bot disabled")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	cfg.HTTPPort = positiveInt("HTTP_PORT", 8080)
	cfg.CORSOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	cfg.SignalPollSecs = positiveInt("SIGNAL_POLL_SECS", 300)
	cfg.SignalCacheTTLSecs = positiveInt("SIGNAL_CACHE_TTL_SECS", 120)

	cfg.SignalLookback = positiveInt("SIGNAL_LOOKBACK", 250)
	if cfg.SignalLookback < signal.MinBars {
		log.Printf("Warning: SIGNAL_LOOKBACK=%d below evaluator minimum, using %d", cfg.SignalLookback, signal.MinBars)
		cfg.SignalLookback = signal.MinBars
	}

	cfg.Watchlist = parseWatchlist(os.Getenv("WATCHLIST"))

	cfg.WatchlistInterval = strings.TrimSpace(os.Getenv("WATCHLIST_INTERVAL"))
	if cfg.WatchlistInterval == "" {
		cfg.WatchlistInterval = "1d"
	}
	if !domain.IsSupportedInterval(cfg.WatchlistInterval) {
		log.Printf("Warning: unsupported WATCHLIST_INTERVAL=%q, defaulting to 1d", cfg.WatchlistInterval)
		cfg.WatchlistInterval = "1d"
	}

	cfg.EvalConcurrency = positiveInt("EVAL_CONCURRENCY", 4)
	cfg.MCPRequestTimeoutSecs = positiveInt("MCP_REQUEST_TIMEOUT_SECS", 5)

	return cfg
}

func positiveInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, defaulting to %d", key, v, fallback)
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseWatchlist(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return append([]string(nil), defaultWatchlist...)
	}

	parts := splitList(raw)
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		symbol, ok := domain.NormalizeSymbol(part)
		if !ok {
			log.Printf("Warning: skipping invalid watchlist symbol %q", part)
			continue
		}
		if _, dup := seen[symbol]; dup {
			continue
		}
		seen[symbol] = struct{}{}
		out = append(out, symbol)
	}
	if len(out) == 0 {
		return append([]string(nil), defaultWatchlist...)
	}
	return out
}
