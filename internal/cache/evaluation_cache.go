package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"trade-signal/internal/domain"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when no fresh evaluation is cached for a key.
var ErrMiss = errors.New("cache miss")

const keyPrefix = "signal:"

// EvaluationCache keeps the latest evaluation per symbol and interval in Redis
// so repeated requests inside the TTL skip the candle fetch and rule battery.
type EvaluationCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewEvaluationCache(client redis.Cmdable, ttl time.Duration) *EvaluationCache {
	return &EvaluationCache{client: client, ttl: ttl}
}

func Key(symbol, interval string) string {
	return keyPrefix + strings.ToUpper(symbol) + ":" + interval
}

func (c *EvaluationCache) Get(ctx context.Context, symbol, interval string) (domain.Evaluation, error) {
	var eval domain.Evaluation
	data, err := c.client.Get(ctx, Key(symbol, interval)).Bytes()
	if errors.Is(err, redis.Nil) {
		return eval, ErrMiss
	}
	if err != nil {
		return eval, fmt.Errorf("redis get %s: %w", Key(symbol, interval), err)
	}
	if err := json.Unmarshal(data, &eval); err != nil {
		return eval, fmt.Errorf("decode cached evaluation: %w", err)
	}
	return eval, nil
}

func (c *EvaluationCache) Set(ctx context.Context, eval domain.Evaluation) error {
	data, err := json.Marshal(eval)
	if err != nil {
		return fmt.Errorf("encode evaluation: %w", err)
	}
	key := Key(eval.Symbol, eval.Interval)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Invalidate drops the cached evaluation, used after new candles arrive.
func (c *EvaluationCache) Invalidate(ctx context.Context, symbol, interval string) error {
	if err := c.client.Del(ctx, Key(symbol, interval)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", Key(symbol, interval), err)
	}
	return nil
}
