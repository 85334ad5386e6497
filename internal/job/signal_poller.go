package job

import (
	"context"
	"log"
	"sync"
	"time"

	"trade-signal/internal/domain"
	"trade-signal/internal/metrics"
	"trade-signal/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultPollInterval = 5 * time.Minute

type WatchlistScreener interface {
	ScreenWatchlist(ctx context.Context, interval string, filter domain.ScreenFilter) (service.ScreenResult, error)
}

type RatingNotifier interface {
	NotifyRatingChanges(ctx context.Context, changes []domain.RatingChange) error
}

// SignalPoller re-screens the watchlist on a fixed period and forwards rating
// changes to the notifier. The first screen of a symbol only seeds its rating.
type SignalPoller struct {
	tracer   trace.Tracer
	screener WatchlistScreener
	notifier RatingNotifier
	metrics  *metrics.Metrics
	every    time.Duration

	mu   sync.Mutex
	last map[string]domain.Rating
}

func NewSignalPoller(
	tracer trace.Tracer,
	screener WatchlistScreener,
	notifier RatingNotifier,
	m *metrics.Metrics,
	every time.Duration,
) *SignalPoller {
	if every <= 0 {
		every = defaultPollInterval
	}
	return &SignalPoller{
		tracer:   tracer,
		screener: screener,
		notifier: notifier,
		metrics:  m,
		every:    every,
		last:     make(map[string]domain.Rating),
	}
}

// Start screens immediately and then on every tick. Blocks until ctx is cancelled.
func (p *SignalPoller) Start(ctx context.Context) {
	if p.screener == nil {
		log.Println("Signal poller disabled: no signal service")
		<-ctx.Done()
		return
	}

	log.Printf("Signal poller starting (every %s)...", p.every)
	p.poll(ctx)

	ticker := time.NewTicker(p.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Signal poller stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *SignalPoller) poll(ctx context.Context) {
	changes, err := p.screenOnce(ctx)
	if err != nil {
		log.Printf("watchlist screen error: %v", err)
		return
	}
	if len(changes) == 0 || p.notifier == nil {
		return
	}
	if err := p.notifier.NotifyRatingChanges(ctx, changes); err != nil {
		log.Printf("rating change notify error: %v", err)
	}
}

func (p *SignalPoller) screenOnce(ctx context.Context) ([]domain.RatingChange, error) {
	ctx, span := p.tracer.Start(ctx, "signal-poller.screen")
	defer span.End()

	res, err := p.screener.ScreenWatchlist(ctx, "", domain.ScreenAll)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var changes []domain.RatingChange
	for _, eval := range res.Evaluations {
		if !eval.Result.Levels.Computed {
			continue
		}
		key := eval.Symbol + ":" + eval.Interval
		prev, seen := p.last[key]
		p.last[key] = eval.Result.Rating
		if !seen || prev == eval.Result.Rating {
			continue
		}
		changes = append(changes, domain.RatingChange{From: prev, Evaluation: eval})
		p.metrics.RatingChanged(eval.Result.Rating)
	}
	span.SetAttributes(attribute.Int("changes", len(changes)))
	return changes, nil
}
