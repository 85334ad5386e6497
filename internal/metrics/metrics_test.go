package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"trade-signal/internal/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveEvaluation(t *testing.T) {
	m := New(nil)

	m.ObserveEvaluation(domain.SignalResult{Rating: domain.RatingBuy, Confidence: 60, Levels: domain.Levels{Computed: true}}, time.Millisecond)
	m.ObserveEvaluation(domain.SignalResult{Rating: domain.RatingHold}, time.Millisecond)

	if got := testutil.ToFloat64(m.EvaluationsTotal.WithLabelValues("BUY")); got != 1 {
		t.Fatalf("expected 1 BUY evaluation, got %f", got)
	}
	if got := testutil.ToFloat64(m.EvaluationsTotal.WithLabelValues("HOLD")); got != 1 {
		t.Fatalf("expected 1 HOLD evaluation, got %f", got)
	}
	if got := testutil.ToFloat64(m.ShortHistoryTotal); got != 1 {
		t.Fatalf("expected 1 short-history evaluation, got %f", got)
	}
	if n := testutil.CollectAndCount(m.Confidence); n != 1 {
		t.Fatalf("expected confidence histogram to be collected, got %d", n)
	}
}

func TestCacheCounters(t *testing.T) {
	m := New(nil)
	m.CacheHit()
	m.CacheHit()
	m.CacheMiss()
	m.CacheError()

	if got := testutil.ToFloat64(m.CacheRequests.WithLabelValues("hit")); got != 2 {
		t.Fatalf("expected 2 hits, got %f", got)
	}
	if got := testutil.ToFloat64(m.CacheRequests.WithLabelValues("miss")); got != 1 {
		t.Fatalf("expected 1 miss, got %f", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveEvaluation(domain.SignalResult{}, time.Second)
	m.CacheHit()
	m.CacheMiss()
	m.CacheError()
	m.RatingChanged(domain.RatingSell)
	if m.Handler() == nil {
		t.Fatal("expected default handler")
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New(nil)
	m.RatingChanged(domain.RatingSell)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `signal_rating_changes_total{to="SELL"} 1`) {
		t.Fatalf("expected rating change in exposition, got:\n%s", body)
	}
}
