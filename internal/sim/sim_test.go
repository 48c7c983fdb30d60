package sim

import (
	"context"
	"testing"
	"time"

	"github.com/poddle/demotrace/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestCacheLookupHitRateConverges(t *testing.T) {
	s := NewWithSeed(DefaultCacheHitRate, 42, logging.NewNop())

	const draws = 10000
	hits := 0
	for i := 0; i < draws; i++ {
		if s.CacheLookup("books_list") {
			hits++
		}
	}

	rate := float64(hits) / draws
	assert.InDelta(t, DefaultCacheHitRate, rate, 0.02, "hit rate should converge to the configured probability")
}

func TestCacheLookupDeterministicUnderSeed(t *testing.T) {
	a := NewWithSeed(DefaultCacheHitRate, 7, logging.NewNop())
	b := NewWithSeed(DefaultCacheHitRate, 7, logging.NewNop())

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.CacheLookup("k"), b.CacheLookup("k"))
	}
}

func TestLatencyWithinRange(t *testing.T) {
	s := NewWithSeed(DefaultCacheHitRate, 1, logging.NewNop())

	elapsed := s.Latency(context.Background(), 10*time.Millisecond, 50*time.Millisecond)

	assert.GreaterOrEqual(t, elapsed, int64(10))
	// Scheduling jitter pads the upper bound.
	assert.Less(t, elapsed, int64(200))
}

func TestLatencyFixedDuration(t *testing.T) {
	s := NewWithSeed(DefaultCacheHitRate, 1, logging.NewNop())

	start := time.Now()
	elapsed := s.Latency(context.Background(), 5*time.Millisecond, 5*time.Millisecond)

	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
	assert.GreaterOrEqual(t, elapsed, int64(5))
}

func TestLatencyCutShortByCancel(t *testing.T) {
	s := NewWithSeed(DefaultCacheHitRate, 1, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	s.Latency(ctx, time.Second, time.Second)

	assert.Less(t, time.Since(start), 100*time.Millisecond, "canceled context must cut the sleep short")
}

func TestMaybeFail(t *testing.T) {
	s := NewWithSeed(DefaultCacheHitRate, 3, logging.NewNop())

	assert.False(t, s.MaybeFail(0))
	assert.True(t, s.MaybeFail(1))

	const draws = 10000
	failures := 0
	for i := 0; i < draws; i++ {
		if s.MaybeFail(0.3) {
			failures++
		}
	}
	assert.InDelta(t, 0.3, float64(failures)/draws, 0.02)
}

func TestInvalidHitRateFallsBack(t *testing.T) {
	s := NewWithSeed(0, 1, logging.NewNop())
	assert.InDelta(t, DefaultCacheHitRate, s.HitRate(), 1e-9)

	s = NewWithSeed(1.5, 1, logging.NewNop())
	assert.InDelta(t, DefaultCacheHitRate, s.HitRate(), 1e-9)
}
