package sim

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/poddle/demotrace/internal/logging"
	"go.uber.org/zap"
)

// DefaultCacheHitRate matches the demo constant the tenants were written
// against: roughly one hit in three lookups.
const DefaultCacheHitRate = 1.0 / 3.0

// Simulator produces the synthetic behavior behind the demo handlers:
// randomized latency, cache hit/miss decisions, and injected failures. It
// holds no persisted state; its only effects are a wall-clock suspension and
// a pseudorandom draw.
type Simulator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	hitRate float64
	logger  *logging.Logger
}

// New creates a simulator seeded from the clock.
func New(hitRate float64, logger *logging.Logger) *Simulator {
	return NewWithSeed(hitRate, time.Now().UnixNano(), logger)
}

// NewWithSeed creates a deterministic simulator. Tests fix the seed to
// assert exact hit rates and latencies.
func NewWithSeed(hitRate float64, seed int64, logger *logging.Logger) *Simulator {
	if hitRate <= 0 || hitRate > 1 {
		hitRate = DefaultCacheHitRate
	}
	return &Simulator{
		rng:     rand.New(rand.NewSource(seed)),
		hitRate: hitRate,
		logger:  logger,
	}
}

// Latency draws a duration uniformly from [min, max], suspends the calling
// goroutine for it, and returns the milliseconds actually elapsed. The sleep
// is cut short if the context is canceled; the caller still gets the elapsed
// value for attribute logging.
func (s *Simulator) Latency(ctx context.Context, min, max time.Duration) int64 {
	d := min
	if max > min {
		d = min + time.Duration(s.draw(int64(max-min+1)))
	}

	start := time.Now()
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}

	elapsed := time.Since(start).Milliseconds()
	s.logger.Debug("simulated operation latency",
		zap.Duration("target", d),
		zap.Int64("elapsed_ms", elapsed),
	)
	return elapsed
}

// CacheLookup reports a cache hit with the configured probability,
// independently across calls.
func (s *Simulator) CacheLookup(key string) bool {
	hit := s.drawFloat() < s.hitRate
	if hit {
		s.logger.Debug("cache hit", zap.String("key", key))
	} else {
		s.logger.Debug("cache miss", zap.String("key", key))
	}
	return hit
}

// MaybeFail returns true with the given probability, letting a handler
// synthesize an error branch without corrupting any real state. The result
// is an explicit value; acting on it is the caller's policy.
func (s *Simulator) MaybeFail(probability float64) bool {
	if probability <= 0 {
		return false
	}
	if probability >= 1 {
		return true
	}
	return s.drawFloat() < probability
}

// HitRate returns the configured cache hit probability.
func (s *Simulator) HitRate() float64 {
	return s.hitRate
}

func (s *Simulator) draw(n int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Int63n(n)
}

func (s *Simulator) drawFloat() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}
