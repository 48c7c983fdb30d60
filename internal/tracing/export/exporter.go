package export

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/poddle/demotrace/internal/logging"
	"github.com/poddle/demotrace/internal/monitoring"
	"github.com/poddle/demotrace/internal/tracing"
	"go.uber.org/zap"
)

// Transport transmits a serialized span batch to the collector.
type Transport interface {
	Export(ctx context.Context, spans []*tracing.Span) error
	Shutdown(ctx context.Context) error
}

// Config tunes the batching exporter.
type Config struct {
	// QueueCapacity bounds the pending buffer; the oldest spans are dropped
	// when it is full.
	QueueCapacity int
	// BatchSize is the flush threshold and the maximum batch per transmit.
	BatchSize int
	// FlushInterval flushes whatever is pending when no threshold is hit.
	FlushInterval time.Duration
	// MaxRetries bounds transmission attempts per batch beyond the first.
	MaxRetries int
	// RetryBackoff is the initial backoff, doubled per retry.
	RetryBackoff time.Duration
}

// DefaultConfig returns production-ready exporter configuration.
func DefaultConfig() Config {
	return Config{
		QueueCapacity: 2048,
		BatchSize:     512,
		FlushInterval: 5 * time.Second,
		MaxRetries:    3,
		RetryBackoff:  250 * time.Millisecond,
	}
}

// Exporter accumulates completed spans and flushes them to the collector in
// batches, off the request path. Enqueue never blocks and transmission
// failures never surface to request handling.
type Exporter struct {
	transport Transport
	cfg       Config
	logger    *logging.Logger
	metrics   *monitoring.Metrics

	mu  sync.Mutex
	buf []*tracing.Span

	dropped atomic.Uint64

	kick chan struct{}
	stop chan struct{}
	wg   sync.WaitGroup

	stopOnce sync.Once
}

// New creates an exporter and starts its background flush loop.
func New(transport Transport, cfg Config, logger *logging.Logger, metrics *monitoring.Metrics) *Exporter {
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = DefaultConfig().QueueCapacity
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultConfig().FlushInterval
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultConfig().RetryBackoff
	}

	e := &Exporter{
		transport: transport,
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
		buf:       make([]*tracing.Span, 0, cfg.QueueCapacity),
		kick:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
	}

	e.wg.Add(1)
	go e.loop()

	return e
}

// Enqueue appends a completed span to the pending buffer. It is O(1),
// non-blocking, and safe for concurrent use. When the buffer is full the
// oldest span is dropped and the drop counter incremented; the caller never
// sees an error.
func (e *Exporter) Enqueue(span *tracing.Span) {
	e.mu.Lock()
	if len(e.buf) >= e.cfg.QueueCapacity {
		copy(e.buf, e.buf[1:])
		e.buf = e.buf[:len(e.buf)-1]
		e.dropped.Add(1)
		e.metrics.RecordDropped(1)
	}
	e.buf = append(e.buf, span)
	pending := len(e.buf)
	e.mu.Unlock()

	e.metrics.RecordEnqueued(1)

	if pending >= e.cfg.BatchSize {
		select {
		case e.kick <- struct{}{}:
		default:
		}
	}
}

// Dropped returns the total number of spans discarded so far, whether from a
// full queue or exhausted retries.
func (e *Exporter) Dropped() uint64 {
	return e.dropped.Load()
}

// Pending returns the number of spans awaiting transmission.
func (e *Exporter) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.buf)
}

// Shutdown stops the flush loop and attempts one final flush bounded by the
// context deadline. Spans still pending after the deadline are discarded.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.stopOnce.Do(func() { close(e.stop) })
	e.wg.Wait()

	e.flush(ctx)

	// Whatever survived the bounded final flush is discarded.
	e.mu.Lock()
	remaining := len(e.buf)
	e.buf = nil
	e.mu.Unlock()
	if remaining > 0 {
		e.dropped.Add(uint64(remaining))
		e.metrics.RecordDropped(remaining)
		e.logger.Warn("discarding spans pending at shutdown", zap.Int("count", remaining))
	}

	return e.transport.Shutdown(ctx)
}

// loop drains the buffer whenever the batch threshold is reached or the
// flush interval elapses, whichever comes first.
func (e *Exporter) loop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.kick:
			e.flush(context.Background())
		case <-ticker.C:
			e.flush(context.Background())
		case <-e.stop:
			return
		}
	}
}

// flush transmits the entire pending buffer in batch-sized chunks. The
// buffer lock is held only while draining, never during transmission, so
// Enqueue stays non-blocking mid-flush.
func (e *Exporter) flush(ctx context.Context) {
	for {
		batch := e.drain()
		if len(batch) == 0 {
			return
		}
		e.send(ctx, batch)
	}
}

// drain removes up to one batch from the buffer.
func (e *Exporter) drain() []*tracing.Span {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.buf)
	if n == 0 {
		return nil
	}
	if n > e.cfg.BatchSize {
		n = e.cfg.BatchSize
	}

	batch := make([]*tracing.Span, n)
	copy(batch, e.buf)
	e.buf = append(e.buf[:0], e.buf[n:]...)
	return batch
}

// send transmits one batch with bounded retry and exponential backoff. After
// the retry budget is exhausted the batch is discarded and counted; errors
// never propagate to callers.
func (e *Exporter) send(ctx context.Context, batch []*tracing.Span) {
	backoff := e.cfg.RetryBackoff

	var lastErr error
	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if lastErr = e.transport.Export(ctx, batch); lastErr == nil {
			e.metrics.RecordExported(len(batch))
			e.metrics.RecordFlush(false)
			return
		}
		if attempt == e.cfg.MaxRetries {
			break
		}
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			// No retry budget once the shutdown deadline passes.
			lastErr = ctx.Err()
			attempt = e.cfg.MaxRetries
		}
	}

	e.dropped.Add(uint64(len(batch)))
	e.metrics.RecordDropped(len(batch))
	e.metrics.RecordFlush(true)
	e.logger.Warn("dropping span batch after exhausting retries",
		zap.Int("batch_size", len(batch)),
		zap.Int("retries", e.cfg.MaxRetries),
		zap.Error(lastErr),
	)
}
