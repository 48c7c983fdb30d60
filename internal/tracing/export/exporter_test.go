package export

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/poddle/demotrace/internal/logging"
	"github.com/poddle/demotrace/internal/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTransport records exported batches and can be gated or made to fail.
type mockTransport struct {
	mu      sync.Mutex
	batches [][]*tracing.Span
	err     error
	gate    chan struct{}
}

func (m *mockTransport) Export(ctx context.Context, spans []*tracing.Span) error {
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	batch := make([]*tracing.Span, len(spans))
	copy(batch, spans)
	m.batches = append(m.batches, batch)
	return nil
}

func (m *mockTransport) Shutdown(context.Context) error { return nil }

func (m *mockTransport) batchSizes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	sizes := make([]int, len(m.batches))
	for i, b := range m.batches {
		sizes[i] = len(b)
	}
	return sizes
}

func (m *mockTransport) exportedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, b := range m.batches {
		total += len(b)
	}
	return total
}

func endedSpans(t *testing.T, sink tracing.Sink, names ...string) {
	t.Helper()
	tracer := tracing.New("test-service", logging.NewNop(), sink)
	for _, name := range names {
		span, _ := tracer.StartSpan(context.Background(), name)
		require.NoError(t, tracer.End(span, tracing.StatusOK))
	}
}

func TestBatchThresholdFlush(t *testing.T) {
	transport := &mockTransport{gate: make(chan struct{})}
	exporter := New(transport, Config{
		QueueCapacity: 100,
		BatchSize:     2,
		FlushInterval: time.Hour,
	}, logging.NewNop(), nil)
	defer exporter.Shutdown(context.Background())

	endedSpans(t, exporter, "s1", "s2", "s3", "s4", "s5")
	close(transport.gate)

	require.Eventually(t, func() bool {
		return transport.exportedCount() == 5
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, []int{2, 2, 1}, transport.batchSizes())
	assert.Zero(t, exporter.Dropped())
}

func TestIntervalFlush(t *testing.T) {
	transport := &mockTransport{}
	exporter := New(transport, Config{
		QueueCapacity: 100,
		BatchSize:     50, // threshold never reached
		FlushInterval: 20 * time.Millisecond,
	}, logging.NewNop(), nil)
	defer exporter.Shutdown(context.Background())

	endedSpans(t, exporter, "s1", "s2")

	require.Eventually(t, func() bool {
		return transport.exportedCount() == 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestEnqueueNeverBlocksMidFlush(t *testing.T) {
	transport := &mockTransport{gate: make(chan struct{})}
	exporter := New(transport, Config{
		QueueCapacity: 100,
		BatchSize:     1,
		FlushInterval: time.Hour,
	}, logging.NewNop(), nil)
	defer func() {
		close(transport.gate)
		exporter.Shutdown(context.Background())
	}()

	// First span puts the flush loop mid-transmission, parked on the gate.
	endedSpans(t, exporter, "first")
	time.Sleep(10 * time.Millisecond)

	start := time.Now()
	endedSpans(t, exporter, "second")
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 10*time.Millisecond, "enqueue must not wait on the in-flight flush")
}

func TestQueueOverflowDropsOldest(t *testing.T) {
	transport := &mockTransport{gate: make(chan struct{})}
	exporter := New(transport, Config{
		QueueCapacity: 3,
		BatchSize:     10, // threshold never reached
		FlushInterval: time.Hour,
	}, logging.NewNop(), nil)
	defer func() {
		close(transport.gate)
		exporter.Shutdown(context.Background())
	}()

	endedSpans(t, exporter, "s1", "s2", "s3", "s4", "s5")

	assert.Equal(t, uint64(2), exporter.Dropped())
	assert.Equal(t, 3, exporter.Pending())
}

func TestUnreachableCollectorDropsBatch(t *testing.T) {
	transport := &mockTransport{err: errors.New("connection refused")}
	exporter := New(transport, Config{
		QueueCapacity: 100,
		BatchSize:     3,
		FlushInterval: time.Hour,
		MaxRetries:    2,
		RetryBackoff:  time.Millisecond,
	}, logging.NewNop(), nil)
	defer exporter.Shutdown(context.Background())

	endedSpans(t, exporter, "s1", "s2", "s3")

	require.Eventually(t, func() bool {
		return exporter.Dropped() == 3
	}, 2*time.Second, 5*time.Millisecond)

	// Failure stayed local to the exporter; nothing was delivered.
	assert.Zero(t, transport.exportedCount())
	assert.Zero(t, exporter.Pending())
}

func TestShutdownFlushesPending(t *testing.T) {
	transport := &mockTransport{}
	exporter := New(transport, Config{
		QueueCapacity: 100,
		BatchSize:     50,
		FlushInterval: time.Hour,
	}, logging.NewNop(), nil)

	endedSpans(t, exporter, "s1", "s2", "s3")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, exporter.Shutdown(ctx))

	assert.Equal(t, 3, transport.exportedCount())
	assert.Zero(t, exporter.Pending())
	assert.Zero(t, exporter.Dropped())
}

func TestShutdownDiscardsAfterDeadline(t *testing.T) {
	transport := &mockTransport{err: errors.New("collector down")}
	exporter := New(transport, Config{
		QueueCapacity: 100,
		BatchSize:     50,
		FlushInterval: time.Hour,
		MaxRetries:    1,
		RetryBackoff:  time.Millisecond,
	}, logging.NewNop(), nil)

	endedSpans(t, exporter, "s1", "s2")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, exporter.Shutdown(ctx))

	assert.Equal(t, uint64(2), exporter.Dropped())
	assert.Zero(t, exporter.Pending())
}

func TestEnqueueAfterEndIsConcurrencySafe(t *testing.T) {
	transport := &mockTransport{}
	exporter := New(transport, Config{
		QueueCapacity: 1000,
		BatchSize:     10,
		FlushInterval: 10 * time.Millisecond,
	}, logging.NewNop(), nil)
	defer exporter.Shutdown(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			endedSpans(t, exporter, "a", "b", "c")
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return transport.exportedCount() == 60
	}, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, exporter.Dropped())
}
