package tracing

import (
	"context"
	"errors"
	"time"

	"github.com/poddle/demotrace/internal/logging"
	"github.com/poddle/demotrace/internal/shared/id"
	"go.uber.org/zap"
)

// ErrDoubleEnd signals that End was called twice on the same span. This is a
// programming error, distinct from business failures recorded on a span.
var ErrDoubleEnd = errors.New("span already ended")

// errLeaked is recorded on spans that were still open when their request
// scope closed.
var errLeaked = errors.New("span was not ended by its operation")

// Sink receives completed spans. Implemented by the batch exporter.
type Sink interface {
	Enqueue(span *Span)
}

// Tracer builds span trees for inbound requests and hands completed spans to
// the export sink.
type Tracer struct {
	service string
	logger  *logging.Logger
	sink    Sink
	ids     *id.Generator
}

// New creates a new tracer instance
func New(service string, logger *logging.Logger, sink Sink) *Tracer {
	return &Tracer{
		service: service,
		logger:  logger,
		sink:    sink,
		ids:     id.Default(),
	}
}

// NewWithGenerator creates a tracer using a custom ID generator.
// Useful for testing with deterministic entropy.
func NewWithGenerator(service string, logger *logging.Logger, sink Sink, gen *id.Generator) *Tracer {
	return &Tracer{
		service: service,
		logger:  logger,
		sink:    sink,
		ids:     gen,
	}
}

// StartSpan creates and opens a span. If the context carries an active span,
// the new span becomes its child and inherits the trace ID; otherwise a new
// trace ID is minted and the span is the root of a new trace.
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	traceID := GetTraceID(ctx)
	if traceID == "" {
		traceID = t.ids.TraceID()
	}
	parentID := GetSpanID(ctx)

	span := &Span{
		TraceID:    traceID,
		SpanID:     t.ids.SpanID(),
		ParentID:   parentID,
		Name:       name,
		Service:    t.service,
		StartTime:  time.Now(),
		attributes: make(map[string]interface{}),
	}

	if sc := scopeFrom(ctx); sc != nil {
		sc.track(span)
		span.scope = sc
	}

	newCtx := context.WithValue(ctx, traceIDKey, traceID)
	newCtx = context.WithValue(newCtx, spanIDKey, span.SpanID)

	return span, newCtx
}

// End stamps the end time, finalizes the status, and transfers the span to
// the export sink. A failure recorded earlier via RecordFailure is never
// overwritten by the status passed here.
//
// Ending a span twice returns ErrDoubleEnd and does not enqueue a duplicate.
// In development builds this also panics (via zap's DPanic) so harness misuse
// fails loudly in tests while degrading to a logged anomaly in production.
func (t *Tracer) End(span *Span, status Status) error {
	if !span.tryEnd(status) {
		t.logger.DPanic("span ended twice",
			zap.String("trace_id", span.TraceID.String()),
			zap.String("span_id", span.SpanID.String()),
			zap.String("operation", span.Name),
		)
		return ErrDoubleEnd
	}

	if span.scope != nil {
		span.scope.untrack(span)
	}
	t.sink.Enqueue(span)
	return nil
}

// RecordFailure sets the span status to ERROR and records the failure cause
// without ending the span. Callable any number of times before End; the last
// cause wins.
func (t *Tracer) RecordFailure(span *Span, cause error) {
	span.recordFailure(cause)
	t.logger.Debug("failure recorded on span",
		zap.String("trace_id", span.TraceID.String()),
		zap.String("operation", span.Name),
		zap.Error(cause),
	)
}

// CloseLeaked force-ends every span still open in the scope, most recently
// started first so children close before their parents. Leaked spans are
// flushed with the current time as their end and status ERROR, and each one
// is logged as a harness-level anomaly. Returns the number of spans closed.
func (t *Tracer) CloseLeaked(sc *Scope) int {
	leaked := sc.drain()
	for i := len(leaked) - 1; i >= 0; i-- {
		span := leaked[i]
		t.logger.Warn("span leaked by handler, force-closing",
			zap.String("trace_id", span.TraceID.String()),
			zap.String("span_id", span.SpanID.String()),
			zap.String("operation", span.Name),
		)
		span.recordFailure(errLeaked)
		if span.tryEnd(StatusError) {
			t.sink.Enqueue(span)
		}
	}
	return len(leaked)
}

// Service returns the service name spans are attributed to.
func (t *Tracer) Service() string {
	return t.service
}
