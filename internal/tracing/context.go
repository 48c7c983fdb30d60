package tracing

import (
	"context"
	"fmt"
	"sync"

	"github.com/poddle/demotrace/internal/shared/id"
)

// Context keys for trace propagation
type contextKey string

const (
	traceIDKey contextKey = "trace_id"
	spanIDKey  contextKey = "span_id"
	scopeKey   contextKey = "trace_scope"
)

// GetTraceID retrieves the trace ID from context
func GetTraceID(ctx context.Context) id.TraceID {
	if traceID, ok := ctx.Value(traceIDKey).(id.TraceID); ok {
		return traceID
	}
	return ""
}

// GetSpanID retrieves the current span ID from context
func GetSpanID(ctx context.Context) id.SpanID {
	if spanID, ok := ctx.Value(spanIDKey).(id.SpanID); ok {
		return spanID
	}
	return ""
}

// ContextWithRemoteParent seeds a context with trace identifiers received
// from an upstream caller, so the next StartSpan continues the remote trace.
func ContextWithRemoteParent(ctx context.Context, traceID id.TraceID, parentID id.SpanID) context.Context {
	ctx = context.WithValue(ctx, traceIDKey, traceID)
	if parentID != "" {
		ctx = context.WithValue(ctx, spanIDKey, parentID)
	}
	return ctx
}

// ExtractTraceContext reads propagation headers into trace identifiers.
// Malformed identifiers are discarded rather than propagated.
func ExtractTraceContext(headers map[string]string) (id.TraceID, id.SpanID) {
	var traceID id.TraceID
	var spanID id.SpanID
	if v := headers[HeaderTraceID]; id.IsValidTraceID(v) {
		traceID = id.TraceID(v)
	}
	if v := headers[HeaderSpanID]; id.IsValidSpanID(v) {
		spanID = id.SpanID(v)
	}
	return traceID, spanID
}

// InjectTraceContext writes the context's trace identifiers into headers.
func InjectTraceContext(ctx context.Context, headers map[string]string) {
	if traceID := GetTraceID(ctx); traceID != "" {
		headers[HeaderTraceID] = traceID.String()
	}
	if spanID := GetSpanID(ctx); spanID != "" {
		headers[HeaderSpanID] = spanID.String()
	}
}

// Propagation headers
const (
	HeaderTraceID = "X-Trace-ID"
	HeaderSpanID  = "X-Span-ID"
)

// FormatTrace returns a formatted trace string for logging
func FormatTrace(traceID id.TraceID, spanID id.SpanID) string {
	return fmt.Sprintf("[trace:%s span:%s]", traceID, spanID)
}

// Scope tracks every span opened while handling one logical request so that
// spans leaked on early-return, failure, or client-abort paths can be closed
// out instead of dangling forever. Each request gets its own scope; scopes
// are never shared across requests.
type Scope struct {
	mu   sync.Mutex
	open []*Span
}

// NewScope installs a fresh request scope on the context.
func NewScope(ctx context.Context) (context.Context, *Scope) {
	sc := &Scope{}
	return context.WithValue(ctx, scopeKey, sc), sc
}

// scopeFrom returns the request scope on the context, or nil.
func scopeFrom(ctx context.Context) *Scope {
	sc, _ := ctx.Value(scopeKey).(*Scope)
	return sc
}

func (sc *Scope) track(span *Span) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.open = append(sc.open, span)
}

func (sc *Scope) untrack(span *Span) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for i, s := range sc.open {
		if s == span {
			sc.open = append(sc.open[:i], sc.open[i+1:]...)
			return
		}
	}
}

// OpenCount returns the number of spans still open in this scope.
func (sc *Scope) OpenCount() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.open)
}

// drain removes and returns all still-open spans, in start order.
func (sc *Scope) drain() []*Span {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	out := sc.open
	sc.open = nil
	return out
}
