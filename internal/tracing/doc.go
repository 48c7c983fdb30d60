/*
Package tracing implements the span harness used by every demo tenant: it
decomposes one inbound request into a tree of named, attributed, timed spans
and hands completed spans to a batched export pipeline.

# Overview

A Tracer opens spans against a context.Context. The context carries the trace
ID and the current span ID, so starting a span under an active one makes it a
child; starting one on a bare context mints a fresh trace and makes the span
the root. Completed spans transfer to the export sink; the tracer never keeps
them.

# Features

- Context-driven parent/child span nesting, one tree per request
- Scalar attributes, OK/ERROR status, recorded failure details
- Request scopes that force-close leaked spans on abort paths
- Trace context propagation via X-Trace-ID / X-Span-ID headers
- Gin middleware opening a root span per inbound request

# Usage

	tracer := tracing.New("bookshop-service", logger, exporter)

	// HTTP middleware
	router.Use(tracing.HTTPMiddleware(tracer))

	// Manual span creation
	span, ctx := tracer.StartSpan(ctx, "database_query")
	span.SetAttribute("table", "books")
	if err := query(ctx); err != nil {
		tracer.RecordFailure(span, err)
	}
	tracer.End(span, tracing.StatusOK)

# Error Handling

Business failures are recorded on spans via RecordFailure and surface to the
caller as ordinary failed results. Ending a span twice is harness misuse: it
returns ErrDoubleEnd, panics under zap's development mode, and never enqueues
a duplicate.

# Concurrency

Tracers and spans are safe for concurrent use. Concurrent requests never
share a scope or a current span; the export sink is the only resource shared
across requests.
*/
package tracing
