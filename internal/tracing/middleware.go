package tracing

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HTTPMiddleware creates Gin middleware that opens a root span per inbound
// request, propagates trace context via headers, and closes any spans the
// handler leaked before the request finishes.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		headers := map[string]string{
			HeaderTraceID: c.GetHeader(HeaderTraceID),
			HeaderSpanID:  c.GetHeader(HeaderSpanID),
		}
		traceID, parentID := ExtractTraceContext(headers)

		ctx := c.Request.Context()
		if traceID != "" {
			ctx = ContextWithRemoteParent(ctx, traceID, parentID)
		}

		name := c.FullPath()
		if name == "" {
			name = c.Request.URL.Path
		}

		// The root span is started before the scope is installed so the
		// scope only tracks handler-opened spans; the root is closed by the
		// middleware itself.
		span, ctx := tracer.StartSpan(ctx, name)
		span.SetAttribute("http.method", c.Request.Method)
		span.SetAttribute("http.url", c.Request.URL.String())
		span.SetAttribute("http.host", c.Request.Host)

		ctx, scope := NewScope(ctx)
		c.Request = c.Request.WithContext(ctx)

		c.Header(HeaderTraceID, span.TraceID.String())
		c.Header(HeaderSpanID, span.SpanID.String())

		c.Next()

		// Children leaked by aborted or buggy handlers close before the
		// root so interval containment holds.
		tracer.CloseLeaked(scope)

		status := c.Writer.Status()
		span.SetAttribute("http.status_code", status)

		switch {
		case len(c.Errors) > 0:
			tracer.RecordFailure(span, c.Errors.Last())
		case status >= http.StatusBadRequest:
			tracer.RecordFailure(span, fmt.Errorf("http request failed with status %d", status))
		}

		// Root spans are owned by the middleware; a double-end here means a
		// handler reached into the root span and is already logged by End.
		_ = tracer.End(span, StatusOK)
	}
}
