package export

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poddle/demotrace/internal/logging"
	"github.com/poddle/demotrace/internal/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectSpans(t *testing.T, n int) []*tracing.Span {
	t.Helper()
	sink := &captureAll{}
	tracer := tracing.New("todo-service", logging.NewNop(), sink)
	for i := 0; i < n; i++ {
		span, _ := tracer.StartSpan(context.Background(), "list_todos")
		span.SetAttribute("todo_count", 3)
		require.NoError(t, tracer.End(span, tracing.StatusOK))
	}
	return sink.spans
}

type captureAll struct {
	spans []*tracing.Span
}

func (c *captureAll) Enqueue(span *tracing.Span) { c.spans = append(c.spans, span) }

func TestHTTPTransportExport(t *testing.T) {
	var received batchPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	transport := NewHTTP(server.URL, Resource{
		ServiceName:    "todo-service",
		ServiceVersion: "0.1.0",
		Environment:    "development",
	})

	spans := collectSpans(t, 2)
	require.NoError(t, transport.Export(context.Background(), spans))

	assert.Equal(t, "todo-service", received.Resource["service.name"])
	require.Len(t, received.Spans, 2)
	assert.Equal(t, "list_todos", received.Spans[0].Name)
	assert.Equal(t, "ok", received.Spans[0].Status)
	assert.Empty(t, received.Spans[0].ParentSpanID)
	assert.GreaterOrEqual(t, received.Spans[0].EndUnixNano, received.Spans[0].StartUnixNano)
}

func TestHTTPTransportRejectedBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	transport := NewHTTP(server.URL, Resource{ServiceName: "todo-service"})

	err := transport.Export(context.Background(), collectSpans(t, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}

func TestHTTPTransportUnreachable(t *testing.T) {
	transport := NewHTTP("http://127.0.0.1:1/spans", Resource{ServiceName: "todo-service"})

	err := transport.Export(context.Background(), collectSpans(t, 1))
	assert.Error(t, err)
}

func TestHTTPTransportEmptyBatch(t *testing.T) {
	transport := NewHTTP("http://unused.invalid", Resource{})
	assert.NoError(t, transport.Export(context.Background(), nil))
}
