package export

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/poddle/demotrace/internal/tracing"
)

// HTTPTransport POSTs span batches as JSON to a collector endpoint. Retry
// policy lives in the exporter, so the underlying client performs exactly
// one attempt per Export call.
type HTTPTransport struct {
	client   *resty.Client
	endpoint string
	resource Resource
}

// batchPayload is the JSON wire shape for one exported batch.
type batchPayload struct {
	Resource map[string]string `json:"resource"`
	Spans    []spanPayload     `json:"spans"`
}

type spanPayload struct {
	TraceID       string                 `json:"traceId"`
	SpanID        string                 `json:"spanId"`
	ParentSpanID  string                 `json:"parentSpanId,omitempty"`
	Name          string                 `json:"name"`
	StartUnixNano int64                  `json:"startUnixNano"`
	EndUnixNano   int64                  `json:"endUnixNano"`
	Status        string                 `json:"status"`
	Error         string                 `json:"error,omitempty"`
	Attributes    map[string]interface{} `json:"attributes,omitempty"`
}

// NewHTTP creates an HTTP JSON transport for the given collector URL.
func NewHTTP(endpoint string, res Resource) *HTTPTransport {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "demotrace-exporter/1.0")

	return &HTTPTransport{
		client:   client,
		endpoint: endpoint,
		resource: res,
	}
}

// Export serializes and POSTs one batch.
func (t *HTTPTransport) Export(ctx context.Context, spans []*tracing.Span) error {
	if len(spans) == 0 {
		return nil
	}

	payload := batchPayload{
		Resource: t.resource.Attributes(),
		Spans:    make([]spanPayload, 0, len(spans)),
	}
	for _, span := range spans {
		payload.Spans = append(payload.Spans, toSpanPayload(span))
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(t.endpoint)
	if err != nil {
		return fmt.Errorf("failed to post span batch: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("collector rejected span batch: %s", resp.Status())
	}
	return nil
}

// Shutdown is a no-op; the client holds no persistent connections worth
// draining.
func (t *HTTPTransport) Shutdown(context.Context) error {
	return nil
}

func toSpanPayload(span *tracing.Span) spanPayload {
	p := spanPayload{
		TraceID:       span.TraceID.String(),
		SpanID:        span.SpanID.String(),
		ParentSpanID:  span.ParentID.String(),
		Name:          span.Name,
		StartUnixNano: span.StartTime.UnixNano(),
		EndUnixNano:   span.EndTime.UnixNano(),
		Status:        span.Status().String(),
		Attributes:    span.Attributes(),
	}
	if detail := span.ErrorDetail(); detail != nil {
		p.Error = detail.Message
	}
	return p
}
