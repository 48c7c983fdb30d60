package export

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/poddle/demotrace/internal/tracing"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

const instrumentationScope = "github.com/poddle/demotrace"

// GRPCTransport pushes span batches to an OTLP collector over gRPC.
type GRPCTransport struct {
	conn     *grpc.ClientConn
	client   coltracepb.TraceServiceClient
	resource *resourcepb.Resource
}

// NewGRPC dials the collector endpoint. The insecure flag selects a
// plaintext channel versus TLS; it is configuration, not a protocol variant.
func NewGRPC(endpoint string, insecureConn bool, res Resource) (*GRPCTransport, error) {
	creds := credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	if insecureConn {
		creds = insecure.NewCredentials()
	}

	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to dial collector %s: %w", endpoint, err)
	}

	return &GRPCTransport{
		conn:     conn,
		client:   coltracepb.NewTraceServiceClient(conn),
		resource: toResourceProto(res),
	}, nil
}

// Export transmits one batch as a single OTLP export request.
func (t *GRPCTransport) Export(ctx context.Context, spans []*tracing.Span) error {
	if len(spans) == 0 {
		return nil
	}

	protoSpans := make([]*tracepb.Span, 0, len(spans))
	for _, span := range spans {
		ps, err := toSpanProto(span)
		if err != nil {
			return fmt.Errorf("failed to convert span %q: %w", span.Name, err)
		}
		protoSpans = append(protoSpans, ps)
	}

	req := &coltracepb.ExportTraceServiceRequest{
		ResourceSpans: []*tracepb.ResourceSpans{{
			Resource: t.resource,
			ScopeSpans: []*tracepb.ScopeSpans{{
				Scope: &commonpb.InstrumentationScope{Name: instrumentationScope},
				Spans: protoSpans,
			}},
		}},
	}

	if _, err := t.client.Export(ctx, req); err != nil {
		return fmt.Errorf("collector export failed: %w", err)
	}
	return nil
}

// Shutdown closes the collector connection
func (t *GRPCTransport) Shutdown(context.Context) error {
	return t.conn.Close()
}

func toResourceProto(res Resource) *resourcepb.Resource {
	attrs := res.Attributes()
	kvs := make([]*commonpb.KeyValue, 0, len(attrs))
	for _, key := range []string{"service.name", "service.version", "deployment.environment"} {
		kvs = append(kvs, &commonpb.KeyValue{
			Key:   key,
			Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: attrs[key]}},
		})
	}
	return &resourcepb.Resource{Attributes: kvs}
}

func toSpanProto(span *tracing.Span) (*tracepb.Span, error) {
	traceID, err := span.TraceID.Bytes()
	if err != nil {
		return nil, err
	}
	spanID, err := span.SpanID.Bytes()
	if err != nil {
		return nil, err
	}

	ps := &tracepb.Span{
		TraceId:           traceID,
		SpanId:            spanID,
		Name:              span.Name,
		Kind:              tracepb.Span_SPAN_KIND_INTERNAL,
		StartTimeUnixNano: uint64(span.StartTime.UnixNano()),
		EndTimeUnixNano:   uint64(span.EndTime.UnixNano()),
		Status:            toStatusProto(span),
	}

	if !span.IsRoot() {
		parentID, err := span.ParentID.Bytes()
		if err != nil {
			return nil, err
		}
		ps.ParentSpanId = parentID
	}

	attrs := span.Attributes()
	ps.Attributes = make([]*commonpb.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		ps.Attributes = append(ps.Attributes, &commonpb.KeyValue{Key: k, Value: toAnyValue(v)})
	}

	return ps, nil
}

func toStatusProto(span *tracing.Span) *tracepb.Status {
	switch span.Status() {
	case tracing.StatusOK:
		return &tracepb.Status{Code: tracepb.Status_STATUS_CODE_OK}
	case tracing.StatusError:
		st := &tracepb.Status{Code: tracepb.Status_STATUS_CODE_ERROR}
		if detail := span.ErrorDetail(); detail != nil {
			st.Message = detail.Message
		}
		return st
	default:
		return &tracepb.Status{Code: tracepb.Status_STATUS_CODE_UNSET}
	}
}

func toAnyValue(v interface{}) *commonpb.AnyValue {
	switch val := v.(type) {
	case string:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: val}}
	case bool:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_BoolValue{BoolValue: val}}
	case int64:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_IntValue{IntValue: val}}
	case float64:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_DoubleValue{DoubleValue: val}}
	default:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: fmt.Sprint(val)}}
	}
}
