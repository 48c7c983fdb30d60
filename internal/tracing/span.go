package tracing

import (
	"fmt"
	"sync"
	"time"

	"github.com/poddle/demotrace/internal/shared/id"
)

// Status is the final disposition of a span.
type Status int

const (
	StatusUnset Status = iota
	StatusOK
	StatusError
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "unset"
	}
}

// ErrorDetail describes a recorded failure on a span.
type ErrorDetail struct {
	Message string
	Type    string
}

// Span represents a single named operation within a trace.
//
// A span is owned by the tracer that created it until End is called, at which
// point ownership transfers to the export queue. Callers must not retain or
// mutate a span after ending it.
type Span struct {
	TraceID  id.TraceID
	SpanID   id.SpanID
	ParentID id.SpanID
	Name     string
	Service  string

	StartTime time.Time
	EndTime   time.Time

	mu          sync.Mutex
	attributes  map[string]interface{}
	status      Status
	errorDetail *ErrorDetail
	ended       bool
	scope       *Scope
}

// SetAttribute attaches or overwrites one attribute. Values are normalized to
// scalars (string, int64, float64, bool); anything else is stringified.
func (s *Span) SetAttribute(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attributes[key] = normalizeValue(value)
}

// Attribute returns one attribute value and whether it was set.
func (s *Span) Attribute(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.attributes[key]
	return v, ok
}

// Attributes returns a copy of the span's attributes.
func (s *Span) Attributes() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]interface{}, len(s.attributes))
	for k, v := range s.attributes {
		out[k] = v
	}
	return out
}

// Status returns the span's current status.
func (s *Span) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// ErrorDetail returns the recorded failure, or nil.
func (s *Span) ErrorDetail() *ErrorDetail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorDetail
}

// Duration returns the span's elapsed time. Zero until the span is ended.
func (s *Span) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// Ended reports whether End has been called on this span.
func (s *Span) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// IsRoot reports whether this span has no parent.
func (s *Span) IsRoot() bool {
	return s.ParentID == ""
}

// recordFailure marks the span as failed without ending it.
func (s *Span) recordFailure(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusError
	s.errorDetail = &ErrorDetail{
		Message: cause.Error(),
		Type:    fmt.Sprintf("%T", cause),
	}
}

// tryEnd atomically transitions the span to ended, stamping the end time and
// final status. Returns false if the span was already ended.
func (s *Span) tryEnd(status Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return false
	}
	s.ended = true
	s.EndTime = time.Now()
	// A recorded failure is sticky; a plain End never downgrades it.
	if s.status != StatusError {
		s.status = status
	}
	return true
}

// normalizeValue reduces attribute values to the scalar types the export
// pipeline understands.
func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string, bool, int64, float64:
		return val
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return int64(val)
	case float32:
		return float64(val)
	case time.Duration:
		return val.Milliseconds()
	default:
		return fmt.Sprint(val)
	}
}
