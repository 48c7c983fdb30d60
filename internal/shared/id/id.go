// Package id provides centralized identifier generation for the demo services.
//
// Trace identifiers are ULID-backed, giving 128 bits that remain
// lexicographically sortable by start time. Span identifiers are 64 random
// bits. Both are rendered as lowercase hex so they can travel in headers and
// be decoded back to raw bytes at export time.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// TraceID identifies one request's span tree. 32 hex characters.
type TraceID string

// SpanID identifies a single span within a trace. 16 hex characters.
type SpanID string

func (id TraceID) String() string { return string(id) }
func (id SpanID) String() string  { return string(id) }

// Bytes decodes the trace ID back to its 16 raw bytes.
func (id TraceID) Bytes() ([]byte, error) { return hex.DecodeString(string(id)) }

// Bytes decodes the span ID back to its 8 raw bytes.
func (id SpanID) Bytes() ([]byte, error) { return hex.DecodeString(string(id)) }

// Generator generates trace and span identifiers.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator with cryptographically secure entropy
func NewGenerator() *Generator {
	return &Generator{
		entropy: rand.Reader,
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source
// Useful for testing with deterministic entropy
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// TraceID creates a new trace identifier
func (g *Generator) TraceID() TraceID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	u := ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
	return TraceID(hex.EncodeToString(u[:]))
}

// SpanID creates a new span identifier
func (g *Generator) SpanID() SpanID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	var b [8]byte
	if _, err := io.ReadFull(g.entropy, b[:]); err != nil {
		// crypto/rand never fails in practice; fall back to the clock so
		// span creation cannot error out
		now := time.Now().UnixNano()
		for i := 0; i < 8; i++ {
			b[i] = byte(now >> (8 * i))
		}
	}
	return SpanID(hex.EncodeToString(b[:]))
}

// NewTraceID generates a trace ID from the default generator
func NewTraceID() TraceID {
	return Default().TraceID()
}

// NewSpanID generates a span ID from the default generator
func NewSpanID() SpanID {
	return Default().SpanID()
}

// IsValidTraceID checks that the string is 16 hex-encoded bytes
func IsValidTraceID(s string) bool {
	b, err := hex.DecodeString(s)
	return err == nil && len(b) == 16
}

// IsValidSpanID checks that the string is 8 hex-encoded bytes
func IsValidSpanID(s string) bool {
	b, err := hex.DecodeString(s)
	return err == nil && len(b) == 8
}

// Timestamp extracts the embedded start time from a trace ID
func Timestamp(id TraceID) (time.Time, error) {
	b, err := id.Bytes()
	if err != nil {
		return time.Time{}, err
	}
	var u ulid.ULID
	copy(u[:], b)
	return ulid.Time(u.Time()), nil
}
