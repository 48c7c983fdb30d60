package logging

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-logfmt/logfmt"
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// Log format names accepted by Config.Format.
const (
	FormatJSON   = "json"
	FormatLogfmt = "logfmt"
	FormatText   = "text"
)

// EncodingLogfmt is the zap encoding name registered for logfmt output.
const EncodingLogfmt = "logfmt"

var bufferPool = buffer.NewPool()

func init() {
	// Registration is process-wide; a second call (e.g. from tests importing
	// this package twice through different paths) returns an error we can
	// safely ignore.
	_ = zap.RegisterEncoder(EncodingLogfmt, func(cfg zapcore.EncoderConfig) (zapcore.Encoder, error) {
		return newLogfmtEncoder(cfg), nil
	})
}

// logfmtEncoder renders log entries as key=value pairs using go-logfmt.
// Fields are collected through the embedded map encoder and serialized in
// EncodeEntry, keeping level/ts/msg as the leading keys.
type logfmtEncoder struct {
	*zapcore.MapObjectEncoder
	cfg zapcore.EncoderConfig
}

func newLogfmtEncoder(cfg zapcore.EncoderConfig) *logfmtEncoder {
	return &logfmtEncoder{
		MapObjectEncoder: zapcore.NewMapObjectEncoder(),
		cfg:              cfg,
	}
}

func (e *logfmtEncoder) Clone() zapcore.Encoder {
	clone := newLogfmtEncoder(e.cfg)
	for k, v := range e.Fields {
		clone.Fields[k] = v
	}
	return clone
}

func (e *logfmtEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final := e.Clone().(*logfmtEncoder)
	for _, f := range fields {
		f.AddTo(final.MapObjectEncoder)
	}

	buf := bufferPool.Get()
	enc := logfmt.NewEncoder(buf)

	if err := enc.EncodeKeyval(e.cfg.LevelKey, entry.Level.String()); err != nil {
		return nil, err
	}
	if err := enc.EncodeKeyval(e.cfg.TimeKey, entry.Time.Format(time.RFC3339)); err != nil {
		return nil, err
	}
	if err := enc.EncodeKeyval(e.cfg.MessageKey, entry.Message); err != nil {
		return nil, err
	}
	if entry.Caller.Defined && e.cfg.CallerKey != "" {
		if err := enc.EncodeKeyval(e.cfg.CallerKey, entry.Caller.TrimmedPath()); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(final.Fields))
	for k := range final.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := enc.EncodeKeyval(k, flatten(final.Fields[k])); err != nil {
			return nil, err
		}
	}

	if err := enc.EndRecord(); err != nil {
		return nil, err
	}
	return buf, nil
}

// flatten reduces non-scalar field values to strings so logfmt can encode them.
func flatten(v interface{}) interface{} {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, time.Time, time.Duration, error:
		return v
	default:
		return fmt.Sprint(v)
	}
}
