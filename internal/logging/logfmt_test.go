package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func testEntry(msg string) zapcore.Entry {
	return zapcore.Entry{
		Level:   zapcore.InfoLevel,
		Time:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Message: msg,
	}
}

func TestLogfmtEncodeEntry(t *testing.T) {
	enc := newLogfmtEncoder(encoderConfig(FormatLogfmt))

	buf, err := enc.EncodeEntry(testEntry("cache hit"), []zapcore.Field{
		zap.String("key", "book_2"),
		zap.Int("elapsed_ms", 23),
		zap.Bool("hit", true),
	})
	require.NoError(t, err)

	line := buf.String()
	assert.Contains(t, line, "level=info")
	assert.Contains(t, line, "ts=2025-06-01T12:00:00Z")
	assert.Contains(t, line, `msg="cache hit"`)
	assert.Contains(t, line, "key=book_2")
	assert.Contains(t, line, "elapsed_ms=23")
	assert.Contains(t, line, "hit=true")
	assert.Equal(t, byte('\n'), line[len(line)-1])
}

func TestLogfmtCloneIsolation(t *testing.T) {
	enc := newLogfmtEncoder(encoderConfig(FormatLogfmt))
	enc.AddString("service", "todo")

	clone := enc.Clone().(*logfmtEncoder)
	clone.AddString("extra", "value")

	assert.Contains(t, clone.Fields, "service")
	assert.NotContains(t, enc.Fields, "extra")
}

func TestNewLoggerFormats(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"logfmt", FormatLogfmt, false},
		{"text", FormatText, false},
		{"empty defaults to json", "", false},
		{"unknown", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Format = tt.format

			logger, err := New(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}
