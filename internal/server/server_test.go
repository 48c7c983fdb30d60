package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poddle/demotrace/internal/config"
	"github.com/poddle/demotrace/internal/logging"
	"github.com/poddle/demotrace/internal/sim"
	"github.com/poddle/demotrace/internal/tracing"
)

type nopSink struct{}

func (nopSink) Enqueue(*tracing.Span) {}

func TestRegisterTenant(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := logging.NewNop()
	tracer := tracing.New("test", logger, nopSink{})
	simulator := sim.NewWithSeed(sim.DefaultCacheHitRate, 1, logger)

	tests := []struct {
		tenant string
		path   string
	}{
		{"bookshop", "/books"},
		{"todo", "/todos"},
		{"ecommerce", "/work"},
		{"items", "/items"},
	}
	for _, tc := range tests {
		t.Run(tc.tenant, func(t *testing.T) {
			router := gin.New()
			require.NoError(t, registerTenant(router, tc.tenant, tracer, simulator, logger))

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
			assert.NotEqual(t, http.StatusNotFound, w.Code)
		})
	}
}

func TestRegisterTenantUnknown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := logging.NewNop()
	tracer := tracing.New("test", logger, nopSink{})

	err := registerTenant(gin.New(), "warehouse", tracer, sim.NewWithSeed(0.3, 1, logger), logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tenant")
}

func TestNewTransport(t *testing.T) {
	cfg := config.Default()

	cfg.Exporter.Protocol = "http"
	transport, err := newTransport(cfg)
	require.NoError(t, err)
	assert.NotNil(t, transport)

	cfg.Exporter.Protocol = "grpc"
	transport, err = newTransport(cfg)
	require.NoError(t, err)
	assert.NotNil(t, transport)

	cfg.Exporter.Protocol = "thrift"
	_, err = newTransport(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown export protocol")
}
