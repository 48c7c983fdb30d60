package items

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/poddle/demotrace/internal/logging"
	"github.com/poddle/demotrace/internal/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSink struct {
	mu    sync.Mutex
	spans []*tracing.Span
}

func (s *memSink) Enqueue(span *tracing.Span) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spans = append(s.spans, span)
}

func newTestRouter(t *testing.T) (*gin.Engine, *memSink) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sink := &memSink{}
	logger := logging.NewNop()
	tracer := tracing.New("items", logger, sink)

	router := gin.New()
	router.Use(tracing.HTTPMiddleware(tracer))
	New(tracer, logger).Register(router)
	return router, sink
}

func TestItemLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)

	// Create two items, confirm UUID identifiers.
	var ids []string
	for _, title := range []string{"first", "second"} {
		body, _ := json.Marshal(map[string]string{"title": title})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/items", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code)

		var item Item
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
		_, err := uuid.Parse(item.ID)
		require.NoError(t, err)
		ids = append(ids, item.ID)
	}

	// List preserves insertion order.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items []Item `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "first", resp.Items[0].Title)
	assert.Equal(t, ids[0], resp.Items[0].ID)

	// Delete the first, list again.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/items/"+ids[0], nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items", nil))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "second", resp.Items[0].Title)
}

func TestDeleteMissingItem(t *testing.T) {
	router, sink := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/items/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	var op *tracing.Span
	for _, sp := range sink.spans {
		if sp.Name == "delete_item" {
			op = sp
		}
	}
	require.NotNil(t, op)
	assert.Equal(t, tracing.StatusError, op.Status())
}
