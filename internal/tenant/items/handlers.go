// Package items is the smallest tenant: a UUID-keyed item list with no
// simulated dependencies, useful as a near-zero-latency baseline when
// comparing trace output across tenants.
package items

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/poddle/demotrace/internal/logging"
	"github.com/poddle/demotrace/internal/tracing"
)

var ErrItemNotFound = errors.New("item not found")

// Item is one stored entry.
type Item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Handlers struct {
	tracer *tracing.Tracer
	logger *logging.Logger

	mu    sync.RWMutex
	items map[string]Item
	order []string
}

func New(tracer *tracing.Tracer, logger *logging.Logger) *Handlers {
	return &Handlers{
		tracer: tracer,
		logger: logger,
		items:  make(map[string]Item),
	}
}

func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/items", h.listItems)
	r.POST("/items", h.createItem)
	r.DELETE("/items/:id", h.deleteItem)
}

func (h *Handlers) listItems(c *gin.Context) {
	span, _ := h.tracer.StartSpan(c.Request.Context(), "list_items")

	h.mu.RLock()
	out := make([]Item, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.items[id])
	}
	h.mu.RUnlock()

	span.SetAttribute("items.count", len(out))
	h.tracer.End(span, tracing.StatusOK)
	c.JSON(http.StatusOK, gin.H{"items": out})
}

type createItemRequest struct {
	Title string `json:"title" binding:"required"`
}

func (h *Handlers) createItem(c *gin.Context) {
	span, _ := h.tracer.StartSpan(c.Request.Context(), "create_item")

	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.tracer.RecordFailure(span, err)
		h.tracer.End(span, tracing.StatusError)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := Item{ID: uuid.NewString(), Title: req.Title}
	h.mu.Lock()
	h.items[item.ID] = item
	h.order = append(h.order, item.ID)
	h.mu.Unlock()

	span.SetAttribute("item_id", item.ID)
	h.tracer.End(span, tracing.StatusOK)
	c.JSON(http.StatusCreated, item)
}

func (h *Handlers) deleteItem(c *gin.Context) {
	span, _ := h.tracer.StartSpan(c.Request.Context(), "delete_item")
	id := c.Param("id")
	span.SetAttribute("item_id", id)

	h.mu.Lock()
	_, ok := h.items[id]
	if ok {
		delete(h.items, id)
		for i, stored := range h.order {
			if stored == id {
				h.order = append(h.order[:i], h.order[i+1:]...)
				break
			}
		}
	}
	h.mu.Unlock()

	if !ok {
		h.tracer.RecordFailure(span, ErrItemNotFound)
		h.tracer.End(span, tracing.StatusError)
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}

	h.tracer.End(span, tracing.StatusOK)
	c.Status(http.StatusNoContent)
}
