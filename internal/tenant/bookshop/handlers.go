package bookshop

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/poddle/demotrace/internal/logging"
	"github.com/poddle/demotrace/internal/sim"
	"github.com/poddle/demotrace/internal/tracing"
	"go.uber.org/zap"
)

// Handlers serves the bookshop demo API. Every endpoint builds a span tree
// under the request root: a handler-level operation span with children for
// each simulated dependency call.
type Handlers struct {
	tracer *tracing.Tracer
	sim    *sim.Simulator
	store  *Store
	logger *logging.Logger
}

// New creates the bookshop handler set with a freshly seeded catalog.
func New(tracer *tracing.Tracer, simulator *sim.Simulator, logger *logging.Logger) *Handlers {
	return &Handlers{
		tracer: tracer,
		sim:    simulator,
		store:  NewStore(),
		logger: logger,
	}
}

// Register mounts the bookshop routes.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/books", h.listBooks)
	r.GET("/books/:id", h.getBook)
	r.POST("/orders", h.createOrder)
	r.GET("/stats", h.getStats)
}

func (h *Handlers) listBooks(c *gin.Context) {
	span, ctx := h.tracer.StartSpan(c.Request.Context(), "list_books")

	author := c.Query("author")
	minPrice := 0.0
	if raw := c.Query("min_price"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.tracer.RecordFailure(span, fmt.Errorf("invalid min_price %q", raw))
			h.tracer.End(span, tracing.StatusError)
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_price must be a number"})
			return
		}
		minPrice = parsed
	}
	span.SetAttribute("filter.author", author)
	span.SetAttribute("filter.min_price", minPrice)

	cacheSpan, _ := h.tracer.StartSpan(ctx, "cache_lookup")
	hit := h.sim.CacheLookup(fmt.Sprintf("books_%s_%v", author, minPrice))
	cacheSpan.SetAttribute("cache.hit", hit)
	h.tracer.End(cacheSpan, tracing.StatusOK)

	dbSpan, _ := h.tracer.StartSpan(ctx, "database_query")
	dbSpan.SetAttribute("db.operation", "SELECT")
	dbSpan.SetAttribute("db.table", "books")
	delay := h.sim.Latency(ctx, 10*time.Millisecond, 50*time.Millisecond)
	dbSpan.SetAttribute("db.latency_ms", delay)
	books := h.store.List(author, minPrice)
	dbSpan.SetAttribute("db.rows", len(books))
	h.tracer.End(dbSpan, tracing.StatusOK)

	serSpan, _ := h.tracer.StartSpan(ctx, "serialize_response")
	h.sim.Latency(ctx, 5*time.Millisecond, 5*time.Millisecond)
	h.tracer.End(serSpan, tracing.StatusOK)

	span.SetAttribute("books.count", len(books))
	h.tracer.End(span, tracing.StatusOK)
	c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

func (h *Handlers) getBook(c *gin.Context) {
	span, ctx := h.tracer.StartSpan(c.Request.Context(), "get_book")

	bookID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.tracer.RecordFailure(span, fmt.Errorf("invalid book id %q", c.Param("id")))
		h.tracer.End(span, tracing.StatusError)
		c.JSON(http.StatusBadRequest, gin.H{"error": "book id must be an integer"})
		return
	}
	span.SetAttribute("book_id", bookID)

	cacheSpan, _ := h.tracer.StartSpan(ctx, "cache_lookup")
	cacheSpan.SetAttribute("cache.key", fmt.Sprintf("book_%d", bookID))
	hit := h.sim.CacheLookup(fmt.Sprintf("book_%d", bookID))
	cacheSpan.SetAttribute("cache.hit", hit)
	h.tracer.End(cacheSpan, tracing.StatusOK)

	dbSpan, _ := h.tracer.StartSpan(ctx, "database_query")
	dbSpan.SetAttribute("db.operation", "SELECT")
	dbSpan.SetAttribute("db.table", "books")
	dbSpan.SetAttribute("book_id", bookID)
	delay := h.sim.Latency(ctx, 10*time.Millisecond, 50*time.Millisecond)
	dbSpan.SetAttribute("db.latency_ms", delay)

	book, ok := h.store.Get(bookID)
	if !ok {
		h.tracer.RecordFailure(dbSpan, ErrBookNotFound)
		h.tracer.End(dbSpan, tracing.StatusError)
		h.tracer.RecordFailure(span, ErrBookNotFound)
		h.tracer.End(span, tracing.StatusError)
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("book %d not found", bookID)})
		return
	}
	h.tracer.End(dbSpan, tracing.StatusOK)

	h.tracer.End(span, tracing.StatusOK)
	c.JSON(http.StatusOK, book)
}

// OrderRequest is the create-order payload.
type OrderRequest struct {
	BookID        int    `json:"book_id" binding:"required"`
	Quantity      int    `json:"quantity" binding:"required,gt=0"`
	CustomerEmail string `json:"customer_email" binding:"required,email"`
}

func (h *Handlers) createOrder(c *gin.Context) {
	span, ctx := h.tracer.StartSpan(c.Request.Context(), "create_order")

	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.tracer.RecordFailure(span, err)
		h.tracer.End(span, tracing.StatusError)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	span.SetAttribute("book_id", req.BookID)
	span.SetAttribute("quantity", req.Quantity)

	// Step 1: look the book up.
	validateSpan, _ := h.tracer.StartSpan(ctx, "validate_book")
	validateSpan.SetAttribute("book_id", req.BookID)
	h.sim.Latency(ctx, 10*time.Millisecond, 30*time.Millisecond)
	book, ok := h.store.Get(req.BookID)
	if !ok {
		h.tracer.RecordFailure(validateSpan, ErrBookNotFound)
		h.tracer.End(validateSpan, tracing.StatusError)
		h.tracer.RecordFailure(span, ErrBookNotFound)
		h.tracer.End(span, tracing.StatusError)
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("book %d not found", req.BookID)})
		return
	}
	h.tracer.End(validateSpan, tracing.StatusOK)

	// Step 2: check inventory.
	inventorySpan, _ := h.tracer.StartSpan(ctx, "check_inventory")
	inventorySpan.SetAttribute("book_id", req.BookID)
	inventorySpan.SetAttribute("requested", req.Quantity)
	inventorySpan.SetAttribute("available", book.Stock)
	h.sim.Latency(ctx, 5*time.Millisecond, 20*time.Millisecond)
	if book.Stock < req.Quantity {
		h.tracer.RecordFailure(inventorySpan, ErrInsufficientStock)
		h.tracer.End(inventorySpan, tracing.StatusError)
		h.tracer.RecordFailure(span, ErrInsufficientStock)
		h.tracer.End(span, tracing.StatusError)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "insufficient stock",
			"available": book.Stock,
		})
		return
	}
	h.tracer.End(inventorySpan, tracing.StatusOK)

	// Step 3: price the order.
	totalSpan, _ := h.tracer.StartSpan(ctx, "calculate_total")
	total := book.Price * float64(req.Quantity)
	totalSpan.SetAttribute("total", total)
	h.tracer.End(totalSpan, tracing.StatusOK)

	// Step 4: charge the customer. The slowest step by far.
	paymentSpan, _ := h.tracer.StartSpan(ctx, "process_payment")
	paymentSpan.SetAttribute("payment.amount", total)
	paymentSpan.SetAttribute("payment.currency", "USD")
	delay := h.sim.Latency(ctx, 100*time.Millisecond, 300*time.Millisecond)
	paymentSpan.SetAttribute("payment.gateway_ms", delay)
	h.tracer.End(paymentSpan, tracing.StatusOK)

	// Step 5: reserve the stock.
	updateSpan, _ := h.tracer.StartSpan(ctx, "update_inventory")
	updateSpan.SetAttribute("book_id", req.BookID)
	h.sim.Latency(ctx, 10*time.Millisecond, 30*time.Millisecond)
	after, err := h.store.DecrementStock(req.BookID, req.Quantity)
	if err != nil {
		h.tracer.RecordFailure(updateSpan, err)
		h.tracer.End(updateSpan, tracing.StatusError)
		h.tracer.RecordFailure(span, err)
		h.tracer.End(span, tracing.StatusError)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updateSpan.SetAttribute("stock.remaining", after.Stock)
	h.tracer.End(updateSpan, tracing.StatusOK)

	// Step 6: confirmation email, fire-and-forget in spirit but traced.
	emailSpan, _ := h.tracer.StartSpan(ctx, "send_confirmation_email")
	emailSpan.SetAttribute("email.to", req.CustomerEmail)
	h.sim.Latency(ctx, 20*time.Millisecond, 50*time.Millisecond)
	h.tracer.End(emailSpan, tracing.StatusOK)

	orderID := uuid.NewString()
	span.SetAttribute("order_id", orderID)
	h.tracer.End(span, tracing.StatusOK)

	h.logger.Info("order created",
		zap.String("order_id", orderID),
		zap.Int("book_id", req.BookID),
		zap.Int("quantity", req.Quantity),
		zap.Float64("total", total),
	)

	c.JSON(http.StatusCreated, gin.H{
		"order_id": orderID,
		"book_id":  req.BookID,
		"quantity": req.Quantity,
		"total":    total,
		"status":   "confirmed",
	})
}

func (h *Handlers) getStats(c *gin.Context) {
	span, ctx := h.tracer.StartSpan(c.Request.Context(), "get_stats")

	inventorySpan, _ := h.tracer.StartSpan(ctx, "calculate_inventory_stats")
	h.sim.Latency(ctx, 20*time.Millisecond, 60*time.Millisecond)
	totalStock := h.store.TotalStock()
	inventorySpan.SetAttribute("total_stock", totalStock)
	h.tracer.End(inventorySpan, tracing.StatusOK)

	pricingSpan, _ := h.tracer.StartSpan(ctx, "calculate_value_stats")
	h.sim.Latency(ctx, 10*time.Millisecond, 40*time.Millisecond)
	avgPrice, maxPrice := h.store.PriceStats()
	h.tracer.End(pricingSpan, tracing.StatusOK)

	popularSpan, _ := h.tracer.StartSpan(ctx, "find_popular_books")
	h.sim.Latency(ctx, 10*time.Millisecond, 30*time.Millisecond)
	popular := h.store.Popular(3)
	h.tracer.End(popularSpan, tracing.StatusOK)

	h.tracer.End(span, tracing.StatusOK)
	c.JSON(http.StatusOK, Stats{
		TotalBooks:   h.store.Count(),
		TotalStock:   totalStock,
		AvgPrice:     avgPrice,
		MaxPrice:     maxPrice,
		PopularBooks: popular,
	})
}
