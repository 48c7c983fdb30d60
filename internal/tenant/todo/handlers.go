// Package todo is a small CRUD tenant. Its handlers keep span trees shallow
// (one dependency span per operation) which makes it the tenant of choice for
// eyeballing log output in the three supported formats.
package todo

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poddle/demotrace/internal/logging"
	"github.com/poddle/demotrace/internal/sim"
	"github.com/poddle/demotrace/internal/tracing"
	"go.uber.org/zap"
)

type Handlers struct {
	tracer *tracing.Tracer
	sim    *sim.Simulator
	store  *Store
	logger *logging.Logger
}

func New(tracer *tracing.Tracer, simulator *sim.Simulator, logger *logging.Logger) *Handlers {
	return &Handlers{
		tracer: tracer,
		sim:    simulator,
		store:  NewStore(),
		logger: logger,
	}
}

func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/todos", h.listTodos)
	r.GET("/todos/:id", h.getTodo)
	r.POST("/todos", h.createTodo)
	r.PUT("/todos/:id", h.updateTodo)
	r.DELETE("/todos/:id", h.deleteTodo)
}

func (h *Handlers) listTodos(c *gin.Context) {
	span, ctx := h.tracer.StartSpan(c.Request.Context(), "list_todos")

	dbSpan, _ := h.tracer.StartSpan(ctx, "database_query")
	dbSpan.SetAttribute("db.table", "todos")
	h.sim.Latency(ctx, 5*time.Millisecond, 25*time.Millisecond)
	todos := h.store.List()
	dbSpan.SetAttribute("db.rows", len(todos))
	h.tracer.End(dbSpan, tracing.StatusOK)

	h.tracer.End(span, tracing.StatusOK)
	c.JSON(http.StatusOK, gin.H{"todos": todos})
}

func (h *Handlers) getTodo(c *gin.Context) {
	span, ctx := h.tracer.StartSpan(c.Request.Context(), "get_todo")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.tracer.RecordFailure(span, fmt.Errorf("invalid todo id %q", c.Param("id")))
		h.tracer.End(span, tracing.StatusError)
		c.JSON(http.StatusBadRequest, gin.H{"error": "todo id must be an integer"})
		return
	}
	span.SetAttribute("todo_id", id)

	dbSpan, _ := h.tracer.StartSpan(ctx, "database_query")
	dbSpan.SetAttribute("todo_id", id)
	h.sim.Latency(ctx, 5*time.Millisecond, 25*time.Millisecond)
	todo, ok := h.store.Get(id)
	if !ok {
		h.tracer.RecordFailure(dbSpan, ErrTodoNotFound)
		h.tracer.End(dbSpan, tracing.StatusError)
		h.tracer.RecordFailure(span, ErrTodoNotFound)
		h.tracer.End(span, tracing.StatusError)
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("todo %d not found", id)})
		return
	}
	h.tracer.End(dbSpan, tracing.StatusOK)

	h.tracer.End(span, tracing.StatusOK)
	c.JSON(http.StatusOK, todo)
}

type createTodoRequest struct {
	Title string `json:"title" binding:"required"`
}

func (h *Handlers) createTodo(c *gin.Context) {
	span, ctx := h.tracer.StartSpan(c.Request.Context(), "create_todo")

	var req createTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.tracer.RecordFailure(span, err)
		h.tracer.End(span, tracing.StatusError)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dbSpan, _ := h.tracer.StartSpan(ctx, "database_insert")
	h.sim.Latency(ctx, 10*time.Millisecond, 30*time.Millisecond)
	todo := h.store.Create(req.Title)
	dbSpan.SetAttribute("todo_id", todo.ID)
	h.tracer.End(dbSpan, tracing.StatusOK)

	span.SetAttribute("todo_id", todo.ID)
	h.tracer.End(span, tracing.StatusOK)

	h.logger.Info("todo created", zap.Int("todo_id", todo.ID), zap.String("title", todo.Title))
	c.JSON(http.StatusCreated, todo)
}

type updateTodoRequest struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

func (h *Handlers) updateTodo(c *gin.Context) {
	span, ctx := h.tracer.StartSpan(c.Request.Context(), "update_todo")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.tracer.RecordFailure(span, fmt.Errorf("invalid todo id %q", c.Param("id")))
		h.tracer.End(span, tracing.StatusError)
		c.JSON(http.StatusBadRequest, gin.H{"error": "todo id must be an integer"})
		return
	}
	span.SetAttribute("todo_id", id)

	var req updateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.tracer.RecordFailure(span, err)
		h.tracer.End(span, tracing.StatusError)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dbSpan, _ := h.tracer.StartSpan(ctx, "database_update")
	dbSpan.SetAttribute("todo_id", id)
	h.sim.Latency(ctx, 10*time.Millisecond, 30*time.Millisecond)
	todo, updateErr := h.store.Update(id, req.Title, req.Completed)
	if updateErr != nil {
		h.tracer.RecordFailure(dbSpan, updateErr)
		h.tracer.End(dbSpan, tracing.StatusError)
		h.tracer.RecordFailure(span, updateErr)
		h.tracer.End(span, tracing.StatusError)
		c.JSON(http.StatusNotFound, gin.H{"error": updateErr.Error()})
		return
	}
	h.tracer.End(dbSpan, tracing.StatusOK)

	h.tracer.End(span, tracing.StatusOK)
	c.JSON(http.StatusOK, todo)
}

func (h *Handlers) deleteTodo(c *gin.Context) {
	span, ctx := h.tracer.StartSpan(c.Request.Context(), "delete_todo")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.tracer.RecordFailure(span, fmt.Errorf("invalid todo id %q", c.Param("id")))
		h.tracer.End(span, tracing.StatusError)
		c.JSON(http.StatusBadRequest, gin.H{"error": "todo id must be an integer"})
		return
	}
	span.SetAttribute("todo_id", id)

	dbSpan, _ := h.tracer.StartSpan(ctx, "database_delete")
	dbSpan.SetAttribute("todo_id", id)
	h.sim.Latency(ctx, 5*time.Millisecond, 20*time.Millisecond)
	if delErr := h.store.Delete(id); delErr != nil {
		h.tracer.RecordFailure(dbSpan, delErr)
		h.tracer.End(dbSpan, tracing.StatusError)
		h.tracer.RecordFailure(span, delErr)
		h.tracer.End(span, tracing.StatusError)
		c.JSON(http.StatusNotFound, gin.H{"error": delErr.Error()})
		return
	}
	h.tracer.End(dbSpan, tracing.StatusOK)

	h.tracer.End(span, tracing.StatusOK)
	c.Status(http.StatusNoContent)
}
