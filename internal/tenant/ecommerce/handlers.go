// Package ecommerce is a load-shaped tenant: its single endpoint fans a
// request out into parallel-looking child units of work with randomized
// latency and a fixed injected failure rate, which keeps error-path spans
// flowing through the pipeline without anyone having to break a real tenant.
package ecommerce

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poddle/demotrace/internal/logging"
	"github.com/poddle/demotrace/internal/sim"
	"github.com/poddle/demotrace/internal/tracing"
	"go.uber.org/zap"
)

// FailureRate is the probability that a work request reports an injected
// failure after its children complete.
const FailureRate = 0.3

const childCount = 3

var errInjected = errors.New("injected processing failure")

type Handlers struct {
	tracer *tracing.Tracer
	sim    *sim.Simulator
	logger *logging.Logger

	// Child unit latency bounds. Tests shrink these.
	minDelay time.Duration
	maxDelay time.Duration
}

func New(tracer *tracing.Tracer, simulator *sim.Simulator, logger *logging.Logger) *Handlers {
	return &Handlers{
		tracer:   tracer,
		sim:      simulator,
		logger:   logger,
		minDelay: 100 * time.Millisecond,
		maxDelay: 500 * time.Millisecond,
	}
}

func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/work", h.doWork)
}

func (h *Handlers) doWork(c *gin.Context) {
	span, ctx := h.tracer.StartSpan(c.Request.Context(), "work.parent")
	span.SetAttribute("work.type", "demo")
	span.SetAttribute("tenant.id", "example-tenant")

	var totalMs int64
	for i := 1; i <= childCount; i++ {
		child, childCtx := h.tracer.StartSpan(ctx, fmt.Sprintf("work.child.%d", i))
		child.SetAttribute("iteration", i)
		delay := h.sim.Latency(childCtx, h.minDelay, h.maxDelay)
		child.SetAttribute("delay_ms", delay)
		totalMs += delay
		h.tracer.End(child, tracing.StatusOK)
	}
	span.SetAttribute("work.total_ms", totalMs)

	if h.sim.MaybeFail(FailureRate) {
		h.tracer.RecordFailure(span, errInjected)
		h.tracer.End(span, tracing.StatusError)
		h.logger.Warn("work failed", zap.Int64("total_ms", totalMs))
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInjected.Error()})
		return
	}

	h.tracer.End(span, tracing.StatusOK)
	c.JSON(http.StatusOK, gin.H{"result": "done", "children": childCount, "total_ms": totalMs})
}
