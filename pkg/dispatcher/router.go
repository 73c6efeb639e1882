package dispatcher

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/calm/pkg/calmerr"
	"github.com/codeready-toolchain/calm/pkg/health"
)

// healthTimeout bounds a whole /health request; within it, health.Checker
// bounds each registered probe with its own probeTimeout.
const healthTimeout = 5 * time.Second

// NewRouter builds the gin router exposing d's operations over HTTP,
// collapsed onto one generic POST /v1/tools/:operation route backed by
// the dispatch table, since CALM's operations share one request shape
// ("arguments in, JSON-serializable value or error out") rather than
// needing one handler function per HTTP path.
func NewRouter(d *Dispatcher) *gin.Engine {
	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		report := d.Health.Check(ctx)
		status := http.StatusOK
		if report.Status != health.StatusHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, report)
	})

	router.GET("/v1/tools", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"operations": Names()})
	})

	router.POST("/v1/tools/:operation", func(c *gin.Context) {
		operation := c.Param("operation")
		if Lookup(operation) == nil {
			status, body := mapOperationError(unknownOperationError(operation))
			c.JSON(status, body)
			return
		}

		raw, err := c.GetRawData()
		if err != nil {
			status, body := mapOperationError(calmerr.Validationf("failed to read request body: %v", err))
			c.JSON(status, body)
			return
		}
		if len(raw) == 0 {
			raw = []byte("{}")
		}

		result, err := d.Dispatch(c.Request.Context(), operation, raw)
		if err != nil {
			status, body := mapOperationError(err)
			c.JSON(status, body)
			return
		}
		c.JSON(http.StatusOK, result)
	})

	return router
}
