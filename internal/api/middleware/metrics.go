package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver records request latency.
type RequestObserver interface {
	ObserveRequest(method, route string, code int, elapsed time.Duration)
}

// RequestMetrics reports every request to observer, labelled by the matched
// route so path parameters do not explode label cardinality.
func RequestMetrics(observer RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		observer.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
