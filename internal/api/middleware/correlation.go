package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fasalvaidya/crop-health/internal/api/response"
)

// HeaderCorrelationID carries the correlation id in both directions.
const HeaderCorrelationID = "X-Correlation-ID"

const maxCorrelationIDLength = 128

// CorrelationMiddleware tags every request with a correlation id, echoed in
// the response header and envelope, and stores a request logger carrying it
// for handlers and the health engine. A client id that is empty, too long or
// contains characters outside [A-Za-z0-9._:-] is replaced with a fresh UUID.
// A nil base logger means slog.Default() at request time.
func CorrelationMiddleware(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderCorrelationID)
		if !validCorrelationID(id) {
			id = uuid.New().String()
		}

		logger := base
		if logger == nil {
			logger = slog.Default()
		}

		c.Set(response.CorrelationIDKey, id)
		c.Set(response.LoggerKey, logger.With(slog.String("correlation_id", id)))
		c.Header(HeaderCorrelationID, id)

		c.Next()
	}
}

// CorrelationID returns the id assigned by CorrelationMiddleware.
func CorrelationID(c *gin.Context) string {
	return c.GetString(response.CorrelationIDKey)
}

// Logger returns the request logger, falling back to slog.Default().
func Logger(c *gin.Context) *slog.Logger {
	return response.Logger(c)
}

func validCorrelationID(id string) bool {
	if id == "" || len(id) > maxCorrelationIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		switch ch := id[i]; {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '-', ch == '_', ch == '.', ch == ':':
		default:
			return false
		}
	}
	return true
}
