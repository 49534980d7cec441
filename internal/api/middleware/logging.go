package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// ServiceName identifies this service in request logs.
const ServiceName = "crop-health"

// StructuredLogging provides structured JSON logging for all requests
func StructuredLogging() gin.HandlerFunc {
	return LoggingMiddleware(slog.Default(), ServiceName)
}

// LoggingMiddleware provides structured JSON logging for all requests
func LoggingMiddleware(logger *slog.Logger, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		// Read after c.Next so values set by auth on inner groups are logged
		farmerID, _ := c.Get(KeyFarmerID)
		correlationID := CorrelationID(c)
		userID, _ := c.Get(KeyUserID)

		statusCode := c.Writer.Status()
		var outcome string
		var level slog.Level

		switch {
		case statusCode >= 200 && statusCode < 300:
			outcome = "success"
			level = slog.LevelInfo
		case statusCode >= 400 && statusCode < 500:
			outcome = "client_error"
			level = slog.LevelWarn
		case statusCode >= 500:
			outcome = "server_error"
			level = slog.LevelError
		default:
			outcome = "unknown"
			level = slog.LevelInfo
		}

		attrs := []slog.Attr{
			slog.String("service", serviceName),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("route", c.FullPath()),
			slog.Int("status_code", statusCode),
			slog.Int64("duration_ms", time.Since(startTime).Milliseconds()),
			slog.String("outcome", outcome),
		}

		if farmerID != nil {
			attrs = append(attrs, slog.Any("farmer_id", farmerID))
		}
		if correlationID != "" {
			attrs = append(attrs, slog.String("correlation_id", correlationID))
		}
		if userID != nil {
			attrs = append(attrs, slog.Any("user_id", userID))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		attrs = append(attrs, slog.Int64("timestamp", startTime.UnixMilli()))

		logger.LogAttrs(c.Request.Context(), level, "request processed", attrs...)
	}
}
