package response

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys written by the correlation middleware and read back when a
// response or log line is produced.
const (
	CorrelationIDKey     = "correlation_id"
	LoggerKey            = "request_logger"
	ThresholdsVersionKey = "thresholds_version"
)

// Envelope is the standard API response wrapper.
type Envelope struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  *ErrorBody  `json:"error,omitempty"`
	Meta   Meta        `json:"meta"`
}

// ErrorBody holds error details in the response.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Meta holds response metadata. ThresholdsVersion names the thresholds
// document a classification was made against, when the handler used one.
type Meta struct {
	CorrelationID     string `json:"correlation_id"`
	Timestamp         string `json:"timestamp"`
	ThresholdsVersion string `json:"thresholds_version,omitempty"`
}

func newMeta(c *gin.Context) Meta {
	corrID := c.GetString(CorrelationIDKey)
	if corrID == "" {
		corrID = uuid.New().String()
	}
	return Meta{
		CorrelationID:     corrID,
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		ThresholdsVersion: c.GetString(ThresholdsVersionKey),
	}
}

// Logger returns the request-scoped logger, or the default logger outside a
// request that went through the correlation middleware.
func Logger(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(LoggerKey); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}

// UseThresholds stamps the response meta with the thresholds version the
// handler classified against.
func UseThresholds(c *gin.Context, version string) {
	c.Set(ThresholdsVersionKey, version)
}

// Success sends a successful response.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Envelope{
		Status: "success",
		Data:   data,
		Meta:   newMeta(c),
	})
}

// Error sends an error response.
func Error(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, Envelope{
		Status: "error",
		Error: &ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
		Meta: newMeta(c),
	})
}

// BadRequest sends a 400 error.
func BadRequest(c *gin.Context, message string, details interface{}) {
	Error(c, http.StatusBadRequest, "VALIDATION_ERROR", message, details)
}

// NotFound sends a 404 error.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, "NOT_FOUND", message, nil)
}

// Conflict sends a 409 error. data carries the resource the request
// collided with.
func Conflict(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusConflict, Envelope{
		Status: "error",
		Data:   data,
		Error: &ErrorBody{
			Code:    "DUPLICATE",
			Message: message,
		},
		Meta: newMeta(c),
	})
}

// InternalError sends a 500 error. The cause is logged with the request's
// correlation id and attached to the gin context; the client only sees
// message.
func InternalError(c *gin.Context, message string, err error) {
	if err != nil {
		_ = c.Error(err)
		Logger(c).Error(message, slog.String("error", err.Error()))
	}
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
}

// Unauthorized sends a 401 error.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

// Forbidden sends a 403 error.
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, "FORBIDDEN", message, nil)
}

// NotImplemented sends a 501 error.
func NotImplemented(c *gin.Context, message string) {
	Error(c, http.StatusNotImplemented, "NOT_IMPLEMENTED", message, nil)
}
