package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fasalvaidya/crop-health/internal/api/middleware"
	"github.com/fasalvaidya/crop-health/internal/api/response"
	"github.com/fasalvaidya/crop-health/internal/health"
)

// ThresholdHandler exposes and manages the health thresholds in effect.
type ThresholdHandler struct {
	store     *health.Store
	activator ThresholdActivator
	recorder  Recorder
}

// NewThresholdHandler creates a new threshold handler. A nil activator means
// thresholds come from a file and cannot be changed through the API.
func NewThresholdHandler(store *health.Store, activator ThresholdActivator, recorder Recorder) *ThresholdHandler {
	return &ThresholdHandler{
		store:     store,
		activator: activator,
		recorder:  recorderOrNop(recorder),
	}
}

// HandleGet handles GET /api/v1/config/thresholds.
func (h *ThresholdHandler) HandleGet(c *gin.Context) {
	response.Success(c, http.StatusOK, h.store.Get())
}

// HandleReload handles POST /api/v1/config/thresholds/reload.
func (h *ThresholdHandler) HandleReload(c *gin.Context) {
	cfg := h.store.Reload(c.Request.Context())
	h.recorder.RecordReload("api", cfg)
	response.Success(c, http.StatusOK, cfg)
}

type updateThresholdsRequest struct {
	Description string          `json:"description"`
	Config      json.RawMessage `json:"config" binding:"required"`
}

// HandleUpdate handles PUT /api/v1/config/thresholds. The new document is
// decoded over the defaults, validated, stored as the next active version and
// then loaded into the store.
func (h *ThresholdHandler) HandleUpdate(c *gin.Context) {
	if h.activator == nil {
		response.NotImplemented(c, "thresholds are read from a file; edit the file or switch threshold_source to database")
		return
	}

	var req updateThresholdsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "request body must be {\"config\": {...}, \"description\": \"...\"}", err.Error())
		return
	}

	cfg, err := health.DecodeJSON(req.Config)
	if err != nil {
		if errors.Is(err, health.ErrInvalidConfig) {
			response.BadRequest(c, "thresholds failed validation", err.Error())
			return
		}
		response.BadRequest(c, "thresholds document is not valid JSON", err.Error())
		return
	}

	var createdBy *uuid.UUID
	if userID, ok := middleware.UserID(c); ok {
		createdBy = &userID
	}

	stored, err := h.activator.Activate(c.Request.Context(), cfg, req.Description, createdBy)
	if err != nil {
		response.InternalError(c, "failed to store thresholds", err)
		return
	}

	active := h.store.Reload(c.Request.Context())
	h.recorder.RecordReload("api", active)

	response.Success(c, http.StatusOK, gin.H{
		"version":    stored.Version,
		"created_at": stored.CreatedAt,
		"config":     active,
	})
}
