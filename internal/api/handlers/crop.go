package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fasalvaidya/crop-health/internal/api/response"
	"github.com/fasalvaidya/crop-health/internal/repository"
)

// CropHandler serves the crop catalog.
type CropHandler struct {
	crops repository.CropStore
}

// NewCropHandler creates a new crop handler.
func NewCropHandler(crops repository.CropStore) *CropHandler {
	return &CropHandler{crops: crops}
}

// HandleList handles GET /api/v1/crops.
func (h *CropHandler) HandleList(c *gin.Context) {
	crops, err := h.crops.ListCrops(c.Request.Context())
	if err != nil {
		response.InternalError(c, "failed to list crops", err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"crops": crops,
		"total": len(crops),
	})
}
