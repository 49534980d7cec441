package handlers

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fasalvaidya/crop-health/internal/api/middleware"
	"github.com/fasalvaidya/crop-health/internal/api/response"
	"github.com/fasalvaidya/crop-health/internal/config"
	"github.com/fasalvaidya/crop-health/internal/ingest"
	"github.com/fasalvaidya/crop-health/internal/models"
)

// Import statuses.
const (
	ImportPending   = "pending"
	ImportCompleted = "completed"
	ImportFailed    = "failed"
)

// ImportHandler handles diagnosis CSV imports.
type ImportHandler struct {
	imports     ImportStore
	scans       ScanWriter
	idempotency IdempotencyClaimer
	cfg         config.ImportConfig
	recorder    Recorder
	now         func() time.Time
}

// NewImportHandler creates a new import handler. With a nil imports store
// (SQLite storage) every import is answered with 501.
func NewImportHandler(
	imports ImportStore,
	scans ScanWriter,
	idempotency IdempotencyClaimer,
	cfg config.ImportConfig,
	recorder Recorder,
) *ImportHandler {
	return &ImportHandler{
		imports:     imports,
		scans:       scans,
		idempotency: idempotency,
		cfg:         cfg,
		recorder:    recorderOrNop(recorder),
		now:         time.Now,
	}
}

// HandleImport handles POST /api/v1/scans/import.
func (h *ImportHandler) HandleImport(c *gin.Context) {
	if h.imports == nil || h.scans == nil {
		response.NotImplemented(c, "scan import requires postgres storage")
		return
	}
	farmerID, _ := middleware.FarmerID(c)
	ctx := c.Request.Context()

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file field is required", nil)
		return
	}

	if file.Header.Get("Content-Type") != "text/csv" && !strings.EqualFold(filepath.Ext(file.Filename), ".csv") {
		response.BadRequest(c, "file must be a CSV", nil)
		return
	}

	if file.Size > h.cfg.MaxFileSize {
		response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			fmt.Sprintf("file exceeds max size of %d bytes", h.cfg.MaxFileSize), nil)
		return
	}

	src, err := file.Open()
	if err != nil {
		response.InternalError(c, "failed to open uploaded file", err)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.cfg.MaxFileSize+1))
	if err != nil {
		response.InternalError(c, "failed to read uploaded file", err)
		return
	}

	sum := sha256.Sum256(data)
	contentHash := hex.EncodeToString(sum[:])

	// The same file imported twice returns the first import
	existing, err := h.imports.GetByContentHash(ctx, farmerID, contentHash)
	if err == nil && existing != nil {
		h.recorder.RecordImport("duplicate", 0)
		response.Success(c, http.StatusOK, importResponse(existing, nil, true))
		return
	}

	now := h.now()
	imp := &models.ScanImport{
		ID:          uuid.New(),
		FarmerID:    farmerID,
		Filename:    file.Filename,
		FileSize:    file.Size,
		Status:      ImportPending,
		Warnings:    json.RawMessage("[]"),
		ContentHash: &contentHash,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Rejected content is recorded without the idempotency key so a
	// corrected retry under the same key still goes through.
	scans, warnings, err := ingest.ParseScans(bytes.NewReader(data), farmerID, now)
	if err != nil {
		h.reject(c, imp, warnings)
		response.BadRequest(c, fmt.Sprintf("CSV validation failed: %v", err), warnings)
		return
	}
	if len(scans) == 0 {
		h.reject(c, imp, warnings)
		response.BadRequest(c, "CSV contains no valid scan rows", warnings)
		return
	}

	// The key is claimed only once the upload is known to be importable.
	if key := c.GetHeader("Idempotency-Key"); key != "" {
		if h.idempotency != nil {
			claim, err := h.idempotency.Claim(ctx, farmerID, key, "scan_import", imp.ID)
			if err != nil {
				response.InternalError(c, "idempotency check failed", err)
				return
			}
			if claim.AlreadyExists {
				existing, _ := h.imports.GetByID(ctx, farmerID, claim.ResourceID)
				response.Conflict(c, "duplicate import (idempotency key match)", existing)
				return
			}
		}
		imp.IdempotencyKey = &key
	}

	if err := h.imports.Create(ctx, imp); err != nil {
		response.InternalError(c, "failed to create import record", err)
		return
	}

	if err := h.scans.BulkInsert(ctx, scans, h.cfg.BatchSize); err != nil {
		h.fail(c, imp, warnings)
		response.InternalError(c, "failed to insert scans", err)
		return
	}

	imp.Status = ImportCompleted
	imp.RowCount = len(scans)
	imp.Warnings, _ = json.Marshal(warnings)
	imp.UpdatedAt = h.now()
	if err := h.imports.Update(ctx, imp); err != nil {
		response.InternalError(c, "failed to update import", err)
		return
	}
	h.recorder.RecordImport(ImportCompleted, len(scans))

	body := importResponse(imp, warnings, false)
	ids := make([]int64, len(scans))
	for i := range scans {
		ids[i] = scans[i].ID
	}
	body["scan_ids"] = ids

	response.Success(c, http.StatusCreated, body)
}

// reject stores an import whose content never made it to parsing.
func (h *ImportHandler) reject(c *gin.Context, imp *models.ScanImport, warnings []string) {
	imp.Status = ImportFailed
	imp.Warnings, _ = json.Marshal(warnings)
	if err := h.imports.Create(c.Request.Context(), imp); err != nil {
		response.Logger(c).Warn("failed to record rejected import", slog.String("error", err.Error()))
	}
	h.recorder.RecordImport(ImportFailed, 0)
}

func (h *ImportHandler) fail(c *gin.Context, imp *models.ScanImport, warnings []string) {
	imp.Status = ImportFailed
	imp.Warnings, _ = json.Marshal(warnings)
	imp.UpdatedAt = h.now()
	_ = h.imports.Update(c.Request.Context(), imp)
	h.recorder.RecordImport(ImportFailed, 0)
}
