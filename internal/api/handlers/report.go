package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/fasalvaidya/crop-health/internal/api/middleware"
	"github.com/fasalvaidya/crop-health/internal/api/response"
	"github.com/fasalvaidya/crop-health/internal/cache"
	"github.com/fasalvaidya/crop-health/internal/health"
	"github.com/fasalvaidya/crop-health/internal/models"
	"github.com/fasalvaidya/crop-health/internal/repository"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
	defaultChartLimit   = 10
	maxChartLimit       = 50
)

// ReportHandler serves report previews, scan history, recommendations and charts.
type ReportHandler struct {
	engine   *health.Engine
	scans    repository.ScanStore
	crops    repository.CropStore
	farmers  repository.FarmerStore
	cache    *cache.ReportCache
	recorder Recorder
}

// NewReportHandler creates a new report handler. cache and recorder may be nil.
func NewReportHandler(
	engine *health.Engine,
	scans repository.ScanStore,
	crops repository.CropStore,
	farmers repository.FarmerStore,
	reportCache *cache.ReportCache,
	recorder Recorder,
) *ReportHandler {
	return &ReportHandler{
		engine:   engine,
		scans:    scans,
		crops:    crops,
		farmers:  farmers,
		cache:    reportCache,
		recorder: recorderOrNop(recorder),
	}
}

// HandlePreview handles GET /api/v1/reports/preview?scan_id=.
func (h *ReportHandler) HandlePreview(c *gin.Context) {
	farmerID, _ := middleware.FarmerID(c)

	scanID, err := strconv.ParseInt(c.Query("scan_id"), 10, 64)
	if err != nil || scanID <= 0 {
		response.BadRequest(c, "scan_id must be a positive integer", nil)
		return
	}

	if cached, ok := h.cache.Get(farmerID, scanID); ok {
		h.recorder.RecordCacheLookup(true)
		response.Success(c, http.StatusOK, cached)
		return
	}
	h.recorder.RecordCacheLookup(false)

	ctx := c.Request.Context()
	scan, err := h.scans.GetByID(ctx, farmerID, scanID)
	if err != nil {
		response.InternalError(c, "failed to retrieve scan", err)
		return
	}
	if scan == nil {
		response.NotFound(c, "scan not found")
		return
	}

	var (
		previous, baseline *models.Scan
		farmer             *models.FarmerInfo
		crop               *models.Crop
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		previous, err = h.scans.GetPrevious(gctx, scan)
		return err
	})
	g.Go(func() (err error) {
		baseline, err = h.scans.GetBaseline(gctx, scan)
		return err
	})
	g.Go(func() (err error) {
		farmer, err = h.farmers.GetFarmer(gctx, farmerID)
		return err
	})
	g.Go(func() (err error) {
		crop, err = h.crops.GetCrop(gctx, scan.CropID)
		return err
	})
	if err := g.Wait(); err != nil {
		response.InternalError(c, "failed to load scan history", err)
		return
	}

	fieldCrop := models.CropOrDefault(scan.CropID)
	if crop != nil {
		fieldCrop = *crop
	}

	preview := h.requestEngine(c).BuildPreview(scan, fieldCrop, previous, baseline, farmer)
	h.cache.Set(farmerID, scanID, preview)

	response.Success(c, http.StatusOK, preview)
}

// HandleHistory handles GET /api/v1/scans/history?crop_id=&limit=.
func (h *ReportHandler) HandleHistory(c *gin.Context) {
	farmerID, _ := middleware.FarmerID(c)

	cropID, ok := optionalCropID(c)
	if !ok {
		return
	}
	limit := clampedLimit(c, defaultHistoryLimit, maxHistoryLimit)

	scans, err := h.scans.ListRecent(c.Request.Context(), farmerID, cropID, limit)
	if err != nil {
		response.InternalError(c, "failed to retrieve scans", err)
		return
	}

	items := h.requestEngine(c).BuildHistory(scans)
	response.Success(c, http.StatusOK, gin.H{
		"scans": items,
		"total": len(items),
	})
}

// HandleRecommendations handles GET /api/v1/recommendations?scan_id=|crop_id=.
// Without scan_id the farmer's latest scan is used, optionally for one crop.
func (h *ReportHandler) HandleRecommendations(c *gin.Context) {
	farmerID, _ := middleware.FarmerID(c)
	ctx := c.Request.Context()

	var (
		scan *models.Scan
		err  error
	)
	if raw := c.Query("scan_id"); raw != "" {
		scanID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil || scanID <= 0 {
			response.BadRequest(c, "scan_id must be a positive integer", nil)
			return
		}
		scan, err = h.scans.GetByID(ctx, farmerID, scanID)
	} else {
		cropID, ok := optionalCropID(c)
		if !ok {
			return
		}
		scan, err = h.scans.GetLatest(ctx, farmerID, cropID)
	}
	if err != nil {
		response.InternalError(c, "failed to retrieve scan", err)
		return
	}
	if scan == nil {
		response.NotFound(c, "no scan found")
		return
	}

	response.Success(c, http.StatusOK, h.requestEngine(c).BuildRecommendations(scan))
}

// HandleChart handles GET /api/v1/charts/:type?crop_id=&limit=.
func (h *ReportHandler) HandleChart(c *gin.Context) {
	farmerID, _ := middleware.FarmerID(c)

	graphType := health.GraphType(c.Param("type"))
	switch graphType {
	case health.GraphLine, health.GraphBar, health.GraphRadar:
	default:
		response.BadRequest(c, fmt.Sprintf("unknown chart type %q", graphType),
			[]health.GraphType{health.GraphLine, health.GraphBar, health.GraphRadar})
		return
	}

	cropID, ok := optionalCropID(c)
	if !ok {
		return
	}
	limit := clampedLimit(c, defaultChartLimit, maxChartLimit)

	scans, err := h.scans.ListRecent(c.Request.Context(), farmerID, cropID, limit)
	if err != nil {
		response.InternalError(c, "failed to retrieve scans", err)
		return
	}

	// ListRecent is newest first; charts read oldest to newest.
	for i, j := 0, len(scans)-1; i < j; i, j = i+1, j-1 {
		scans[i], scans[j] = scans[j], scans[i]
	}

	response.Success(c, http.StatusOK, h.requestEngine(c).GenerateGraphData(scans, graphType))
}

// requestEngine scopes the engine's logging to the request and stamps the
// response with the thresholds version it classifies against.
func (h *ReportHandler) requestEngine(c *gin.Context) *health.Engine {
	engine := h.engine.WithRequestLogger(middleware.Logger(c))
	response.UseThresholds(c, engine.Config().Version)
	return engine
}

// optionalCropID parses the crop_id query parameter. It writes a 400 and
// returns ok=false when the value is present but malformed.
func optionalCropID(c *gin.Context) (*int, bool) {
	raw := c.Query("crop_id")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		response.BadRequest(c, "crop_id must be a positive integer", nil)
		return nil, false
	}
	return &id, true
}

func clampedLimit(c *gin.Context, def, max int) int {
	limit := def
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > max {
		limit = max
	}
	return limit
}
