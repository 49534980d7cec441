package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fasalvaidya/crop-health/internal/api/handlers"
	"github.com/fasalvaidya/crop-health/internal/api/middleware"
	"github.com/fasalvaidya/crop-health/internal/api/response"
	"github.com/fasalvaidya/crop-health/internal/cache"
	"github.com/fasalvaidya/crop-health/internal/config"
	"github.com/fasalvaidya/crop-health/internal/health"
	"github.com/fasalvaidya/crop-health/internal/metrics"
	"github.com/fasalvaidya/crop-health/internal/repository"
	"github.com/fasalvaidya/crop-health/pkg/auth"
)

// Deps are the services the router wires into handlers. Imports, ScanWriter
// and Idempotency are nil when scans live in SQLite; Thresholds is nil when
// thresholds come from a file. Leave them unset rather than assigning typed
// nil pointers.
type Deps struct {
	Config *config.Config
	Engine *health.Engine
	Store  *health.Store

	Scans   repository.ScanStore
	Crops   repository.CropStore
	Farmers repository.FarmerStore

	Imports     handlers.ImportStore
	ScanWriter  handlers.ScanWriter
	Idempotency handlers.IdempotencyClaimer
	Thresholds  handlers.ThresholdActivator

	Cache    *cache.ReportCache
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

var (
	readRoles  = []string{auth.RoleFarmer, auth.RoleAgronomist, auth.RoleAdmin}
	writeRoles = []string{auth.RoleAgronomist, auth.RoleAdmin}
)

// NewRouter creates and configures the Gin router with all routes and middleware.
func NewRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	cfg := deps.Config

	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins...))
	r.Use(middleware.CorrelationMiddleware(nil))
	r.Use(middleware.StructuredLogging())

	var recorder handlers.Recorder
	if deps.Metrics != nil {
		r.Use(middleware.RequestMetrics(deps.Metrics))
		recorder = deps.Metrics
	}

	// Health check (no auth required)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":             "healthy",
			"service":            middleware.ServiceName,
			"thresholds_version": deps.Store.Get().Version,
		})
	})

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	reportHandler := handlers.NewReportHandler(deps.Engine, deps.Scans, deps.Crops, deps.Farmers, deps.Cache, recorder)
	cropHandler := handlers.NewCropHandler(deps.Crops)
	thresholdHandler := handlers.NewThresholdHandler(deps.Store, deps.Thresholds, recorder)
	importHandler := handlers.NewImportHandler(deps.Imports, deps.ScanWriter, deps.Idempotency, cfg.Import, recorder)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(&cfg.JWT))
	{
		read := middleware.RequireRole(readRoles...)

		v1.GET("/crops", read, cropHandler.HandleList)

		v1.GET("/reports/preview", read, reportHandler.HandlePreview)
		v1.GET("/scans/history", read, reportHandler.HandleHistory)
		v1.GET("/recommendations", read, reportHandler.HandleRecommendations)
		v1.GET("/charts/:type", read, reportHandler.HandleChart)

		v1.POST("/scans/import", middleware.RequireRole(writeRoles...), importHandler.HandleImport)

		v1.GET("/config/thresholds", read, thresholdHandler.HandleGet)
		v1.POST("/config/thresholds/reload", middleware.RequireRole(auth.RoleAdmin), thresholdHandler.HandleReload)
		v1.PUT("/config/thresholds", middleware.RequireRole(auth.RoleAdmin), thresholdHandler.HandleUpdate)
	}

	// Token generation endpoint (dev only, generates test JWTs)
	if cfg.Server.DevTokens {
		r.POST("/dev/token", devTokenHandler(cfg))
	}

	return r
}

// devTokenHandler returns a handler that generates test JWTs for development.
func devTokenHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			FarmerID string `json:"farmer_id"`
			UserID   string `json:"user_id"`
			Role     string `json:"role"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request", nil)
			return
		}

		farmerID, err := uuid.Parse(req.FarmerID)
		if err != nil {
			response.BadRequest(c, "invalid farmer_id", nil)
			return
		}
		userID := farmerID
		if req.UserID != "" {
			if userID, err = uuid.Parse(req.UserID); err != nil {
				response.BadRequest(c, "invalid user_id", nil)
				return
			}
		}
		if req.Role == "" {
			req.Role = auth.RoleFarmer
		}

		token, err := auth.GenerateToken(cfg.JWT.Secret, cfg.JWT.Issuer, farmerID, userID, req.Role, cfg.JWT.ExpiryHours)
		if err != nil {
			response.InternalError(c, "failed to generate token", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}
