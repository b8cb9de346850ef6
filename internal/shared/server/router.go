package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/applications"
	"resume-tailor/internal/generation"
	"resume-tailor/internal/shared/config"
	"resume-tailor/internal/shared/metrics"
	"resume-tailor/internal/shared/server/middleware"
	"resume-tailor/internal/shared/server/respond"
	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/internal/uploads"
)

const healthPingTimeout = 2 * time.Second

// RouterDeps carries the handlers assembled by bootstrap.
type RouterDeps struct {
	Config             config.Config
	DB                 *sql.DB
	UploadHandler      *uploads.Handler
	ApplicationHandler *applications.Handler
	GenerationHandler  *generation.Handler
}

type modelResponse struct {
	Provider    string `json:"provider"`
	ModelID     string `json:"model_id"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	api := r.Group("/api")
	api.GET("/", func(c *gin.Context) {
		respond.OK(c, gin.H{"message": "Resume Tailoring API"})
	})
	api.GET("/health", health(deps.DB))
	api.GET("/metrics", metrics.Handler())
	api.GET("/models", listModels(deps.Config.Models))

	if deps.UploadHandler != nil {
		deps.UploadHandler.RegisterRoutes(api)
	}
	if deps.ApplicationHandler != nil {
		deps.ApplicationHandler.RegisterRoutes(api)
	}
	if deps.GenerationHandler != nil {
		deps.GenerationHandler.RegisterRoutes(api, generateRateLimit(deps.Config))
	}

	return r
}

func health(database *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if database == nil {
			respond.OK(c, gin.H{"ok": true, "database": "memory"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
		defer cancel()
		if err := database.PingContext(ctx); err != nil {
			telemetry.Error("health.db_ping_failed", map[string]any{"error": err.Error()})
			respond.JSON(c, http.StatusServiceUnavailable, gin.H{"ok": false, "database": "unreachable"})
			return
		}
		respond.OK(c, gin.H{"ok": true, "database": "ok"})
	}
}

func listModels(models []config.ModelConfig) gin.HandlerFunc {
	out := make([]modelResponse, 0, len(models))
	for _, m := range models {
		out = append(out, modelResponse{
			Provider:    m.Provider,
			ModelID:     m.ModelID,
			DisplayName: m.DisplayName,
			Description: m.Description,
		})
	}
	return func(c *gin.Context) {
		respond.OK(c, out)
	}
}

func generateRateLimit(cfg config.Config) gin.HandlerFunc {
	var limiter *middleware.ClientLimiter
	if cfg.GenerateRatePerMinute > 0 {
		limiter = middleware.NewClientLimiter(cfg.GenerateRatePerMinute/60, cfg.GenerateBurst, nil)
	}
	return middleware.RateLimit(middleware.RateLimitConfig{
		Limiter: limiter,
		Message: "Too many generation requests. Please wait a moment and try again.",
	})
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
