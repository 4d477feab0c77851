package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-practice/internal/config"
	"github.com/stemsi/exstem-practice/internal/handler"
	"github.com/stemsi/exstem-practice/internal/middleware"
	"github.com/stemsi/exstem-practice/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Set        *handler.SetHandler
	Preference *handler.PreferenceHandler
	Session    *handler.SessionHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", response.HeaderRequestID, middleware.HeaderClientID}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))

	// Apply brotli middleware globally. WebSocket upgrades pass through untouched.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Question Sets (Public, Cacheable) ──────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.ClientID())

	sets := api.Group("/sets")
	sets.Use(middleware.CacheControl(5 * time.Minute))
	{
		sets.GET("/:kind/:slug", handlers.Set.GetSummary)
		sets.GET("/:kind/:slug/questions", handlers.Set.GetPage)
	}

	// ─── 2. Preferences (Client ID required) ───────────────────────────
	prefs := api.Group("/preferences")
	prefs.Use(middleware.RequireClientID(), middleware.NoStore())
	{
		prefs.GET("/exam-mode", handlers.Preference.GetExamMode)
		prefs.PUT("/exam-mode", handlers.Preference.SetExamMode)
	}

	// ─── 3. WebSocket Sessions (Rate Limited) ──────────────────────────
	sessionLimiter := middleware.NewRateLimiter(cfg.SessionRateLimit, time.Minute)

	ws := router.Group("/ws/v1")
	ws.Use(middleware.ClientID(), sessionLimiter.Middleware())
	{
		ws.GET("/sets/:kind/:slug/session", handlers.Session.Stream)
	}

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	return router
}
