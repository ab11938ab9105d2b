package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/agentfeed/internal/api/handler"
	"github.com/timmy/agentfeed/internal/api/middleware"
	"github.com/timmy/agentfeed/internal/config"
	"github.com/timmy/agentfeed/internal/logger"
	"github.com/timmy/agentfeed/internal/metrics"
)

// Services are the collaborators exposed over HTTP.
type Services struct {
	Cycles      handler.CycleService
	Status      handler.StatusReporter
	Regenerator handler.Regenerator
	UserMedia   handler.DualRatioProcessor
	Studio      handler.StudioProcessor
	Trending    handler.TrendingReader

	// MaxImageBytes bounds a decoded studio upload; zero uses the handler default.
	MaxImageBytes int64
}

// SetupRouter configures the Gin router with all routes.
// Parameters:
//   - svc: services behind the handlers.
//   - cfg: server mode and CORS settings.
//   - log: base logger for request logging.
//   - m: optional metrics collector; nil disables /metrics.
//
// Returns:
//   - *gin.Engine: configured router.
func SetupRouter(svc Services, cfg *config.ServerConfig, log *logger.Logger, m *metrics.Collector) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	if m != nil {
		r.Use(m.Middleware())
	}
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	healthHandler := handler.NewHealthHandler(len(svc.Cycles.Roster()))
	agentHandler := handler.NewAgentHandler(svc.Cycles, svc.Status)
	postHandler := handler.NewPostHandler(svc.Regenerator, svc.UserMedia)
	studioHandler := handler.NewStudioHandler(svc.Studio, svc.Trending, svc.MaxImageBytes)

	r.GET("/health", healthHandler.Health)
	if m != nil {
		r.GET("/metrics", m.Handler())
	}

	v1 := r.Group("/api/v1")
	{
		// Agents
		v1.POST("/agents/run", agentHandler.RunAll)
		v1.POST("/agents/:creator/run", agentHandler.RunOne)
		v1.GET("/agents/status", agentHandler.Status)

		// Posts
		v1.POST("/posts/:id/regenerate", postHandler.Regenerate)
		v1.POST("/posts/:id/dual-ratio", postHandler.DualRatio)

		// Studio
		v1.POST("/studio", studioHandler.Process)
		v1.GET("/trending", studioHandler.Trending)
	}

	return r
}
