package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"location-service/internal/config"
	"location-service/internal/dispatch"
	"location-service/internal/handler"
	"location-service/internal/metrics"
	"location-service/internal/middleware"
	"location-service/internal/repository"
	"location-service/internal/service"
	"location-service/internal/websocket"
)

// Setup wires repositories, services and handlers onto a gin engine. The hub
// and dispatcher are built by the caller because their lifecycles outlive a
// single request.
func Setup(
	cfg *config.Config,
	db *gorm.DB,
	redisClient *redis.Client,
	hub *websocket.Hub,
	dispatcher dispatch.Dispatcher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.Metrics(m))

	// Initialize repositories
	locationRepo := repository.NewLocationRepository(db)
	shareRepo := repository.NewShareRepository(db)
	geofenceRepo := repository.NewGeofenceRepository(db)

	// Initialize services
	presenceService := service.NewPresenceService(locationRepo, shareRepo, geofenceRepo, dispatcher, cfg.Location, logger, m)
	shareService := service.NewShareService(shareRepo, dispatcher, logger)
	geofenceService := service.NewGeofenceService(geofenceRepo, cfg.Location, logger)

	// Initialize validator
	validator := middleware.NewAuthServiceValidator(cfg.Auth.ServiceURL, cfg.Auth.SecretKey, logger)

	// Initialize handlers
	locationHandler := handler.NewLocationHandler(presenceService)
	shareHandler := handler.NewShareHandler(shareService)
	geofenceHandler := handler.NewGeofenceHandler(geofenceService)
	wsHandler := handler.NewWSHandler(hub, presenceService, validator, logger)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	// Health endpoints (no auth)
	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes with base path
	api := r.Group(cfg.Server.BasePath)
	{
		// Health under base path
		api.GET("/health", healthHandler.Health)
		api.GET("/ready", healthHandler.Ready)

		// WebSocket endpoint (token auth via query parameter)
		api.GET("/ws", wsHandler.HandleWebSocket)

		// Authenticated routes
		authenticated := api.Group("")
		authenticated.Use(middleware.AuthMiddleware(validator))
		{
			// Location routes
			authenticated.POST("/update", locationHandler.UpdateLocation)
			authenticated.GET("/current", locationHandler.GetCurrent)
			authenticated.GET("/current/:userId", locationHandler.GetUserCurrent)
			authenticated.GET("/history", locationHandler.GetHistory)
			authenticated.GET("/history/:userId", locationHandler.GetUserHistory)
			authenticated.GET("/nearby", locationHandler.GetNearby)
			authenticated.GET("/stats", locationHandler.GetStats)

			// Share routes
			authenticated.POST("/shares", shareHandler.CreateShare)
			authenticated.GET("/shares", shareHandler.ListShares)
			authenticated.POST("/shares/revoke", shareHandler.RevokeShare)
			authenticated.DELETE("/shares/:shareId", shareHandler.DeleteShare)

			// Geofence routes (static route must come before dynamic route)
			authenticated.POST("/geofences", geofenceHandler.CreateGeofence)
			authenticated.GET("/geofences", geofenceHandler.ListGeofences)
			authenticated.GET("/geofences/events", geofenceHandler.ListGeofenceEvents)
			authenticated.PUT("/geofences/:fenceId", geofenceHandler.UpdateGeofence)
			authenticated.DELETE("/geofences/:fenceId", geofenceHandler.DeleteGeofence)
		}
	}

	return r
}
