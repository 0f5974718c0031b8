package handlers

import (
	"time"

	"Attune/internal/crisis"
	"Attune/pkg/cache"
	"Attune/pkg/config"
	"Attune/pkg/middleware"
	"Attune/pkg/sse"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handlers struct {
	db    *gorm.DB
	coord *crisis.Coordinator
	hub   *sse.Hub
	store cache.Cache
}

func NewHandlers(db *gorm.DB, coord *crisis.Coordinator, hub *sse.Hub, store cache.Cache) *Handlers {
	return &Handlers{
		db:    db,
		coord: coord,
		hub:   hub,
		store: store,
	}
}

func (h *Handlers) Register(engine *gin.Engine) {
	r := engine.Group(config.GlobalConfig.APIPrefix)

	// Register Global Singleton DB
	r.Use(middleware.InjectDB(h.db))
	// Register System Module Routes
	h.registerSystemRoutes(r)

	// Register Business Module Routes
	h.registerSafetyRoutes(r)
}

// Safety Module
func (h *Handlers) registerSafetyRoutes(r *gin.RouterGroup) {
	safety := r.Group("/safety")
	{
		safety.POST("/evaluate",
			middleware.RateLimiter(),
			middleware.IdempotencyMiddleware(middleware.IdempotencyConfig{
				TTL:   time.Minute,
				Store: h.store,
			}),
			h.handleEvaluate)

		safety.GET("/alerts", h.handleActiveAlerts)

		safety.POST("/alerts/:id/resolve", h.handleResolveAlert)

		safety.POST("/alerts/:id/transfer", h.handleTransferAlert)

		safety.GET("/plan", h.handleGetSafetyPlan)

		safety.PUT("/plan", h.handleUpdateSafetyPlan)

		safety.GET("/resources", h.handleResources)

		safety.GET("/stream", h.handleAlertStream)
	}
}
