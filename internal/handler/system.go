package handlers

import (
	"net/http"

	"Attune/internal/models"
	"Attune/pkg/middleware"
	"Attune/pkg/response"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) registerSystemRoutes(r *gin.RouterGroup) {
	system := r.Group("/system")
	{
		system.GET("/health", h.HealthCheck)

		system.GET("/rate-limiter", h.GetRateLimiterConfig)

		system.POST("/rate-limiter", h.UpdateRateLimiterConfig)
	}
}

// UpdateRateLimiterConfig 更新限流配置
func (h *Handlers) UpdateRateLimiterConfig(c *gin.Context) {
	var config middleware.RateLimiterConfig
	if err := c.ShouldBindJSON(&config); err != nil {
		response.Fail(c, "invalid request", nil)
		return
	}

	// 更新限流配置
	middleware.SetRateLimiterConfig(config)
	response.Success(c, "rate limiter config updated", nil)
}

func (h *Handlers) GetRateLimiterConfig(c *gin.Context) {
	response.Success(c, "success", middleware.GetRateLimiterConfig())
}

// HealthCheck 健康检查接口
func (h *Handlers) HealthCheck(c *gin.Context) {
	// 检查数据库连接
	sqlDB, err := h.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database connection failed"})
		return
	}
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database ping failed"})
		return
	}

	pending, err := models.CountPendingDispatches(h.db)
	if err != nil {
		pending = -1
	}

	// 返回健康状态
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "pendingDispatches": pending})
}
