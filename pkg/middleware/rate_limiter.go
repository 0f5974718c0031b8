package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimiterConfig 限流配置
type RateLimiterConfig struct {
	Enabled bool          `json:"enabled"`
	Period  time.Duration `json:"period"`
	Limit   int64         `json:"limit"`
}

var (
	rlMu  sync.RWMutex
	rlCfg = RateLimiterConfig{Enabled: true, Period: time.Minute, Limit: 60}

	rlAllow = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limiter_allowed_total",
		Help: "Requests allowed by the rate limiter",
	}, []string{"path"})
	rlDeny = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limiter_denied_total",
		Help: "Requests denied by the rate limiter",
	}, []string{"path"})
)

// SetRateLimiterConfig 运行时更新限流配置
func SetRateLimiterConfig(cfg RateLimiterConfig) {
	rlMu.Lock()
	defer rlMu.Unlock()
	if cfg.Period <= 0 {
		cfg.Period = time.Minute
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 60
	}
	rlCfg = cfg
}

func GetRateLimiterConfig() RateLimiterConfig {
	rlMu.RLock()
	defer rlMu.RUnlock()
	return rlCfg
}

// RateLimiter 基于客户端 IP 的内存限流
func RateLimiter() gin.HandlerFunc {
	store := memory.NewStore()
	instance := limiter.New(store, limiter.Rate{Period: rlCfg.Period, Limit: rlCfg.Limit})

	return func(c *gin.Context) {
		cfg := GetRateLimiterConfig()
		if !cfg.Enabled {
			c.Next()
			return
		}
		lctx, err := instance.Get(c.Request.Context(), c.ClientIP())
		if err != nil {
			// 限流器故障不拦截业务请求
			c.Next()
			return
		}
		if lctx.Reached {
			rlDeny.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		rlAllow.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
