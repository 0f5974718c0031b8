package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	"Attune/pkg/cache"

	"github.com/gin-gonic/gin"
)

type IdempotencyConfig struct {
	HeaderName string        // Idempotency-Key 的请求头名
	TTL        time.Duration // 重复请求的拒绝窗口
	Store      cache.Cache
}

// IdempotencyMiddleware rejects duplicate submissions inside the TTL window.
// Without an explicit key the request body hash is used.
func IdempotencyMiddleware(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "Idempotency-Key"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	store := cfg.Store
	if store == nil {
		store = cache.NewGoCache(cache.LocalConfig{})
	}
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(cfg.HeaderName))
		if key == "" {
			// 兜底以 方法|路径|用户|请求体 哈希作为幂等键
			b, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(b))
			sum := sha256.New()
			sum.Write([]byte(c.Request.Method))
			sum.Write([]byte(c.FullPath()))
			sum.Write([]byte(c.GetHeader("X-User-ID")))
			sum.Write(b)
			key = hex.EncodeToString(sum.Sum(nil))
		}
		fresh, err := store.SetNX(c.Request.Context(), "idem:"+key, 1, cfg.TTL)
		if err == nil && !fresh {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "duplicate request"})
			return
		}
		c.Next()
	}
}
