package middleware

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const DBKey = "db"

// InjectDB 将数据库实例注入请求上下文
func InjectDB(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(DBKey, db)
		c.Next()
	}
}
