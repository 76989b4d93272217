// Package middleware 提供API全局中间件
package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/flow-engine/pkg/api/dto"
)

// Recovery panic恢复中间件
// 引擎回调内的panic由各引擎自行捕获；这里兜底handler层自身的panic，
// 带请求方法与路径落日志，统一返回500响应体
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("❌ [API] panic: %s %s, err=%v\n%s",
					c.Request.Method, c.Request.URL.Path, r, debug.Stack())
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					dto.NewErrorResponse(500, "Internal Server Error"))
			}
		}()
		c.Next()
	}
}
