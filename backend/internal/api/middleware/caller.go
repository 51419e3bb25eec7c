package middleware

import (
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
)

const (
	callerKey       = "caller"
	callerHeader    = "X-User-Email"
	callerMaxLen    = 200
	defaultCallerID = "User"
)

// Caller 操作人识别中间件
// 系统不做认证：前端在 X-User-Email 中传入当前登录邮箱，仅用于填写 uploadedBy / updatedBy
// 缺失、过长或含控制字符时记为 "User"
func Caller() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(callerKey, sanitizeCaller(c.GetHeader(callerHeader)))
		c.Next()
	}
}

// GetCaller 读取 Caller 中间件注入的操作人
func GetCaller(c *gin.Context) string {
	if v, ok := c.Get(callerKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return defaultCallerID
}

func sanitizeCaller(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || len(s) > callerMaxLen {
		return defaultCallerID
	}
	if strings.IndexFunc(s, unicode.IsControl) >= 0 {
		return defaultCallerID
	}
	return s
}
