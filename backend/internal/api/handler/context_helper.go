package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"sched-master/backend/internal/api/middleware"
	"sched-master/backend/internal/schedule"
	"sched-master/backend/internal/service"
	"sched-master/backend/pkg/response"
)

// CallerName 当前操作人显示名（X-User-Email，缺省为 "User"）
func CallerName(c *gin.Context) string {
	return middleware.GetCaller(c)
}

// MustGetKind 解析路由参数 :kind（work / rest）
// 解析失败时写入 400 响应，调用方应在 ok=false 时直接 return。
func MustGetKind(c *gin.Context) (schedule.Kind, bool) {
	kind, err := service.ParseKind(c.Param("kind"))
	if err != nil {
		response.BadRequest(c, 12001, "排班类型必须为 work 或 rest")
		return "", false
	}
	return kind, true
}

// MustGetIndex 解析路由参数 :index（从 0 开始的行号）
func MustGetIndex(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 {
		response.BadRequest(c, 10001, "行号必须为非负整数")
		return 0, false
	}
	return idx, true
}
