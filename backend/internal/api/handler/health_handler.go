package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"sched-master/backend/internal/dto"
	"sched-master/backend/pkg/response"
)

// Pinger 可做健康检查的依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 健康检查
// Redis 与数据库都是可选依赖，不可用时仍返回 200，由字段说明降级状态
type HealthHandler struct {
	redis      Pinger
	monitoring bool
}

// NewHealthHandler 创建 HealthHandler；redis 可为 nil
func NewHealthHandler(redis Pinger, monitoring bool) *HealthHandler {
	return &HealthHandler{redis: redis, monitoring: monitoring}
}

// Health 健康检查
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{Status: "ok", Redis: "disabled", Monitoring: "disabled"}

	if h.redis != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.redis.Ping(ctx); err != nil {
			resp.Redis = "unavailable"
		} else {
			resp.Redis = "ok"
		}
	}
	if h.monitoring {
		resp.Monitoring = "enabled"
	}

	response.OK(c, resp)
}
