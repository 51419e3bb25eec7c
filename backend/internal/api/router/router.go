package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sched-master/backend/config"
	"sched-master/backend/internal/api/handler"
	"sched-master/backend/internal/api/middleware"
	"sched-master/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时限流降级放行；h.Monitoring 为 nil 时不注册监控路由
func Setup(cfg *config.Config, h *handler.Handler, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", h.Health.Health)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(rdb, cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window, logger))
	v1.Use(middleware.Caller())
	{
		// 排班工作区
		schedules := v1.Group("/schedules")
		{
			schedules.GET("", h.Workspace.GetWorkspace)
			// 静态路径需先于 :kind 参数路由注册
			schedules.GET("/rest/calendar", h.Export.ExportRestCalendar)

			schedules.POST("/:kind/paste", h.Workspace.Paste)
			schedules.POST("/:kind/import", h.Workspace.ImportWorkbook)
			schedules.PUT("/:kind/records/:index", h.Workspace.UpdateRecord)
			schedules.DELETE("/:kind/records/:index", h.Workspace.DeleteRecord)
			schedules.DELETE("/:kind", h.Workspace.Clear)
			schedules.POST("/:kind/undo", h.Workspace.Undo)
			schedules.POST("/:kind/redo", h.Workspace.Redo)
			schedules.GET("/:kind/export", h.Export.ExportDataset)
		}

		// 网点上传监控（需要数据库）
		if h.Monitoring != nil {
			monitoring := v1.Group("/monitoring")
			{
				monitoring.GET("/branches", h.Monitoring.ListBranches)
				monitoring.POST("/branches", h.Monitoring.CreateBranch)
				monitoring.PUT("/branches/:id", h.Monitoring.UpdateBranch)
				monitoring.DELETE("/branches/:id", h.Monitoring.DeleteBranch)
				monitoring.GET("/progress", h.Monitoring.GetProgress)
				monitoring.GET("/periods", h.Monitoring.ListPeriods)
				monitoring.POST("/periods/:period/entries", h.Monitoring.ArchivePeriod)
				monitoring.GET("/periods/:period/entries", h.Monitoring.GetPeriodEntries)
				monitoring.GET("/reports", h.Monitoring.ExportReport)
			}
		}
	}

	return r
}
