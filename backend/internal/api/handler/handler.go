package handler

import (
	"sched-master/backend/internal/service"
	"sched-master/backend/pkg/redis"
)

// Handler 所有 Handler 的聚合入口
//
// 监控面板未启用时 Monitoring 为 nil，路由层不注册对应路由。
type Handler struct {
	Workspace  *WorkspaceHandler
	Export     *ExportHandler
	Monitoring *MonitoringHandler
	Health     *HealthHandler
}

// NewHandler 创建 Handler 聚合；rdb 可为 nil
func NewHandler(svc *service.Service, rdb *redis.Client) *Handler {
	var pinger Pinger
	if rdb != nil {
		pinger = rdb
	}

	h := &Handler{
		Workspace: NewWorkspaceHandler(svc.Workspace),
		Export:    NewExportHandler(svc.Export),
		Health:    NewHealthHandler(pinger, svc.Monitoring != nil),
	}
	if svc.Monitoring != nil {
		h.Monitoring = NewMonitoringHandler(svc.Monitoring)
	}
	return h
}
