package service

import (
	"go.uber.org/zap"

	"sched-master/backend/config"
	"sched-master/backend/internal/repository"
)

// Service 所有 Service 的聚合入口
//
// 监控数据库未启用时 Monitoring 为 nil，对应路由不注册。
type Service struct {
	Workspace  WorkspaceService
	Export     ExportService
	Monitoring MonitoringService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	logger *zap.Logger,
) *Service {
	workspace := NewWorkspaceService(&cfg.Schedule, repo, logger.Named("workspace"))

	svc := &Service{
		Workspace: workspace,
		Export:    NewExportService(workspace, cfg.Schedule.DefaultBranch, logger.Named("export")),
	}
	if repo.Branch != nil && repo.Progress != nil {
		svc.Monitoring = NewMonitoringService(repo, logger.Named("monitoring"))
	}
	return svc
}
