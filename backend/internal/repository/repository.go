package repository

import (
	"gorm.io/gorm"

	"sched-master/backend/config"
	"sched-master/backend/pkg/redis"
)

// Repository 所有 Repository 的聚合入口
//
// db 为 nil（监控面板关闭）时 Branch/Progress 为 nil；
// rdb 为 nil（Redis 不可用）时 Dataset 为 nil，排班数据只保存在内存中。
type Repository struct {
	Branch   BranchRepository
	Progress ProgressRepository
	Dataset  DatasetRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB, rdb *redis.Client, cfg *config.ScheduleConfig) *Repository {
	repo := &Repository{}
	if db != nil {
		repo.Branch = NewBranchRepo(db)
		repo.Progress = NewProgressRepo(db)
	}
	if rdb != nil {
		repo.Dataset = NewDatasetRepo(rdb, cfg.SnapshotKeyWork, cfg.SnapshotKeyRest)
	}
	return repo
}
