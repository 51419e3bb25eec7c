package repository

import (
	"context"

	"gorm.io/gorm"

	"sched-master/backend/internal/model"
)

// ProgressRepository 月度上传进度数据访问接口
type ProgressRepository interface {
	// ReplacePeriod 用 entries 整体替换某月的归档
	ReplacePeriod(ctx context.Context, period string, entries []model.ProgressEntry) error
	ListByPeriod(ctx context.Context, period string) ([]model.ProgressEntry, error)
	// ListPeriods 已归档的月份，新的在前
	ListPeriods(ctx context.Context) ([]string, error)
}

type progressRepo struct {
	db *gorm.DB
}

// NewProgressRepo 创建 ProgressRepository 实例
func NewProgressRepo(db *gorm.DB) ProgressRepository {
	return &progressRepo{db: db}
}

func (r *progressRepo) ReplacePeriod(ctx context.Context, period string, entries []model.ProgressEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("period = ?", period).Delete(&model.ProgressEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		for i := range entries {
			entries[i].Period = period
		}
		return tx.Create(&entries).Error
	})
}

func (r *progressRepo) ListByPeriod(ctx context.Context, period string) ([]model.ProgressEntry, error) {
	var entries []model.ProgressEntry
	err := r.db.WithContext(ctx).
		Where("period = ?", period).
		Order("pos_code ASC").
		Find(&entries).Error
	return entries, err
}

func (r *progressRepo) ListPeriods(ctx context.Context) ([]string, error) {
	var periods []string
	err := r.db.WithContext(ctx).
		Model(&model.ProgressEntry{}).
		Distinct("period").
		Order("period DESC").
		Pluck("period", &periods).Error
	return periods, err
}
