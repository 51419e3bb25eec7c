package repository

import (
	"context"

	"gorm.io/gorm"

	"sched-master/backend/internal/model"
	pkgerrors "sched-master/backend/pkg/errors"
)

// BranchRepository 监控网点数据访问接口
type BranchRepository interface {
	Create(ctx context.Context, branch *model.Branch) error
	GetByID(ctx context.Context, id string) (*model.Branch, error)
	List(ctx context.Context) ([]model.Branch, error)
	Update(ctx context.Context, branch *model.Branch) error
	Delete(ctx context.Context, id string) error
}

type branchRepo struct {
	db *gorm.DB
}

// NewBranchRepo 创建 BranchRepository 实例
func NewBranchRepo(db *gorm.DB) BranchRepository {
	return &branchRepo{db: db}
}

func (r *branchRepo) Create(ctx context.Context, branch *model.Branch) error {
	return r.db.WithContext(ctx).Create(branch).Error
}

func (r *branchRepo) GetByID(ctx context.Context, id string) (*model.Branch, error) {
	var branch model.Branch
	err := r.db.WithContext(ctx).
		Where("branch_id = ?", id).
		First(&branch).Error
	if err != nil {
		return nil, err
	}
	return &branch, nil
}

// List 按 POS 代码排序；空代码（刚新增的空白行）排在最前
func (r *branchRepo) List(ctx context.Context) ([]model.Branch, error) {
	var branches []model.Branch
	err := r.db.WithContext(ctx).
		Order("pos_code ASC, created_at ASC").
		Find(&branches).Error
	return branches, err
}

// Update 乐观锁更新：version 不匹配时返回 ErrOptimisticLock
func (r *branchRepo) Update(ctx context.Context, branch *model.Branch) error {
	oldVersion := branch.Version
	result := r.db.WithContext(ctx).
		Model(&model.Branch{}).
		Where("branch_id = ? AND version = ?", branch.BranchID, oldVersion).
		Updates(map[string]interface{}{
			"pos_code":      branch.PosCode,
			"branch_name":   branch.BranchName,
			"sap_code":      branch.SapCode,
			"is_uploaded":   branch.IsUploaded,
			"uploaded_by":   branch.UploadedBy,
			"uploaded_date": branch.UploadedDate,
			"updated_by":    branch.UpdatedBy,
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	branch.Version = oldVersion + 1
	return nil
}

func (r *branchRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("branch_id = ?", id).
		Delete(&model.Branch{}).Error
}
