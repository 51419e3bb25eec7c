package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"sched-master/backend/internal/schedule"
	"sched-master/backend/pkg/redis"
)

// DatasetRepository 排班数据集快照存取接口
// 每类数据集一个固定键，整体覆盖写入；读取不到时视为空数据集
type DatasetRepository interface {
	Load(ctx context.Context, kind schedule.Kind) ([]schedule.Record, error)
	Save(ctx context.Context, kind schedule.Kind, records []schedule.Record) error
}

type datasetRepo struct {
	rdb  *redis.Client
	keys map[schedule.Kind]string
}

// NewDatasetRepo 创建基于 Redis 的 DatasetRepository
func NewDatasetRepo(rdb *redis.Client, workKey, restKey string) DatasetRepository {
	return &datasetRepo{
		rdb: rdb,
		keys: map[schedule.Kind]string{
			schedule.KindWork: workKey,
			schedule.KindRest: restKey,
		},
	}
}

func (r *datasetRepo) Load(ctx context.Context, kind schedule.Kind) ([]schedule.Record, error) {
	key, err := r.key(kind)
	if err != nil {
		return nil, err
	}
	data, err := r.rdb.GetSnapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []schedule.Record{}, nil
	}
	var records []schedule.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("快照 %s 格式无效: %w", key, err)
	}
	if records == nil {
		records = []schedule.Record{}
	}
	return records, nil
}

// Save 冲突标注不落盘，加载后重新计算；空数据集删除快照
func (r *datasetRepo) Save(ctx context.Context, kind schedule.Kind, records []schedule.Record) error {
	key, err := r.key(kind)
	if err != nil {
		return err
	}
	// 空数据集直接删除快照，Load 对缺失键返回空数据集
	if len(records) == 0 {
		return r.rdb.DeleteSnapshot(ctx, key)
	}
	data, err := json.Marshal(schedule.StripConflicts(records))
	if err != nil {
		return fmt.Errorf("序列化快照失败: %w", err)
	}
	return r.rdb.SetSnapshot(ctx, key, data)
}

func (r *datasetRepo) key(kind schedule.Kind) (string, error) {
	key, ok := r.keys[kind]
	if !ok {
		return "", fmt.Errorf("未知的排班类型 %q", kind)
	}
	return key, nil
}
