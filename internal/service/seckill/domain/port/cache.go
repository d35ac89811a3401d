package port

import (
	"context"
	"errors"

	"goodskill/internal/service/seckill/domain"
)

var ErrActivityNotFound = errors.New("seckill activity not found")

// ActivityCache 提供活动总库存的快速读取。
// 数据在活动发布时刷入缓存，读取无需与计数器自增保持原子。
type ActivityCache interface {
	GetActivity(ctx context.Context, activityID int64) (*domain.Activity, error)
}
