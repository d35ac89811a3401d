package port

import (
	"context"

	"goodskill/internal/service/seckill/domain"
)

// StateGate 是活动状态门的出站端口，对策略而言只读。
// 状态由各实例共同观察的复制状态机维护，读取允许有界的短暂滞后。
type StateGate interface {
	// CheckState 判断活动是否处于期望状态
	CheckState(ctx context.Context, activityID int64, expected domain.ActivityState) (bool, error)

	// State 返回活动的当前状态
	State(ctx context.Context, activityID int64) (domain.ActivityState, error)
}
