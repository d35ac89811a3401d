// internal/service/seckill/domain/activity.go
package domain

import "time"

// ActivityState 定义了秒杀活动的生命周期状态。
// 状态由状态机（ZooKeeper 复制）独占维护，执行策略只读。
type ActivityState string

const (
	StateNotStarted ActivityState = "NOT_STARTED" // 活动未开始
	StateInProgress ActivityState = "IN_PROGRESS" // 活动进行中，可下单
	StateEnded      ActivityState = "ENDED"       // 活动已结束
)

// Activity 是秒杀活动的只读快照。
// TotalStock 在活动发布后不再变化，执行策略永远不会修改它。
type Activity struct {
	ID         int64
	Name       string
	TotalStock int64
	StartTime  time.Time
	EndTime    time.Time
}
