package port

import "context"

// StockCounter 是共享抢占计数器的出站端口。
// Increment 必须由存储端在一次往返内原子完成（如 Redis INCR），
// 返回值对同一活动严格递增且全局唯一，这是防超卖的唯一串行化点。
type StockCounter interface {
	Increment(ctx context.Context, activityID int64) (int64, error)
}
