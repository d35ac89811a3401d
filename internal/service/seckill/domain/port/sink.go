package port

import (
	"context"

	"goodskill/internal/service/seckill/domain"
)

// OrderSink 接收预占记录并最终持久化为订单。
// 实现可以是同步仓储写（MySQL），也可以是消息总线投递（Kafka），
// 核心流程不关心是哪一种。Persist 必须对同一令牌可安全重放。
type OrderSink interface {
	Persist(ctx context.Context, job *domain.OrderPersistRequested) error
}

// DeadLetterSink 记录重试预算耗尽的任务，等待人工对账。
// 已接受的预占绝不能被悄悄丢弃。
type DeadLetterSink interface {
	Record(ctx context.Context, job *domain.OrderPersistRequested, cause error) error
}
