// internal/service/seckill/strategy/redis_mysql.go
package strategy

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"goodskill/internal/service/seckill/domain"
	"goodskill/internal/service/seckill/domain/port"
)

const KeyRedisMySQL = "redis-mysql"

// RedisMySQLStrategy 以 Redis 计数器 + 工作池直写 MySQL 仓储的组合执行秒杀。
// 适合单集群部署：落库路径短，死信落在同一个库里方便对账。
type RedisMySQLStrategy struct {
	core reactiveCore
}

func NewRedisMySQLStrategy(gate port.StateGate, cache port.ActivityCache, counter port.StockCounter,
	pool Submitter, tracer trace.Tracer, prechecks ...port.EligibilityCheck) *RedisMySQLStrategy {
	return &RedisMySQLStrategy{core: reactiveCore{
		gate: gate, cache: cache, counter: counter,
		pool: pool, prechecks: prechecks, tracer: tracer,
	}}
}

func (s *RedisMySQLStrategy) Name() string { return KeyRedisMySQL }

func (s *RedisMySQLStrategy) Execute(ctx context.Context, attempt *domain.PurchaseAttempt) (*domain.ReservationOutcome, error) {
	return s.core.execute(ctx, s.Name(), attempt)
}
