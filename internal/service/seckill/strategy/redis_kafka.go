// internal/service/seckill/strategy/redis_kafka.go
package strategy

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"goodskill/internal/service/seckill/domain"
	"goodskill/internal/service/seckill/domain/port"
)

const KeyRedisKafka = "redis-kafka"

// RedisKafkaStrategy 以 Redis 计数器 + 工作池投递 Kafka 的组合执行秒杀。
// 落库由独立的 order-consumer 服务完成，写入方和消费方可以独立扩缩容，
// 消费失败走 retry/DLT 主题兜底。
type RedisKafkaStrategy struct {
	core reactiveCore
}

func NewRedisKafkaStrategy(gate port.StateGate, cache port.ActivityCache, counter port.StockCounter,
	pool Submitter, tracer trace.Tracer, prechecks ...port.EligibilityCheck) *RedisKafkaStrategy {
	return &RedisKafkaStrategy{core: reactiveCore{
		gate: gate, cache: cache, counter: counter,
		pool: pool, prechecks: prechecks, tracer: tracer,
	}}
}

func (s *RedisKafkaStrategy) Name() string { return KeyRedisKafka }

func (s *RedisKafkaStrategy) Execute(ctx context.Context, attempt *domain.PurchaseAttempt) (*domain.ReservationOutcome, error) {
	return s.core.execute(ctx, s.Name(), attempt)
}
