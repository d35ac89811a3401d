// internal/service/seckill/application/service.go
package application

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"goodskill/internal/pkg/logger"
	"goodskill/internal/service/seckill/domain"
	"goodskill/internal/service/seckill/infrastructure"
	"goodskill/internal/service/seckill/strategy"
	"goodskill/internal/zookeeper"
)

// SeckillApplicationService 是应用层编排：
// 按配置键解析执行策略并执行购买请求，以及活动发布的管理入口。
type SeckillApplicationService struct {
	registry   *strategy.Registry
	defaultKey string
	tracer     trace.Tracer
	counter    *infrastructure.RedisCounterAdapter
	gate       *infrastructure.ZkStateGate
	zkConn     *zookeeper.Conn
}

func NewSeckillApplicationService(registry *strategy.Registry, defaultKey string, tracer trace.Tracer,
	counter *infrastructure.RedisCounterAdapter, gate *infrastructure.ZkStateGate, zkConn *zookeeper.Conn) *SeckillApplicationService {
	return &SeckillApplicationService{
		registry:   registry,
		defaultKey: defaultKey,
		tracer:     tracer,
		counter:    counter,
		gate:       gate,
		zkConn:     zkConn,
	}
}

// Execute 处理一次购买请求：解析策略、执行、上报指标
func (s *SeckillApplicationService) Execute(ctx context.Context, req *ExecuteRequest) (*ExecuteResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.SeckillExecute")
	defer span.End()

	key := req.StrategyKey
	if key == "" {
		key = s.defaultKey
	}
	span.SetAttributes(
		attribute.String("seckill.strategy", key),
		attribute.Int64("seckill.activity.id", req.ActivityID),
	)

	strat, err := s.registry.Resolve(key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "strategy resolution failed")
		return nil, err
	}

	attempt := domain.NewPurchaseAttempt(req.ActivityID, req.UserPhone)
	if req.Quantity > 0 {
		attempt.Quantity = req.Quantity
	}

	start := time.Now()
	outcome, execErr := strat.Execute(ctx, attempt)
	executeDuration.WithLabelValues(key).Observe(time.Since(start).Seconds())

	if outcome.Accepted {
		outcomeTotal.WithLabelValues(key, "accepted").Inc()
	} else {
		outcomeTotal.WithLabelValues(key, string(outcome.Reason)).Inc()
	}
	if execErr != nil {
		// 依赖故障已经被策略转译为 unavailable 拒绝，这里只记日志
		logger.Ctx(ctx).Error().Err(execErr).Int64("activity_id", req.ActivityID).
			Msg("Seckill dependency failure, attempt rejected closed")
	}

	return toExecuteResponse(outcome), nil
}

// PrepareActivity 发布一个活动：初始化库存计数并写入初始状态。
// 通过 ZooKeeper 分布式锁保证多实例同时发布时只有一个实例执行初始化。
func (s *SeckillApplicationService) PrepareActivity(ctx context.Context, req *PrepareRequest) error {
	ctx, span := s.tracer.Start(ctx, "app.PrepareActivity")
	defer span.End()

	if req.TotalStock < 0 {
		return fmt.Errorf("total stock must be non-negative, got %d", req.TotalStock)
	}

	lock, err := zookeeper.NewDistributedLock(s.zkConn, fmt.Sprintf("activity-%d", req.ActivityID))
	if err != nil {
		return err
	}
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire publish lock for activity %d: %w", req.ActivityID, err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("Failed to release publish lock")
		}
	}()

	if err := s.counter.SeedActivity(ctx, req.ActivityID, req.TotalStock); err != nil {
		span.RecordError(err)
		return err
	}

	state := domain.StateNotStarted
	if req.Start {
		state = domain.StateInProgress
	}
	if err := s.gate.SetState(ctx, req.ActivityID, state); err != nil {
		span.RecordError(err)
		return err
	}

	logger.Ctx(ctx).Info().Int64("activity_id", req.ActivityID).Int64("stock", req.TotalStock).
		Str("state", string(state)).Msg("✅ Activity published")
	return nil
}
