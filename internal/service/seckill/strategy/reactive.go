// internal/service/seckill/strategy/reactive.go
package strategy

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"goodskill/internal/pkg/logger"
	"goodskill/internal/service/seckill/domain"
	"goodskill/internal/service/seckill/domain/port"
)

// reactiveCore 承载两种策略共同的执行流程：
//
//	状态门校验 → 资格预检 → 读取总库存 → 原子自增计数 → 判定 → 异步落库
//
// 正确性完全依赖计数器的原子自增；状态检查允许窄竞态窗口
// （活动收尾瞬间多卖出的判定是业务可接受的，不是库存正确性问题）。
type reactiveCore struct {
	gate      port.StateGate
	cache     port.ActivityCache
	counter   port.StockCounter
	pool      Submitter
	prechecks []port.EligibilityCheck
	tracer    trace.Tracer
}

func (c *reactiveCore) execute(ctx context.Context, name string, attempt *domain.PurchaseAttempt) (*domain.ReservationOutcome, error) {
	ctx, span := c.tracer.Start(ctx, "strategy.Execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("seckill.strategy", name),
		attribute.Int64("seckill.activity.id", attempt.ActivityID),
	)

	// 1. 状态门：非进行中直接拒绝，不触碰计数器
	state, err := c.gate.State(ctx, attempt.ActivityID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "state gate unavailable")
		return domain.RejectedOutcome(domain.ReasonUnavailable), err
	}
	switch state {
	case domain.StateInProgress:
		// 继续
	case domain.StateNotStarted:
		span.AddEvent("Rejected: activity not started")
		return domain.RejectedOutcome(domain.ReasonNotStarted), nil
	default:
		span.AddEvent("Rejected: activity ended")
		return domain.RejectedOutcome(domain.ReasonEnded), nil
	}

	// 2. 可插拔资格预检（一人一单、规则引擎等），默认为空
	for _, check := range c.prechecks {
		reason, err := check.Check(ctx, attempt)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "eligibility check unavailable")
			return domain.RejectedOutcome(domain.ReasonUnavailable), err
		}
		if reason != "" {
			span.AddEvent("Rejected by eligibility check", trace.WithAttributes(attribute.String("reason", string(reason))))
			return domain.RejectedOutcome(reason), nil
		}
	}

	// 3. 读取总库存（活动发布时刷入的缓存值，无需与自增原子）
	activity, err := c.cache.GetActivity(ctx, attempt.ActivityID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "activity cache unavailable")
		return domain.RejectedOutcome(domain.ReasonUnavailable), err
	}

	// 4. 原子自增，一次往返拿到自增后的值。失败必须整单拒绝：
	//    未计数就放行是唯一会重新引入超卖的结果。
	claimValue, err := c.counter.Increment(ctx, attempt.ActivityID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stock counter unavailable")
		return domain.RejectedOutcome(domain.ReasonUnavailable), err
	}
	span.SetAttributes(attribute.Int64("seckill.claim.value", claimValue))

	// 5. 超出总库存即售罄。自增不回滚，超抢量以在途并发数为界。
	if claimValue > activity.TotalStock {
		span.AddEvent("Rejected: sold out")
		return domain.RejectedOutcome(domain.ReasonSoldOut), nil
	}

	// 6. 预占成立：生成令牌并交给工作池异步落库，立即返回
	token := domain.NewReservationToken(attempt.ActivityID, claimValue)
	job := &domain.OrderPersistRequested{
		EventID:     uuid.New().String(),
		Token:       token,
		ActivityID:  attempt.ActivityID,
		UserPhone:   attempt.UserPhone,
		ClaimValue:  claimValue,
		Quantity:    attempt.Quantity,
		RequestTime: attempt.RequestTime,
	}
	if err := c.pool.Submit(ctx, job); err != nil {
		// Submit 自带同步兜底，理论上不会失败；万一失败也不能
		// 收回已经返回的预占，只能记录下来等对账
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Str("token", token).
			Msg("🚨 CRITICAL: failed to hand off accepted reservation")
	}

	span.AddEvent("Reservation accepted")
	return domain.AcceptedOutcome(token, claimValue), nil
}
