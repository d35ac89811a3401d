// internal/service/seckill/strategy/strategy.go
package strategy

import (
	"context"
	"fmt"
	"sync"

	"goodskill/internal/service/seckill/domain"
)

// ExecutionStrategy 是秒杀执行策略的统一契约。
// 不同实现以不同的存储组合支撑计数器和订单落库，调用方无感知。
// 业务性拒绝（未开始/已结束/售罄/重复）通过 Outcome 正常返回，
// error 仅承载依赖故障等非业务异常，此时 Outcome 一律为 unavailable 拒绝。
type ExecutionStrategy interface {
	Execute(ctx context.Context, attempt *domain.PurchaseAttempt) (*domain.ReservationOutcome, error)
	Name() string
}

// Submitter 是策略对工作池的最小依赖，方便测试替换
type Submitter interface {
	Submit(ctx context.Context, job *domain.OrderPersistRequested) error
}

// Registry 把配置键映射到具体策略实例，纯查表、无状态
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]ExecutionStrategy
}

func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]ExecutionStrategy)}
}

// Register 注册一个策略，重名直接覆盖
func (r *Registry) Register(s ExecutionStrategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[s.Name()] = s
}

// Resolve 按配置键查找策略
func (r *Registry) Resolve(key string) (ExecutionStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[key]
	if !ok {
		return nil, fmt.Errorf("unknown seckill strategy: %q", key)
	}
	return s, nil
}
