package strategy

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"goodskill/internal/service/seckill/domain"
	"goodskill/internal/service/seckill/domain/port"
)

type fakeGate struct {
	state domain.ActivityState
	err   error
}

func (g *fakeGate) State(ctx context.Context, activityID int64) (domain.ActivityState, error) {
	return g.state, g.err
}

func (g *fakeGate) CheckState(ctx context.Context, activityID int64, expected domain.ActivityState) (bool, error) {
	return g.state == expected, g.err
}

type fakeCache struct {
	stock int64
	err   error
}

func (c *fakeCache) GetActivity(ctx context.Context, activityID int64) (*domain.Activity, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &domain.Activity{ID: activityID, TotalStock: c.stock}, nil
}

type fakeCounter struct {
	value atomic.Int64
	calls atomic.Int64
	err   error
}

func (c *fakeCounter) Increment(ctx context.Context, activityID int64) (int64, error) {
	c.calls.Add(1)
	if c.err != nil {
		return 0, c.err
	}
	return c.value.Add(1), nil
}

type fakeSubmitter struct {
	mu   sync.Mutex
	jobs []*domain.OrderPersistRequested
}

func (s *fakeSubmitter) Submit(ctx context.Context, job *domain.OrderPersistRequested) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *fakeSubmitter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// onceCheck 第一次放行，之后同一手机号一律判定重复
type onceCheck struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (c *onceCheck) Check(ctx context.Context, attempt *domain.PurchaseAttempt) (domain.RejectReason, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	if c.seen[attempt.UserPhone] {
		return domain.ReasonDuplicate, nil
	}
	c.seen[attempt.UserPhone] = true
	return "", nil
}

func newTestStrategy(gate port.StateGate, cache port.ActivityCache, counter port.StockCounter,
	pool Submitter, prechecks ...port.EligibilityCheck) *RedisMySQLStrategy {
	return NewRedisMySQLStrategy(gate, cache, counter, pool, otel.Tracer("test"), prechecks...)
}

func TestExecuteAcceptsFirstClaim(t *testing.T) {
	counter := &fakeCounter{}
	pool := &fakeSubmitter{}
	s := newTestStrategy(&fakeGate{state: domain.StateInProgress}, &fakeCache{stock: 10}, counter, pool)

	outcome, err := s.Execute(context.Background(), domain.NewPurchaseAttempt(1, "13700000000"))

	require.NoError(t, err)
	require.True(t, outcome.Accepted)
	assert.EqualValues(t, 1, outcome.ClaimValue)
	assert.NotEmpty(t, outcome.Token)
	require.Equal(t, 1, pool.count())
	assert.Equal(t, outcome.Token, pool.jobs[0].Token)
	assert.Equal(t, "13700000000", pool.jobs[0].UserPhone)
}

func TestExecuteConcurrentRaceForLastUnit(t *testing.T) {
	counter := &fakeCounter{}
	pool := &fakeSubmitter{}
	s := newTestStrategy(&fakeGate{state: domain.StateInProgress}, &fakeCache{stock: 1}, counter, pool)

	outcomes := make([]*domain.ReservationOutcome, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome, err := s.Execute(context.Background(), domain.NewPurchaseAttempt(1, "user"))
			assert.NoError(t, err)
			outcomes[i] = outcome
		}(i)
	}
	wg.Wait()

	accepted, rejected := outcomes[0], outcomes[1]
	if !accepted.Accepted {
		accepted, rejected = rejected, accepted
	}
	require.True(t, accepted.Accepted)
	assert.EqualValues(t, 1, accepted.ClaimValue)
	require.False(t, rejected.Accepted)
	assert.Equal(t, domain.ReasonSoldOut, rejected.Reason)

	// 被拒的尝试绝不能到达持久化管道
	assert.Equal(t, 1, pool.count())
	assert.EqualValues(t, 2, counter.calls.Load())
}

func TestExecuteRejectsWhenEnded(t *testing.T) {
	counter := &fakeCounter{}
	pool := &fakeSubmitter{}
	s := newTestStrategy(&fakeGate{state: domain.StateEnded}, &fakeCache{stock: 10}, counter, pool)

	outcome, err := s.Execute(context.Background(), domain.NewPurchaseAttempt(1, "user"))

	require.NoError(t, err)
	require.False(t, outcome.Accepted)
	assert.Equal(t, domain.ReasonEnded, outcome.Reason)
	// 状态门拦截时计数器必须原封不动
	assert.EqualValues(t, 0, counter.calls.Load())
	assert.Equal(t, 0, pool.count())
}

func TestExecuteRejectsWhenNotStarted(t *testing.T) {
	counter := &fakeCounter{}
	s := newTestStrategy(&fakeGate{state: domain.StateNotStarted}, &fakeCache{stock: 10}, counter, &fakeSubmitter{})

	outcome, err := s.Execute(context.Background(), domain.NewPurchaseAttempt(1, "user"))

	require.NoError(t, err)
	assert.Equal(t, domain.ReasonNotStarted, outcome.Reason)
	assert.EqualValues(t, 0, counter.calls.Load())
}

func TestExecuteFailsClosedWhenCounterUnavailable(t *testing.T) {
	counter := &fakeCounter{err: assert.AnError}
	pool := &fakeSubmitter{}
	s := newTestStrategy(&fakeGate{state: domain.StateInProgress}, &fakeCache{stock: 10}, counter, pool)

	outcome, err := s.Execute(context.Background(), domain.NewPurchaseAttempt(1, "user"))

	require.Error(t, err)
	require.False(t, outcome.Accepted)
	assert.Equal(t, domain.ReasonUnavailable, outcome.Reason)
	assert.Equal(t, 0, pool.count())
}

func TestExecuteFailsClosedWhenGateUnavailable(t *testing.T) {
	counter := &fakeCounter{}
	s := newTestStrategy(&fakeGate{err: assert.AnError}, &fakeCache{stock: 10}, counter, &fakeSubmitter{})

	outcome, err := s.Execute(context.Background(), domain.NewPurchaseAttempt(1, "user"))

	require.Error(t, err)
	assert.Equal(t, domain.ReasonUnavailable, outcome.Reason)
	assert.EqualValues(t, 0, counter.calls.Load())
}

func TestExecuteSoldOutWithZeroStock(t *testing.T) {
	pool := &fakeSubmitter{}
	s := newTestStrategy(&fakeGate{state: domain.StateInProgress}, &fakeCache{stock: 0}, &fakeCounter{}, pool)

	outcome, err := s.Execute(context.Background(), domain.NewPurchaseAttempt(1, "user"))

	require.NoError(t, err)
	assert.Equal(t, domain.ReasonSoldOut, outcome.Reason)
	assert.Equal(t, 0, pool.count())
}

func TestExecuteDuplicateRejectedBeforeCounter(t *testing.T) {
	counter := &fakeCounter{}
	pool := &fakeSubmitter{}
	s := newTestStrategy(&fakeGate{state: domain.StateInProgress}, &fakeCache{stock: 10}, counter, pool, &onceCheck{})

	first, err := s.Execute(context.Background(), domain.NewPurchaseAttempt(1, "13700000000"))
	require.NoError(t, err)
	require.True(t, first.Accepted)

	second, err := s.Execute(context.Background(), domain.NewPurchaseAttempt(1, "13700000000"))
	require.NoError(t, err)
	require.False(t, second.Accepted)
	assert.Equal(t, domain.ReasonDuplicate, second.Reason)

	// 重复请求不触碰计数器也不进入管道
	assert.EqualValues(t, 1, counter.calls.Load())
	assert.Equal(t, 1, pool.count())
}

func TestConcurrentAcceptancesNeverExceedStock(t *testing.T) {
	const stock = 10
	const attempts = 200

	counter := &fakeCounter{}
	pool := &fakeSubmitter{}
	s := newTestStrategy(&fakeGate{state: domain.StateInProgress}, &fakeCache{stock: stock}, counter, pool)

	var wg sync.WaitGroup
	var acceptedCount atomic.Int64
	claims := make(chan int64, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := s.Execute(context.Background(), domain.NewPurchaseAttempt(7, "user"))
			assert.NoError(t, err)
			if outcome.Accepted {
				acceptedCount.Add(1)
				claims <- outcome.ClaimValue
			}
		}()
	}
	wg.Wait()
	close(claims)

	// 接受数量永不超过库存
	assert.EqualValues(t, stock, acceptedCount.Load())
	// 每次调用恰好自增一次
	assert.EqualValues(t, attempts, counter.calls.Load())

	// 被接受的计数值恰好是 1..stock，无重复无空洞
	seen := make(map[int64]bool)
	tokens := make(map[string]bool)
	for v := range claims {
		assert.False(t, seen[v], "duplicate claim value %d", v)
		assert.LessOrEqual(t, v, int64(stock))
		assert.GreaterOrEqual(t, v, int64(1))
		seen[v] = true
		tokens[domain.NewReservationToken(7, v)] = true
	}
	assert.Len(t, seen, stock)
	assert.Len(t, tokens, stock, "tokens must be unique per accepted unit")
	assert.Equal(t, stock, pool.count())
}

func TestRegistryResolve(t *testing.T) {
	registry := NewRegistry()
	mysqlStrategy := newTestStrategy(&fakeGate{state: domain.StateInProgress}, &fakeCache{stock: 1}, &fakeCounter{}, &fakeSubmitter{})
	kafkaStrategy := NewRedisKafkaStrategy(&fakeGate{state: domain.StateInProgress}, &fakeCache{stock: 1}, &fakeCounter{}, &fakeSubmitter{}, otel.Tracer("test"))
	registry.Register(mysqlStrategy)
	registry.Register(kafkaStrategy)

	resolved, err := registry.Resolve(KeyRedisMySQL)
	require.NoError(t, err)
	assert.Same(t, mysqlStrategy, resolved)

	resolved, err = registry.Resolve(KeyRedisKafka)
	require.NoError(t, err)
	assert.Same(t, kafkaStrategy, resolved)

	_, err = registry.Resolve("mongo-rabbitmq")
	assert.Error(t, err)
}
