package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goodskill/internal/service/seckill/domain"
)

// fakeSink 按令牌记录落库次数，可配置前 N 次失败
type fakeSink struct {
	mu        sync.Mutex
	persisted map[string]int
	failures  int // 前 failures 次 Persist 返回错误
	calls     int
}

func newFakeSink(failures int) *fakeSink {
	return &fakeSink{persisted: make(map[string]int), failures: failures}
}

func (s *fakeSink) Persist(ctx context.Context, job *domain.OrderPersistRequested) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return assert.AnError
	}
	s.persisted[job.Token]++
	return nil
}

func (s *fakeSink) persistedCount(token string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persisted[token]
}

func (s *fakeSink) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *fakeSink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.persisted {
		n += c
	}
	return n
}

type fakeDeadLetter struct {
	mu   sync.Mutex
	jobs []*domain.OrderPersistRequested
}

func (d *fakeDeadLetter) Record(ctx context.Context, job *domain.OrderPersistRequested, cause error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job)
	return nil
}

func (d *fakeDeadLetter) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.jobs)
}

func job(token string) *domain.OrderPersistRequested {
	return &domain.OrderPersistRequested{EventID: token, Token: token, ActivityID: 1, UserPhone: "user", ClaimValue: 1}
}

func TestSubmitAndDrain(t *testing.T) {
	sink := newFakeSink(0)
	dead := &fakeDeadLetter{}
	pool := NewPool(Config{Name: t.Name(), Workers: 2, QueueSize: 16, RetryBackoff: time.Millisecond}, sink, dead)
	pool.Start(context.Background())

	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(context.Background(), job(domain.NewReservationToken(1, int64(i+1)))))
	}
	pool.Stop(context.Background())

	assert.Equal(t, 10, sink.total())
	assert.Equal(t, 0, dead.count())
}

func TestSubmitFallsBackToSyncWhenQueueFull(t *testing.T) {
	sink := newFakeSink(0)
	dead := &fakeDeadLetter{}
	// 不启动 worker，队列容量 1：第二个任务必然走同步兜底
	pool := NewPool(Config{Name: t.Name(), Workers: 1, QueueSize: 1,
		SubmitTimeout: 5 * time.Millisecond, RetryBackoff: time.Millisecond}, sink, dead)

	require.NoError(t, pool.Submit(context.Background(), job("queued")))
	require.NoError(t, pool.Submit(context.Background(), job("spilled")))

	// 第二个任务在 Submit 调用内同步落库，调用方结果不受影响
	assert.Equal(t, 1, sink.persistedCount("spilled"))
	assert.Equal(t, 0, sink.persistedCount("queued"))
	assert.Equal(t, 1, pool.Depth())

	// 启动后存量任务照常清空
	pool.Start(context.Background())
	pool.Stop(context.Background())
	assert.Equal(t, 1, sink.persistedCount("queued"))
	assert.Equal(t, 0, dead.count())
}

func TestRetryExhaustionRoutesToDeadLetter(t *testing.T) {
	sink := newFakeSink(1 << 30) // 永远失败
	dead := &fakeDeadLetter{}
	pool := NewPool(Config{Name: t.Name(), Workers: 1, QueueSize: 4,
		MaxRetries: 2, RetryBackoff: time.Millisecond}, sink, dead)
	pool.Start(context.Background())

	require.NoError(t, pool.Submit(context.Background(), job("doomed")))

	assert.Eventually(t, func() bool { return dead.count() == 1 }, time.Second, 5*time.Millisecond)
	pool.Stop(context.Background())

	dead.mu.Lock()
	assert.Equal(t, "doomed", dead.jobs[0].Token)
	dead.mu.Unlock()
	// 首次尝试 + MaxRetries 次重试
	assert.Equal(t, 3, sink.callCount())
}

func TestPersistExactlyOnceUnderRetry(t *testing.T) {
	sink := newFakeSink(1) // 第一次失败，之后成功
	dead := &fakeDeadLetter{}
	pool := NewPool(Config{Name: t.Name(), Workers: 1, QueueSize: 4,
		MaxRetries: 3, RetryBackoff: time.Millisecond}, sink, dead)
	pool.Start(context.Background())

	require.NoError(t, pool.Submit(context.Background(), job("retried")))

	assert.Eventually(t, func() bool { return sink.persistedCount("retried") == 1 }, time.Second, 5*time.Millisecond)
	pool.Stop(context.Background())

	// 同一令牌最终只有一条落库记录，且没有进死信
	assert.Equal(t, 1, sink.persistedCount("retried"))
	assert.Equal(t, 0, dead.count())
}
