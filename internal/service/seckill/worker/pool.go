// internal/service/seckill/worker/pool.go
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"goodskill/internal/pkg/logger"
	"goodskill/internal/service/seckill/domain"
	"goodskill/internal/service/seckill/domain/port"
)

var queueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "seckill_worker_queue_depth",
	Help: "Number of persistence jobs waiting in the worker pool queue.",
}, []string{"pool"})

// Config 控制工作池的行为
type Config struct {
	Name          string
	Workers       int           // 固定的 worker 数量
	QueueSize     int           // 有界队列容量
	SubmitTimeout time.Duration // 队列满时 Submit 的短暂阻塞上限
	MaxRetries    int           // 落库失败的重试上限
	RetryBackoff  time.Duration // 重试退避的基准间隔，按次数线性放大
}

func (c *Config) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.SubmitTimeout <= 0 {
		c.SubmitTimeout = 50 * time.Millisecond
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 100 * time.Millisecond
	}
}

// Pool 是固定大小、有界队列的持久化工作池。
// 预占成功的任务进入队列后台落库；队列打满时由 Submit 在调用方
// 线程上同步落库兜底，保证已接受的预占一定有订单记录。
type Pool struct {
	cfg   Config
	queue chan *domain.OrderPersistRequested
	sink  port.OrderSink
	dead  port.DeadLetterSink

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewPool 创建一个工作池，Start 之前不会消费任务
func NewPool(cfg Config, sink port.OrderSink, dead port.DeadLetterSink) *Pool {
	cfg.applyDefaults()
	return &Pool{
		cfg:   cfg,
		queue: make(chan *domain.OrderPersistRequested, cfg.QueueSize),
		sink:  sink,
		dead:  dead,
	}
}

// Start 启动全部 worker。ctx 取消后 worker 处理完手头任务即退出重试。
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.queue {
				queueDepth.WithLabelValues(p.cfg.Name).Set(float64(len(p.queue)))
				p.process(ctx, job)
			}
		}()
	}
	logger.Ctx(ctx).Info().Str("pool", p.cfg.Name).Int("workers", p.cfg.Workers).Msg("✅ Worker pool started")
}

// Submit 提交一个持久化任务。
// 快速路径非阻塞入队；队列满时最多阻塞 SubmitTimeout，仍然入不了队
// 则退化为同步直写（延迟劣化、正确性保留），绝不丢弃任务。
func (p *Pool) Submit(ctx context.Context, job *domain.OrderPersistRequested) error {
	select {
	case p.queue <- job:
		queueDepth.WithLabelValues(p.cfg.Name).Set(float64(len(p.queue)))
		return nil
	default:
	}

	timer := time.NewTimer(p.cfg.SubmitTimeout)
	defer timer.Stop()
	select {
	case p.queue <- job:
		queueDepth.WithLabelValues(p.cfg.Name).Set(float64(len(p.queue)))
		return nil
	case <-timer.C:
		logger.Ctx(ctx).Warn().Str("pool", p.cfg.Name).Str("token", job.Token).
			Msg("Worker queue full, persisting synchronously")
		p.process(ctx, job)
		return nil
	case <-ctx.Done():
		// 调用方已拿到 Accepted 结果，任务不能随调用方取消而消失
		p.process(context.WithoutCancel(ctx), job)
		return nil
	}
}

// process 执行一次任务：带退避重试，超过上限进入死信
func (p *Pool) process(ctx context.Context, job *domain.OrderPersistRequested) {
	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			// 协作式取消：睡眠前检查，不强行打断进行中的写
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				p.routeToDeadLetter(context.WithoutCancel(ctx), job, lastErr)
				return
			case <-time.After(time.Duration(attempt) * p.cfg.RetryBackoff):
			}
		}

		lastErr = p.sink.Persist(ctx, job)
		if lastErr == nil {
			return
		}
		logger.Ctx(ctx).Warn().Err(lastErr).Str("token", job.Token).Int("attempt", attempt+1).
			Msg("Order persistence failed")
	}

	p.routeToDeadLetter(ctx, job, lastErr)
}

func (p *Pool) routeToDeadLetter(ctx context.Context, job *domain.OrderPersistRequested, cause error) {
	logger.Ctx(ctx).Error().Err(cause).Str("token", job.Token).
		Msg("🚨 Retry budget exhausted, routing job to dead letter")
	if err := p.dead.Record(ctx, job, cause); err != nil {
		// 死信也写不进去，只剩日志可供对账
		logger.Ctx(ctx).Error().Err(err).Str("token", job.Token).
			Int64("activity_id", job.ActivityID).Int64("claim_value", job.ClaimValue).
			Msg("🚨 CRITICAL: failed to record dead letter")
	}
}

// Depth 返回当前排队中的任务数
func (p *Pool) Depth() int {
	return len(p.queue)
}

// Stop 关闭队列并等待所有 worker 清空存量任务
func (p *Pool) Stop(ctx context.Context) {
	p.stopOnce.Do(func() {
		close(p.queue)
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Ctx(ctx).Info().Str("pool", p.cfg.Name).Msg("✅ Worker pool stopped")
	case <-ctx.Done():
		logger.Ctx(ctx).Error().Str("pool", p.cfg.Name).Msg("Worker pool stop timed out")
	}
}
