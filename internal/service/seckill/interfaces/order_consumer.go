// internal/service/seckill/interfaces/order_consumer.go
package interfaces

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"goodskill/internal/pkg/logger"
	"goodskill/internal/pkg/mq"
	"goodskill/internal/service/seckill/domain"
	"goodskill/internal/service/seckill/domain/port"
	"goodskill/internal/service/seckill/infrastructure"
)

// OrderPersistConsumer 是驱动适配器：消费落库任务并写入订单仓储。
// redis-kafka 策略的 "Durable Order Sink" 真正落库发生在这里。
type OrderPersistConsumer struct {
	reader  *kafka.Reader
	sink    port.OrderSink
	results *infrastructure.KafkaResultProducer
	wg      sync.WaitGroup
	stopped bool

	failureHandler *mq.FailureHandler
}

func NewOrderPersistConsumer(reader *kafka.Reader, sink port.OrderSink,
	results *infrastructure.KafkaResultProducer, failureHandler *mq.FailureHandler) *OrderPersistConsumer {
	return &OrderPersistConsumer{
		reader:         reader,
		sink:           sink,
		results:        results,
		failureHandler: failureHandler,
	}
}

// Start 开始监听落库主题。这是一个长期运行的方法。
func (c *OrderPersistConsumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		logger.Ctx(ctx).Info().Str("topic", c.reader.Config().Topic).Msg("✅ Order persist consumer started")
		for {
			if c.stopped {
				return
			}
			// 使用 FetchMessage 而不是 ReadMessage，以便控制提交时机
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					logger.Ctx(ctx).Info().Msg("🛑 Order persist consumer shutting down.")
					return
				}
				logger.Ctx(ctx).Error().Err(err).Msg("could not read message, retrying")
				time.Sleep(1 * time.Second) // 避免快速失败循环
				continue
			}

			propagator := otel.GetTextMapPropagator()
			headerCarrier := mq.KafkaHeaderCarrier(msg.Headers)
			newCtx := propagator.Extract(ctx, &headerCarrier)

			if processingErr := c.processMessage(newCtx, msg); processingErr != nil {
				// 处理失败转投 retry/DLT，消息本身照常提交
				c.failureHandler.Handle(newCtx, msg, processingErr)
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("Failed to commit messages")
			}
		}
	}()
}

// Stop 优雅地停止消费者
func (c *OrderPersistConsumer) Stop(ctx context.Context) {
	c.stopped = true
	c.reader.Close()
	c.wg.Wait()
	logger.Ctx(ctx).Info().Str("topic", c.reader.Config().Topic).Msg("✅ Order persist consumer stopped")
}

// processMessage 反序列化任务、幂等落库并发布结果事件
func (c *OrderPersistConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var job domain.OrderPersistRequested
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		return err
	}

	// Persist 对同一令牌可安全重放，retry 主题里的重复消息不会产生重复订单
	if err := c.sink.Persist(ctx, &job); err != nil {
		return err
	}

	event := &domain.SeckillResultNotified{
		Token:      job.Token,
		ActivityID: job.ActivityID,
		UserPhone:  job.UserPhone,
		Success:    true,
		Message:    "秒杀成功，订单已生成",
	}
	if err := c.results.Publish(ctx, event); err != nil {
		// 订单已经落库，通知失败不值得把消息打回重试
		logger.Ctx(ctx).Error().Err(err).Str("token", job.Token).Msg("Failed to publish seckill result")
	}
	return nil
}
