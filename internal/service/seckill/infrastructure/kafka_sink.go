// internal/service/seckill/infrastructure/kafka_sink.go
package infrastructure

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"goodskill/internal/pkg/mq"
	"goodskill/internal/service/seckill/domain"
)

const (
	// OrderPersistTopic 承载预占成功后的落库任务
	OrderPersistTopic = "seckill-order-persist"
	// OrderPersistRetryTopic / OrderPersistDltTopic 是消费失败的兜底链路
	OrderPersistRetryTopic = "seckill-order-persist-retry"
	OrderPersistDltTopic   = "seckill-order-persist-dlt"
	// SeckillResultTopic 承载落库完成后的结果通知
	SeckillResultTopic = "seckill-result"
)

// KafkaOrderSink 是 port.OrderSink 的消息总线实现：
// "持久化"即投递成功，真正的落库由 order-consumer 服务完成。
type KafkaOrderSink struct {
	writer *kafka.Writer
}

func NewKafkaOrderSink(brokers []string) *KafkaOrderSink {
	return &KafkaOrderSink{writer: mq.NewKafkaWriter(brokers, OrderPersistTopic)}
}

// Persist 把落库任务发布到 Kafka。
// 以令牌为 Key，同一预占的重放会进入同一分区，消费端按令牌幂等。
func (s *KafkaOrderSink) Persist(ctx context.Context, job *domain.OrderPersistRequested) error {
	value, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(err, "failed to marshal order persist job")
	}
	if err := mq.ProduceMessage(ctx, s.writer, []byte(job.Token), value); err != nil {
		return errors.Wrapf(err, "failed to publish order persist job for token %s", job.Token)
	}
	return nil
}

func (s *KafkaOrderSink) Close() error {
	return s.writer.Close()
}

// KafkaResultProducer 发布秒杀结果事件，推送网关据此通知用户
type KafkaResultProducer struct {
	writer *kafka.Writer
}

func NewKafkaResultProducer(brokers []string) *KafkaResultProducer {
	return &KafkaResultProducer{writer: mq.NewKafkaWriter(brokers, SeckillResultTopic)}
}

func (p *KafkaResultProducer) Publish(ctx context.Context, event *domain.SeckillResultNotified) error {
	value, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal seckill result event")
	}
	// 以用户为 Key，同一用户的通知保序
	return mq.ProduceMessage(ctx, p.writer, []byte(event.UserPhone), value)
}

func (p *KafkaResultProducer) Close() error {
	return p.writer.Close()
}
