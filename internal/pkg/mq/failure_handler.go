// internal/pkg/mq/failure_handler.go
package mq

import (
	"context"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"goodskill/internal/pkg/logger"
)

// 死信消息头，记录消息的原始位置和失败原因，便于人工排查
const (
	HeaderOriginalTopic     = "x-original-topic"
	HeaderOriginalPartition = "x-original-partition"
	HeaderOriginalOffset    = "x-original-offset"
	HeaderRetryCount        = "x-retry-count"
	HeaderExceptionFqcn     = "x-exception-fqcn"
	HeaderExceptionMessage  = "x-exception-message"
)

// FailureHandler 负责消费失败消息的兜底处理：
// 未达到重试上限的消息转投重试主题，超限的消息进入死信主题。
type FailureHandler struct {
	retryWriter *kafka.Writer
	dltWriter   *kafka.Writer
	maxRetries  int
}

// NewFailureHandler 创建一个失败处理器。
// retryTopic 和 dltTopic 通常是 <topic>-retry 和 <topic>-dlt。
func NewFailureHandler(brokers []string, retryTopic, dltTopic string, maxRetries int) *FailureHandler {
	return &FailureHandler{
		retryWriter: NewKafkaWriter(brokers, retryTopic),
		dltWriter:   NewKafkaWriter(brokers, dltTopic),
		maxRetries:  maxRetries,
	}
}

// Handle 根据已重试次数决定消息去向
func (h *FailureHandler) Handle(ctx context.Context, msg kafka.Message, cause error) {
	retries := retryCountOf(msg)

	out := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: []kafka.Header{
			{Key: HeaderOriginalTopic, Value: []byte(msg.Topic)},
			{Key: HeaderOriginalPartition, Value: []byte(strconv.Itoa(msg.Partition))},
			{Key: HeaderOriginalOffset, Value: []byte(strconv.FormatInt(msg.Offset, 10))},
			{Key: HeaderRetryCount, Value: []byte(strconv.Itoa(retries + 1))},
			{Key: HeaderExceptionFqcn, Value: []byte(fmt.Sprintf("%T", cause))},
			{Key: HeaderExceptionMessage, Value: []byte(cause.Error())},
		},
	}
	InjectTraceContext(ctx, &out.Headers)

	if retries < h.maxRetries {
		if err := h.retryWriter.WriteMessages(ctx, out); err != nil {
			logger.Ctx(ctx).Error().Err(err).
				Str("topic", msg.Topic).Int("retries", retries).
				Msg("Failed to forward message to retry topic, falling back to DLT")
			h.writeDlt(ctx, out)
		}
		return
	}

	logger.Ctx(ctx).Error().Err(cause).
		Str("topic", msg.Topic).Int("retries", retries).
		Msg("Retry budget exhausted, routing message to DLT")
	h.writeDlt(ctx, out)
}

func (h *FailureHandler) writeDlt(ctx context.Context, msg kafka.Message) {
	if err := h.dltWriter.WriteMessages(ctx, msg); err != nil {
		// 死信也写不进去只能靠日志兜底了
		logger.Ctx(ctx).Error().Err(err).
			Str("key", string(msg.Key)).
			Str("value", string(msg.Value)).
			Msg("🚨 CRITICAL: failed to write message to DLT")
	}
}

// Close 关闭底层 writer
func (h *FailureHandler) Close() error {
	if err := h.retryWriter.Close(); err != nil {
		return err
	}
	return h.dltWriter.Close()
}

func retryCountOf(msg kafka.Message) int {
	for _, h := range msg.Headers {
		if h.Key == HeaderRetryCount {
			if n, err := strconv.Atoi(string(h.Value)); err == nil {
				return n
			}
		}
	}
	return 0
}
