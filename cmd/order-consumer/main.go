// cmd/order-consumer/main.go
package main

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"goodskill/internal/pkg/bootstrap"
	"goodskill/internal/pkg/logger"
	"goodskill/internal/pkg/mq"
	"goodskill/internal/service/seckill/infrastructure"
	"goodskill/internal/service/seckill/interfaces"
)

const serviceName = "order-consumer"

// order-consumer 是 redis-kafka 策略的落库端：
// 消费落库主题、幂等写入 MySQL、发布结果事件；
// 处理失败的消息经 retry 主题再消费，重试耗尽进入 DLT。
func main() {
	bootstrap.Init()
	logger.Init(serviceName)
	cfg := bootstrap.GetCurrentConfig()
	ctx := context.Background()

	db, err := infrastructure.NewMysqlDB(cfg.Infra.Mysql.DSN)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to connect to mysql")
	}
	orderRepo := infrastructure.NewGormOrderRepository(db)
	resultProducer := infrastructure.NewKafkaResultProducer(cfg.Infra.Kafka.Brokers)

	failureHandler := mq.NewFailureHandler(cfg.Infra.Kafka.Brokers,
		infrastructure.OrderPersistRetryTopic, infrastructure.OrderPersistDltTopic, cfg.App.Seckill.MaxRetries)

	// 主消费者和 retry 消费者跑同一套处理逻辑
	mainConsumer := interfaces.NewOrderPersistConsumer(
		mq.NewKafkaReader(cfg.Infra.Kafka.Brokers, infrastructure.OrderPersistTopic, serviceName+"-group"),
		orderRepo, resultProducer, failureHandler)
	retryConsumer := interfaces.NewOrderPersistConsumer(
		mq.NewKafkaReader(cfg.Infra.Kafka.Brokers, infrastructure.OrderPersistRetryTopic, serviceName+"-retry-group"),
		orderRepo, resultProducer, failureHandler)
	dltConsumer := interfaces.NewDltConsumerAdapter(
		mq.NewKafkaReader(cfg.Infra.Kafka.Brokers, infrastructure.OrderPersistDltTopic, serviceName+"-dlt-group"))

	consumerCtx, cancelConsumers := context.WithCancel(ctx)
	mainConsumer.Start(consumerCtx)
	retryConsumer.Start(consumerCtx)
	dltConsumer.Start(consumerCtx)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8085,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
		},
		OnShutdown: func(ctx context.Context) {
			cancelConsumers()
			mainConsumer.Stop(ctx)
			retryConsumer.Stop(ctx)
			dltConsumer.Stop(ctx)
			failureHandler.Close()
			resultProducer.Close()
		},
	})
}
