// cmd/seckill-service/main.go
package main

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"

	"goodskill/internal/pkg/bootstrap"
	"goodskill/internal/pkg/logger"
	"goodskill/internal/pkg/redis"
	"goodskill/internal/service/seckill/application"
	"goodskill/internal/service/seckill/domain/port"
	"goodskill/internal/service/seckill/infrastructure"
	"goodskill/internal/service/seckill/interfaces"
	"goodskill/internal/service/seckill/strategy"
	"goodskill/internal/service/seckill/worker"
	"goodskill/internal/zookeeper"
)

const serviceName = "seckill-service"

// main 函数是应用的"组装根" (Composition Root)：
// 创建并组装所有依赖项，然后启动应用。
func main() {
	bootstrap.Init()
	logger.Init(serviceName)
	cfg := bootstrap.GetCurrentConfig()
	ctx := context.Background()

	// --- 基础设施客户端 ---
	redisClient, err := redis.NewClient(cfg.Infra.Redis.Addr)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	zkConn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to connect to zookeeper")
	}
	db, err := infrastructure.NewMysqlDB(cfg.Infra.Mysql.DSN)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to connect to mysql")
	}

	// --- 策略的协作方 ---
	counter, err := infrastructure.NewRedisCounterAdapter(redisClient)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to register redis scripts")
	}
	cache := infrastructure.NewRedisActivityCache(redisClient)
	gate := infrastructure.NewZkStateGate(zkConn)
	orderRepo := infrastructure.NewGormOrderRepository(db)
	kafkaSink := infrastructure.NewKafkaOrderSink(cfg.Infra.Kafka.Brokers)

	// 可插拔预检：按配置挂载一人一单与规则引擎
	var prechecks []port.EligibilityCheck
	if cfg.App.Seckill.EnableDedup {
		prechecks = append(prechecks, infrastructure.NewRedisDedupCheck(redisClient))
	}
	if rule := cfg.App.Seckill.EligibilityRule; rule != "" {
		celCheck, err := infrastructure.NewCelEligibilityCheck(rule)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("failed to compile eligibility rule")
		}
		prechecks = append(prechecks, celCheck)
	}

	// --- 工作池：每种策略一个，绑定各自的持久化 Sink ---
	poolCfg := worker.Config{
		Workers:       cfg.App.Seckill.WorkerCount,
		QueueSize:     cfg.App.Seckill.QueueSize,
		SubmitTimeout: time.Duration(cfg.App.Seckill.SubmitTimeoutMs) * time.Millisecond,
		MaxRetries:    cfg.App.Seckill.MaxRetries,
	}
	mysqlPoolCfg := poolCfg
	mysqlPoolCfg.Name = "mysql"
	mysqlPool := worker.NewPool(mysqlPoolCfg, orderRepo, orderRepo)
	mysqlPool.Start(ctx)

	kafkaPoolCfg := poolCfg
	kafkaPoolCfg.Name = "kafka"
	kafkaPool := worker.NewPool(kafkaPoolCfg, kafkaSink, orderRepo)
	kafkaPool.Start(ctx)

	// --- 策略注册表 ---
	tracer := otel.Tracer(serviceName)
	registry := strategy.NewRegistry()
	registry.Register(strategy.NewRedisMySQLStrategy(gate, cache, counter, mysqlPool, tracer, prechecks...))
	registry.Register(strategy.NewRedisKafkaStrategy(gate, cache, counter, kafkaPool, tracer, prechecks...))

	service := application.NewSeckillApplicationService(registry, cfg.App.StrategyKey, tracer, counter, gate, zkConn)
	handler := interfaces.NewSeckillHandler(service)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8084,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			// 先停工作池，把排队中的预占全部落库后再断开依赖
			mysqlPool.Stop(ctx)
			kafkaPool.Stop(ctx)
			kafkaSink.Close()
			redisClient.Close()
			zkConn.Close()
		},
	})
}
