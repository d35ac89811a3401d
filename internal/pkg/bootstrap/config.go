// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"goodskill/internal/pkg/logger"
)

// Config 是所有服务共享的配置结构，来源为 YAML 文件 + 环境变量覆盖
type Config struct {
	App struct {
		// StrategyKey 选择秒杀执行策略，如 "redis-mysql" / "redis-kafka"
		StrategyKey string `yaml:"strategyKey"`
		Seckill     struct {
			WorkerCount     int    `yaml:"workerCount"`
			QueueSize       int    `yaml:"queueSize"`
			SubmitTimeoutMs int    `yaml:"submitTimeoutMs"`
			MaxRetries      int    `yaml:"maxRetries"`
			EnableDedup     bool   `yaml:"enableDedup"`
			EligibilityRule string `yaml:"eligibilityRule"`
		} `yaml:"seckill"`
	} `yaml:"app"`
	Infra struct {
		Redis struct {
			Addr string `yaml:"addr"`
		} `yaml:"redis"`
		Kafka struct {
			Brokers []string `yaml:"brokers"`
		} `yaml:"kafka"`
		Mysql struct {
			DSN string `yaml:"dsn"`
		} `yaml:"mysql"`
		Zookeeper struct {
			Servers []string `yaml:"servers"`
		} `yaml:"zookeeper"`
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Nacos struct {
			ServerAddrs string `yaml:"serverAddrs"`
			Namespace   string `yaml:"namespace"`
			Group       string `yaml:"group"`
		} `yaml:"nacos"`
	} `yaml:"infra"`
}

var currentConfig atomic.Pointer[Config]

// Init 加载配置。必须在 StartService 之前调用。
// 配置文件路径由 CONFIG_PATH 指定，文件不存在时退化为纯环境变量/默认值。
func Init() {
	cfg := defaultConfig()

	path := getEnv("CONFIG_PATH", "config/config.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			logger.Logger.Fatal().Err(err).Str("path", path).Msg("Failed to parse config file")
		}
		logger.Logger.Info().Str("path", path).Msg("Config loaded from file")
	} else {
		logger.Logger.Warn().Str("path", path).Msg("Config file not found, using defaults and env")
	}

	applyEnvOverrides(cfg)
	currentConfig.Store(cfg)
}

// GetCurrentConfig 返回当前生效的配置
func GetCurrentConfig() *Config {
	cfg := currentConfig.Load()
	if cfg == nil {
		// 未显式 Init 时兜底，主要方便单元测试
		cfg = defaultConfig()
		applyEnvOverrides(cfg)
		currentConfig.Store(cfg)
	}
	return cfg
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.App.StrategyKey = "redis-mysql"
	cfg.App.Seckill.WorkerCount = 8
	cfg.App.Seckill.QueueSize = 1024
	cfg.App.Seckill.SubmitTimeoutMs = 50
	cfg.App.Seckill.MaxRetries = 3
	cfg.Infra.Redis.Addr = "localhost:6379"
	cfg.Infra.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Infra.Mysql.DSN = "root:root@tcp(localhost:3306)/goodskill?charset=utf8mb4&parseTime=True&loc=Local"
	cfg.Infra.Zookeeper.Servers = []string{"localhost:2181"}
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	cfg.Infra.Nacos.ServerAddrs = "localhost:8848"
	cfg.Infra.Nacos.Group = "DEFAULT_GROUP"
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("STRATEGY_KEY"); ok {
		cfg.App.StrategyKey = v
	}
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok {
		cfg.Infra.Redis.Addr = v
	}
	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		cfg.Infra.Kafka.Brokers = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv("MYSQL_DSN"); ok {
		cfg.Infra.Mysql.DSN = v
	}
	if v, ok := os.LookupEnv("ZK_SERVERS"); ok {
		cfg.Infra.Zookeeper.Servers = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv("JAEGER_ENDPOINT"); ok {
		cfg.Infra.Jaeger.Endpoint = v
	}
	if v, ok := os.LookupEnv("NACOS_SERVER_ADDRS"); ok {
		cfg.Infra.Nacos.ServerAddrs = v
	}
	if v, ok := os.LookupEnv("NACOS_NAMESPACE"); ok {
		cfg.Infra.Nacos.Namespace = v
	}
	if v, ok := os.LookupEnv("NACOS_GROUP"); ok {
		cfg.Infra.Nacos.Group = v
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
