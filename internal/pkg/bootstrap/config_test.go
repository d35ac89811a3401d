package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoadsYamlAndEnvOverrides(t *testing.T) {
	configYaml := `
app:
  strategyKey: redis-kafka
  seckill:
    workerCount: 16
    queueSize: 2048
    enableDedup: true
    eligibilityRule: 'quantity <= 1'
infra:
  redis:
    addr: redis.internal:6379
  kafka:
    brokers:
      - kafka-1:9092
      - kafka-2:9092
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configYaml), 0o644))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("MYSQL_DSN", "user:pass@tcp(db:3306)/goodskill")

	Init()
	cfg := GetCurrentConfig()

	assert.Equal(t, "redis-kafka", cfg.App.StrategyKey)
	assert.Equal(t, 16, cfg.App.Seckill.WorkerCount)
	assert.Equal(t, 2048, cfg.App.Seckill.QueueSize)
	assert.True(t, cfg.App.Seckill.EnableDedup)
	assert.Equal(t, "quantity <= 1", cfg.App.Seckill.EligibilityRule)
	assert.Equal(t, "redis.internal:6379", cfg.Infra.Redis.Addr)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Infra.Kafka.Brokers)
	// 环境变量覆盖文件缺省值
	assert.Equal(t, "user:pass@tcp(db:3306)/goodskill", cfg.Infra.Mysql.DSN)
	// 未出现的配置保持默认
	assert.Equal(t, 3, cfg.App.Seckill.MaxRetries)
}

func TestInitFallsBackToDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	Init()
	cfg := GetCurrentConfig()

	assert.Equal(t, "redis-mysql", cfg.App.StrategyKey)
	assert.Equal(t, "localhost:6379", cfg.Infra.Redis.Addr)
	assert.Equal(t, 8, cfg.App.Seckill.WorkerCount)
}
