// internal/service/seckill/infrastructure/redis_counter.go
package infrastructure

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"goodskill/internal/pkg/redis"
)

// Redis Key 布局。hash tag 保证同一活动的 key 落在同一个 slot，
// 集群模式下 pipeline/脚本也能原子执行。
func stockKey(activityID int64) string {
	return fmt.Sprintf("seckill:stock:{%d}", activityID)
}

func claimedKey(activityID int64) string {
	return fmt.Sprintf("seckill:claimed:{%d}", activityID)
}

func usersKey(activityID int64) string {
	return fmt.Sprintf("seckill:users:{%d}", activityID)
}

// seedScript 在活动发布时原子地初始化三个 key：
// 库存值写入，抢占计数和去重集合清零。hash tag 保证三个 key 同 slot。
const seedScriptName = "seckill_seed_activity"

const seedScript = `
redis.call('SET', KEYS[1], ARGV[1])
redis.call('DEL', KEYS[2])
redis.call('DEL', KEYS[3])
return 1
`

// RedisCounterAdapter 是 port.StockCounter 的 Redis 实现。
// INCR 在服务端原子完成并返回自增后的值，单 key 即单活动的串行化点。
type RedisCounterAdapter struct {
	redisClient *redis.Client
}

func NewRedisCounterAdapter(redisClient *redis.Client) (*RedisCounterAdapter, error) {
	if err := redisClient.LoadScriptFromContent(seedScriptName, seedScript); err != nil {
		return nil, err
	}
	return &RedisCounterAdapter{redisClient: redisClient}, nil
}

// Increment 原子自增活动的抢占计数并返回自增后的值
func (a *RedisCounterAdapter) Increment(ctx context.Context, activityID int64) (int64, error) {
	v, err := a.redisClient.GetClient().Incr(ctx, claimedKey(activityID)).Result()
	if err != nil {
		return 0, errors.Wrapf(err, "failed to increment claim counter for activity %d", activityID)
	}
	return v, nil
}

// SeedActivity 在活动发布时初始化库存与计数，Lua 脚本一次往返原子写完
func (a *RedisCounterAdapter) SeedActivity(ctx context.Context, activityID, totalStock int64) error {
	keys := []string{stockKey(activityID), claimedKey(activityID), usersKey(activityID)}
	if _, err := a.redisClient.RunScript(ctx, seedScriptName, keys, totalStock); err != nil {
		return errors.Wrapf(err, "failed to seed activity %d", activityID)
	}
	return nil
}
