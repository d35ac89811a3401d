// internal/service/seckill/infrastructure/redis_activity_cache.go
package infrastructure

import (
	"context"
	"strconv"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"goodskill/internal/pkg/redis"
	"goodskill/internal/service/seckill/domain"
	"goodskill/internal/service/seckill/domain/port"
)

// 总库存发布后不变，本地缓存只是为了挡掉热点活动的重复 GET，
// 短 TTL 足够，不需要主动失效。
const localStockTTL = 3 * time.Second

type cachedActivity struct {
	activity  *domain.Activity
	expiresAt time.Time
}

// RedisActivityCache 是 port.ActivityCache 的实现：
// Redis 中的库存值（活动发布时刷入）+ 进程内短时缓存 + singleflight 合并并发回源。
type RedisActivityCache struct {
	redisClient *redis.Client

	mu    sync.RWMutex
	local map[int64]cachedActivity
	group singleflight.Group
}

func NewRedisActivityCache(redisClient *redis.Client) *RedisActivityCache {
	return &RedisActivityCache{
		redisClient: redisClient,
		local:       make(map[int64]cachedActivity),
	}
}

// GetActivity 返回活动的只读快照（当前只承载总库存）
func (c *RedisActivityCache) GetActivity(ctx context.Context, activityID int64) (*domain.Activity, error) {
	c.mu.RLock()
	cached, ok := c.local[activityID]
	c.mu.RUnlock()
	if ok && time.Now().Before(cached.expiresAt) {
		return cached.activity, nil
	}

	// 缓存未命中或过期，singleflight 合并同一活动的并发回源
	v, err, _ := c.group.Do(strconv.FormatInt(activityID, 10), func() (interface{}, error) {
		raw, err := c.redisClient.GetClient().Get(ctx, stockKey(activityID)).Result()
		if err == goredis.Nil {
			return nil, port.ErrActivityNotFound
		}
		if err != nil {
			return nil, err
		}
		totalStock, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}

		activity := &domain.Activity{ID: activityID, TotalStock: totalStock}
		c.mu.Lock()
		c.local[activityID] = cachedActivity{activity: activity, expiresAt: time.Now().Add(localStockTTL)}
		c.mu.Unlock()
		return activity, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Activity), nil
}
