// internal/service/seckill/infrastructure/redis_dedup.go
package infrastructure

import (
	"context"

	"github.com/pkg/errors"

	"goodskill/internal/pkg/redis"
	"goodskill/internal/service/seckill/domain"
)

// RedisDedupCheck 是"一人一单"的可插拔预检实现。
// 以活动维度的 Set 记录已尝试的手机号，SADD 原子判断首次与否。
// 注意：标记发生在抢占之前，用户首次尝试即占用资格，即便随后因
// 售罄被拒也不再放行第二次——活动此刻已无货，业务上可接受。
type RedisDedupCheck struct {
	redisClient *redis.Client
}

func NewRedisDedupCheck(redisClient *redis.Client) *RedisDedupCheck {
	return &RedisDedupCheck{redisClient: redisClient}
}

func (c *RedisDedupCheck) Check(ctx context.Context, attempt *domain.PurchaseAttempt) (domain.RejectReason, error) {
	added, err := c.redisClient.GetClient().SAdd(ctx, usersKey(attempt.ActivityID), attempt.UserPhone).Result()
	if err != nil {
		return "", errors.Wrapf(err, "dedup check failed for activity %d", attempt.ActivityID)
	}
	if added == 0 {
		return domain.ReasonDuplicate, nil
	}
	return "", nil
}
