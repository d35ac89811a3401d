package port

import (
	"context"

	"goodskill/internal/service/seckill/domain"
)

// EligibilityCheck 是可插拔的购买资格预检。
// 核心契约不强制任何预检（如一人一单），由装配时按需挂载。
// 返回空字符串表示放行，否则返回对应的拒绝原因。
type EligibilityCheck interface {
	Check(ctx context.Context, attempt *domain.PurchaseAttempt) (domain.RejectReason, error)
}
