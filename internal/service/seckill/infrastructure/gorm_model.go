// internal/service/seckill/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"gorm.io/gorm"
)

// SeckillOrderModel 对应数据库中的 seckill_order 表。
// Token 上的唯一索引是重放安全的根基：同一令牌的重复写入是空操作。
type SeckillOrderModel struct {
	gorm.Model
	Token       string `gorm:"uniqueIndex;size:64"`
	ActivityID  int64  `gorm:"index"`
	UserPhone   string `gorm:"size:32"`
	ClaimValue  int64
	Quantity    int
	RequestTime time.Time
}

func (SeckillOrderModel) TableName() string {
	return "seckill_order"
}

// DeadLetterModel 对应 seckill_dead_letter 表，记录重试耗尽的落库任务
type DeadLetterModel struct {
	gorm.Model
	Token      string `gorm:"index;size:64"`
	ActivityID int64
	Payload    string `gorm:"type:text"`
	Cause      string `gorm:"size:512"`
}

func (DeadLetterModel) TableName() string {
	return "seckill_dead_letter"
}
