// internal/service/seckill/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"encoding/json"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"goodskill/internal/service/seckill/domain"
)

// NewMysqlDB 建立 GORM 连接并迁移秒杀相关表结构
func NewMysqlDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open mysql connection")
	}
	if err := db.AutoMigrate(&SeckillOrderModel{}, &DeadLetterModel{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate seckill tables")
	}
	return db, nil
}

// GormOrderRepository 同时实现 port.OrderSink 和 port.DeadLetterSink。
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Persist 以令牌为幂等键写入订单。
// 令牌冲突说明该预占已经落库（worker 重试重放），按成功处理。
func (r *GormOrderRepository) Persist(ctx context.Context, job *domain.OrderPersistRequested) error {
	record := SeckillOrderModel{
		Token:       job.Token,
		ActivityID:  job.ActivityID,
		UserPhone:   job.UserPhone,
		ClaimValue:  job.ClaimValue,
		Quantity:    job.Quantity,
		RequestTime: job.RequestTime,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "token"}}, DoNothing: true}).
		Create(&record).Error
	if err != nil {
		if isDuplicateEntry(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to persist order for token %s", job.Token)
	}
	return nil
}

// Record 将重试耗尽的任务写入死信表
func (r *GormOrderRepository) Record(ctx context.Context, job *domain.OrderPersistRequested, cause error) error {
	payload, _ := json.Marshal(job)
	record := DeadLetterModel{
		Token:      job.Token,
		ActivityID: job.ActivityID,
		Payload:    string(payload),
		Cause:      cause.Error(),
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return errors.Wrapf(err, "failed to record dead letter for token %s", job.Token)
	}
	return nil
}

// CountByActivity 返回某活动已落库的订单数，供对账使用
func (r *GormOrderRepository) CountByActivity(ctx context.Context, activityID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&SeckillOrderModel{}).
		Where("activity_id = ?", activityID).Count(&count).Error
	return count, err
}

// isDuplicateEntry 判断 MySQL 唯一键冲突 (错误码 1062)
func isDuplicateEntry(err error) bool {
	var mysqlErr *gomysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
