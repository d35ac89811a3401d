// internal/service/seckill/domain/event.go
package domain

import "time"

// OrderPersistRequested 是预占成功后投递给异步持久化管道的任务。
// Token 是幂等键：同一个令牌无论重放多少次，只会生成一条订单记录。
type OrderPersistRequested struct {
	EventID     string    `json:"eventId"`
	Token       string    `json:"token"`
	ActivityID  int64     `json:"activityId"`
	UserPhone   string    `json:"userPhone"`
	ClaimValue  int64     `json:"claimValue"`
	Quantity    int       `json:"quantity"`
	RequestTime time.Time `json:"requestTime"`
}

// SeckillResultNotified 是订单落库后发布的结果事件，推送网关消费后通知用户
type SeckillResultNotified struct {
	Token      string `json:"token"`
	ActivityID int64  `json:"activityId"`
	UserPhone  string `json:"userPhone"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
}
