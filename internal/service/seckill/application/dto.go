// internal/service/seckill/application/dto.go
package application

import "goodskill/internal/service/seckill/domain"

// ExecuteRequest 是接口层传入的秒杀请求
type ExecuteRequest struct {
	ActivityID  int64  `json:"activityId"`
	UserPhone   string `json:"userPhone"`
	Quantity    int    `json:"quantity,omitempty"`
	StrategyKey string `json:"strategyKey,omitempty"` // 为空时使用配置的默认策略
}

// ExecuteResponse 是返回给调用方的预占结果
type ExecuteResponse struct {
	Accepted   bool   `json:"accepted"`
	Reason     string `json:"reason,omitempty"`
	Token      string `json:"token,omitempty"`
	ClaimValue int64  `json:"claimValue,omitempty"`
}

func toExecuteResponse(outcome *domain.ReservationOutcome) *ExecuteResponse {
	return &ExecuteResponse{
		Accepted:   outcome.Accepted,
		Reason:     string(outcome.Reason),
		Token:      outcome.Token,
		ClaimValue: outcome.ClaimValue,
	}
}

// PrepareRequest 是活动发布请求
type PrepareRequest struct {
	ActivityID int64 `json:"activityId"`
	TotalStock int64 `json:"totalStock"`
	// Start 为 true 时发布即开卖，否则置为未开始
	Start bool `json:"start"`
}
