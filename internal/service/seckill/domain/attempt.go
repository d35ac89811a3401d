// internal/service/seckill/domain/attempt.go
package domain

import (
	"crypto/md5"
	"fmt"
	"time"
)

// RejectReason 是拒绝结果的业务原因，属于正常返回值而非异常
type RejectReason string

const (
	ReasonNotStarted  RejectReason = "not-started"
	ReasonEnded       RejectReason = "ended"
	ReasonSoldOut     RejectReason = "sold-out"
	ReasonDuplicate   RejectReason = "duplicate"
	ReasonIneligible  RejectReason = "ineligible"
	ReasonUnavailable RejectReason = "unavailable"
)

// PurchaseAttempt 是一次购买请求，按请求创建，策略自身不持久化它
type PurchaseAttempt struct {
	ActivityID  int64
	UserPhone   string
	Quantity    int
	RequestTime time.Time
}

// NewPurchaseAttempt 创建一次购买请求，数量缺省为 1
func NewPurchaseAttempt(activityID int64, userPhone string) *PurchaseAttempt {
	return &PurchaseAttempt{
		ActivityID:  activityID,
		UserPhone:   userPhone,
		Quantity:    1,
		RequestTime: time.Now(),
	}
}

// ReservationOutcome 是执行策略返回给调用方的预占结果
type ReservationOutcome struct {
	Accepted   bool
	Reason     RejectReason // 仅在拒绝时有值
	Token      string       // 仅在接受时有值
	ClaimValue int64        // 本次抢占到的计数值，仅在接受时有值
}

// AcceptedOutcome 构造一个接受结果
func AcceptedOutcome(token string, claimValue int64) *ReservationOutcome {
	return &ReservationOutcome{Accepted: true, Token: token, ClaimValue: claimValue}
}

// RejectedOutcome 构造一个拒绝结果
func RejectedOutcome(reason RejectReason) *ReservationOutcome {
	return &ReservationOutcome{Accepted: false, Reason: reason}
}

const tokenSalt = "dDU2#jd*2jd?2:{OR"

// NewReservationToken 由活动ID和抢占计数值派生预占令牌。
// 计数值对单个活动全局唯一，因此令牌对每个被接受的库存单元唯一。
func NewReservationToken(activityID, claimValue int64) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(fmt.Sprintf("%d/%d/%s", activityID, claimValue, tokenSalt))))
}
