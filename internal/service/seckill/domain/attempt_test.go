package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewReservationToken(t *testing.T) {
	// 同一 (活动, 计数值) 派生出的令牌必须稳定
	assert.Equal(t, NewReservationToken(1, 1), NewReservationToken(1, 1))

	// 不同计数值、不同活动的令牌互不相同
	tokens := make(map[string]bool)
	for activity := int64(1); activity <= 3; activity++ {
		for claim := int64(1); claim <= 100; claim++ {
			tokens[NewReservationToken(activity, claim)] = true
		}
	}
	assert.Len(t, tokens, 300)
}

func TestNewPurchaseAttemptDefaults(t *testing.T) {
	attempt := NewPurchaseAttempt(42, "13700000000")
	assert.EqualValues(t, 42, attempt.ActivityID)
	assert.Equal(t, 1, attempt.Quantity)
	assert.False(t, attempt.RequestTime.IsZero())
}

func TestOutcomeConstructors(t *testing.T) {
	accepted := AcceptedOutcome("tok", 3)
	assert.True(t, accepted.Accepted)
	assert.EqualValues(t, 3, accepted.ClaimValue)
	assert.Empty(t, accepted.Reason)

	rejected := RejectedOutcome(ReasonSoldOut)
	assert.False(t, rejected.Accepted)
	assert.Equal(t, ReasonSoldOut, rejected.Reason)
	assert.Empty(t, rejected.Token)
}
