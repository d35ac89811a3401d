package infrastructure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goodskill/internal/service/seckill/domain"
)

func TestCelEligibilityCheckAllows(t *testing.T) {
	check, err := NewCelEligibilityCheck(`quantity <= 1 && user_phone != ""`)
	require.NoError(t, err)

	reason, err := check.Check(context.Background(), domain.NewPurchaseAttempt(1, "13700000000"))
	require.NoError(t, err)
	assert.Empty(t, reason)
}

func TestCelEligibilityCheckRejects(t *testing.T) {
	check, err := NewCelEligibilityCheck(`quantity <= 1 && user_phone != ""`)
	require.NoError(t, err)

	attempt := domain.NewPurchaseAttempt(1, "13700000000")
	attempt.Quantity = 5
	reason, err := check.Check(context.Background(), attempt)
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonIneligible, reason)

	reason, err = check.Check(context.Background(), domain.NewPurchaseAttempt(1, ""))
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonIneligible, reason)
}

func TestCelEligibilityCheckRejectsInvalidRule(t *testing.T) {
	_, err := NewCelEligibilityCheck(`quantity <=`)
	assert.Error(t, err)

	// 必须是布尔表达式
	_, err = NewCelEligibilityCheck(`activity_id + 1`)
	assert.Error(t, err)
}
