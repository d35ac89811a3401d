// internal/service/seckill/infrastructure/cel_precheck.go
package infrastructure

import (
	"context"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"goodskill/internal/service/seckill/domain"
)

// CelEligibilityCheck 用一条 CEL 表达式表达购买资格规则，
// 例如 `quantity <= 1 && user_phone != ""`。
// 表达式在构造时编译一次，热路径上只做求值。
type CelEligibilityCheck struct {
	program cel.Program
}

func NewCelEligibilityCheck(rule string) (*CelEligibilityCheck, error) {
	env, err := cel.NewEnv(
		cel.Variable("activity_id", cel.IntType),
		cel.Variable("user_phone", cel.StringType),
		cel.Variable("quantity", cel.IntType),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create CEL environment")
	}

	ast, issues := env.Compile(rule)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "failed to compile eligibility rule %q", rule)
	}
	if ast.OutputType() != cel.BoolType {
		return nil, errors.Errorf("eligibility rule %q must evaluate to bool, got %s", rule, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build CEL program")
	}
	return &CelEligibilityCheck{program: program}, nil
}

func (c *CelEligibilityCheck) Check(ctx context.Context, attempt *domain.PurchaseAttempt) (domain.RejectReason, error) {
	out, _, err := c.program.ContextEval(ctx, map[string]interface{}{
		"activity_id": attempt.ActivityID,
		"user_phone":  attempt.UserPhone,
		"quantity":    attempt.Quantity,
	})
	if err != nil {
		return "", errors.Wrap(err, "eligibility rule evaluation failed")
	}
	allowed, ok := out.Value().(bool)
	if !ok {
		return "", errors.Errorf("unexpected eligibility rule result type: %T", out.Value())
	}
	if !allowed {
		return domain.ReasonIneligible, nil
	}
	return "", nil
}
