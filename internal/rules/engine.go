// Package rules implements the built-in loan eligibility engine.
//
// Every loan type has an ordered list of threshold checks. Checks never
// short-circuit: each failing predicate appends its reason, so a rejection
// itemizes everything wrong with the application in one pass. The decision
// is approved exactly when no check produced a reason.
package rules

import (
	"fmt"

	"github.com/openlend/kestrel/internal/domain"
	"github.com/openlend/kestrel/internal/emi"
)

// EngineVersion identifies the built-in check set.
const EngineVersion = "kestrel-rules-1.0"

type evalFunc func(app *domain.Application, sched emi.Schedule, c *checklist)

// Engine evaluates applications against the built-in per-type checks.
// Thresholds are compiled in; they change with a release, not at runtime.
// Operator-adjustable rules live in the policy engine instead.
type Engine struct {
	evaluators map[domain.LoanType]evalFunc
}

// NewEngine creates the eligibility engine.
func NewEngine() *Engine {
	return &Engine{
		evaluators: map[domain.LoanType]evalFunc{
			domain.LoanEducation: evaluateEducation,
			domain.LoanHome:      evaluateHome,
			domain.LoanCar:       evaluateCar,
			domain.LoanPersonal:  evaluatePersonal,
			domain.LoanBusiness:  evaluateBusiness,
		},
	}
}

// Evaluate computes the repayment schedule for the application and runs the
// check list for its loan type. The returned decision carries only the
// built-in reasons and metrics; policy violations and metadata are attached
// downstream.
func (e *Engine) Evaluate(app *domain.Application) (*domain.Decision, emi.Schedule, error) {
	eval, ok := e.evaluators[app.LoanType]
	if !ok {
		return nil, emi.Schedule{}, fmt.Errorf("unknown loan type: %s", app.LoanType)
	}

	rate, _ := emi.RateFor(string(app.LoanType))
	sched, err := emi.Compute(app.Amount, rate, app.TenureMonths)
	if err != nil {
		return nil, emi.Schedule{}, fmt.Errorf("emi computation: %w", err)
	}

	c := newChecklist()
	eval(app, sched, c)

	return &domain.Decision{
		Approved: len(c.reasons) == 0,
		Reasons:  c.reasons,
		Metrics:  c.metrics,
	}, sched, nil
}

// checklist accumulates rejection reasons and computed metrics during one
// evaluation.
type checklist struct {
	reasons []string
	metrics map[string]float64
}

func newChecklist() *checklist {
	return &checklist{
		reasons: []string{},
		metrics: make(map[string]float64),
	}
}

func (c *checklist) failf(format string, args ...any) {
	c.reasons = append(c.reasons, fmt.Sprintf(format, args...))
}

func (c *checklist) metric(name string, v float64) {
	c.metrics[name] = v
}

// requireScore handles the three-way optional credit score: nil means the
// applicant provided no score, which is itself a rejection reason distinct
// from a score below the threshold.
func (c *checklist) requireScore(score *float64, min float64) {
	if score == nil {
		c.failf("Credit score is required but not provided")
		return
	}
	c.metric("credit_score", *score)
	if *score < min {
		c.failf("Credit score (%.0f) is below minimum requirement (%.0f)", *score, min)
	}
}

// emiRatio returns the EMI burden as a percentage of monthly income.
// A non-positive income maxes the ratio out rather than dividing by zero.
func emiRatio(installment, monthlyIncome float64) float64 {
	if monthlyIncome <= 0 {
		return 100
	}
	return installment / monthlyIncome * 100
}
