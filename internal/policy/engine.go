// Package policy provides the CEL-Go based supplemental policy engine.
//
// Built-in eligibility checks are fixed Go code in the rules package.
// Policies are the operator-adjustable layer on top: database-stored CEL
// expressions that can reject an application for reasons the product team
// adds without a release, e.g. intake velocity limits or amount caps for a
// campaign.
package policy

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/openlend/kestrel/internal/domain"
)

// Engine is the CEL-based policy evaluation engine.
type Engine struct {
	mu           sync.RWMutex
	env          *cel.Env
	compiled     map[string]*CompiledPolicy
	intakeGetter IntakeGetter
	maxWorkers   int
}

// CompiledPolicy holds a pre-compiled CEL program.
type CompiledPolicy struct {
	Config  *domain.PolicyConfig
	Program cel.Program
}

// IntakeGetter returns the number of applications submitted with an email
// address in a time window.
type IntakeGetter func(ctx context.Context, email string, windowSecs int) (int64, error)

// NewEngine creates a new policy evaluation engine.
func NewEngine(intakeGetter IntakeGetter, maxWorkers int) (*Engine, error) {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	// CEL environment with application variables
	env, err := cel.NewEnv(
		cel.Variable("app", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("loan_type", cel.StringType),
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("tenure_months", cel.IntType),
		cel.Variable("emi", cel.DoubleType),
		cel.Variable("monthly_income", cel.DoubleType),
		// -1 when the applicant provided no score
		cel.Variable("credit_score", cel.DoubleType),
		cel.Variable("age", cel.IntType),
		cel.Variable("recent_applications", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:          env,
		compiled:     make(map[string]*CompiledPolicy),
		intakeGetter: intakeGetter,
		maxWorkers:   maxWorkers,
	}, nil
}

// ValidatePolicy compiles and validates a policy without mutating loaded
// engine state.
func (e *Engine) ValidatePolicy(cfg *domain.PolicyConfig) error {
	if cfg == nil {
		return fmt.Errorf("policy config is required")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	_, err := e.compilePolicy(cfg)
	return err
}

// LoadPolicy compiles and loads a policy into the engine.
func (e *Engine) LoadPolicy(cfg *domain.PolicyConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled, err := e.compilePolicy(cfg)
	if err != nil {
		return err
	}

	e.compiled[cfg.ID] = compiled

	return nil
}

// LoadPolicies compiles and loads multiple policies.
func (e *Engine) LoadPolicies(configs []*domain.PolicyConfig) error {
	for _, cfg := range configs {
		if cfg.Enabled {
			if err := e.LoadPolicy(cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

// EvaluateInput holds the application data for policy evaluation.
type EvaluateInput struct {
	AppID          string
	LoanType       string
	Amount         float64
	TenureMonths   int
	EMI            float64
	MonthlyIncome  float64
	CreditScore    float64 // -1 when absent
	Age            int
	Email          string
	VelocityWindow int // seconds
	AdditionalData map[string]any
}

// EvaluateAll evaluates all loaded policies matching the input's loan type
// in parallel. Violations are returned in policy-ID order so reason lists
// stay deterministic across runs. Evaluation errors disable the offending
// policy for the application (logged by the caller via the violation-free
// result), never reject it.
func (e *Engine) EvaluateAll(ctx context.Context, input *EvaluateInput) ([]domain.PolicyViolation, error) {
	e.mu.RLock()
	policies := make([]*CompiledPolicy, 0, len(e.compiled))
	for _, p := range e.compiled {
		if p.Config.LoanType == domain.PolicyLoanTypeAll || p.Config.LoanType == input.LoanType {
			policies = append(policies, p)
		}
	}
	e.mu.RUnlock()

	if len(policies) == 0 {
		return nil, nil
	}
	sort.Slice(policies, func(i, j int) bool {
		return policies[i].Config.ID < policies[j].Config.ID
	})

	// Get intake count if getter is available
	var recentApplications int64
	if e.intakeGetter != nil && input.VelocityWindow > 0 {
		count, err := e.intakeGetter(ctx, input.Email, input.VelocityWindow)
		if err == nil {
			recentApplications = count
		}
	}

	// Prepare CEL activation variables
	activation := map[string]any{
		"app": map[string]any{
			"id":            input.AppID,
			"loan_type":     input.LoanType,
			"amount":        input.Amount,
			"tenure_months": input.TenureMonths,
			"email":         input.Email,
		},
		"loan_type":           input.LoanType,
		"amount":              input.Amount,
		"tenure_months":       input.TenureMonths,
		"emi":                 input.EMI,
		"monthly_income":      input.MonthlyIncome,
		"credit_score":        input.CreditScore,
		"age":                 input.Age,
		"recent_applications": recentApplications,
	}

	// Merge additional data
	for k, v := range input.AdditionalData {
		activation[k] = v
	}

	// Parallel evaluation using worker pool pattern
	fired := make([]*domain.PolicyViolation, len(policies))
	var wg sync.WaitGroup

	// Limit concurrency with semaphore
	sem := make(chan struct{}, e.maxWorkers)

	for i, p := range policies {
		wg.Add(1)
		go func(idx int, cp *CompiledPolicy) {
			defer wg.Done()

			sem <- struct{}{}        // Acquire
			defer func() { <-sem }() // Release

			fired[idx] = e.evaluatePolicy(cp, activation)
		}(i, p)
	}

	wg.Wait()

	violations := make([]domain.PolicyViolation, 0, len(policies))
	for _, v := range fired {
		if v != nil {
			violations = append(violations, *v)
		}
	}
	return violations, nil
}

// evaluatePolicy evaluates a single policy; returns nil when it did not fire.
func (e *Engine) evaluatePolicy(p *CompiledPolicy, activation map[string]any) *domain.PolicyViolation {
	start := time.Now()

	out, _, err := p.Program.Eval(activation)
	if err != nil {
		// An erroring policy must not reject an applicant.
		return nil
	}

	score := toScore(out)
	if score < 1 {
		return nil
	}

	return &domain.PolicyViolation{
		PolicyID:  p.Config.ID,
		Name:      p.Config.Name,
		Reason:    p.Config.Reason,
		Score:     score,
		ProcessMs: time.Since(start).Milliseconds(),
	}
}

// toScore converts a CEL value to a numeric score.
func toScore(val ref.Val) float64 {
	switch v := val.(type) {
	case types.Bool:
		if v {
			return 1.0
		}
		return 0.0
	case types.Double:
		return float64(v)
	case types.Int:
		return float64(v)
	default:
		return 0.0
	}
}

// PolicyCount returns the number of loaded policies.
func (e *Engine) PolicyCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiled)
}

// ReloadPolicies clears all existing policies and loads new ones.
// This enables hot-reloading from the database.
func (e *Engine) ReloadPolicies(configs []*domain.PolicyConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := make(map[string]*CompiledPolicy)

	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}

		compiled, err := e.compilePolicy(cfg)
		if err != nil {
			return err
		}
		next[cfg.ID] = compiled
	}

	e.compiled = next

	return nil
}

// GetLoadedPolicies returns the currently loaded policy configurations.
func (e *Engine) GetLoadedPolicies() []*domain.PolicyConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()

	configs := make([]*domain.PolicyConfig, 0, len(e.compiled))
	for _, compiled := range e.compiled {
		configs = append(configs, compiled.Config)
	}
	return configs
}

// Close cleans up the engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiled = make(map[string]*CompiledPolicy)
	return nil
}

func (e *Engine) compilePolicy(cfg *domain.PolicyConfig) (*CompiledPolicy, error) {
	ast, issues := e.env.Compile(cfg.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile policy %s: %w", cfg.ID, issues.Err())
	}

	outputType := ast.OutputType()
	if outputType != cel.BoolType && outputType != cel.DoubleType && outputType != cel.IntType {
		return nil, fmt.Errorf("policy %s: expression must return bool, int, or double, got %s", cfg.ID, outputType)
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for policy %s: %w", cfg.ID, err)
	}

	return &CompiledPolicy{
		Config:  cfg,
		Program: program,
	}, nil
}
