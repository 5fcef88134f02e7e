package domain

import (
	"time"
)

// PolicyLoanTypeAll applies a policy to every loan type.
const PolicyLoanTypeAll = "*"

// PolicyConfig defines an operator-supplied supplemental rejection policy.
// The expression is CEL; when it evaluates to true (or a numeric score of at
// least 1) the configured Reason is appended to the decision, after the
// built-in eligibility checks.
type PolicyConfig struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	// LoanType the policy applies to, or "*" for all types.
	LoanType string `json:"loanType"`

	// CEL expression to evaluate
	Expression string `json:"expression"`

	// Reason appended to the decision when the policy fires
	Reason string `json:"reason"`

	// Whether the policy is active
	Enabled bool `json:"enabled"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PolicyViolation is the outcome of a policy that fired against an
// application.
type PolicyViolation struct {
	PolicyID  string  `json:"policyId"`
	Name      string  `json:"name"`
	Reason    string  `json:"reason"`
	Score     float64 `json:"score"`
	ProcessMs int64   `json:"processMs"`
}
