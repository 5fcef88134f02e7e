package domain

import (
	"strings"
)

// Decision is the outcome of evaluating an application. Approved is true
// exactly when Reasons is empty: every failed check appends a reason, and
// checks never short-circuit, so the list itemizes all deficiencies at once.
type Decision struct {
	Approved bool               `json:"approved"`
	Reasons  []string           `json:"reasons"`
	Metrics  map[string]float64 `json:"computedMetrics"`

	// Processing metadata
	Metadata DecisionMetadata `json:"metadata"`
}

// DecisionMetadata contains processing information.
type DecisionMetadata struct {
	TraceID           string `json:"traceId"`
	RulesMs           int64  `json:"rulesMs"`
	PoliciesMs        int64  `json:"policiesMs"`
	TotalMs           int64  `json:"totalMs"`
	PoliciesEvaluated int    `json:"policiesEvaluated"`
	EngineVersion     string `json:"engineVersion"`
}

// Reason renders the accumulated reasons as a single display string.
func (d *Decision) Reason() string {
	if len(d.Reasons) == 0 {
		return "Application meets all eligibility criteria"
	}
	return strings.Join(d.Reasons, "; ")
}

// Status maps the decision onto an application status.
func (d *Decision) Status() string {
	if d.Approved {
		return StatusApproved
	}
	return StatusRejected
}
