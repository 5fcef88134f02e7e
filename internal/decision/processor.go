// Package decision assembles built-in check results and policy violations
// into the final application decision.
package decision

import (
	"context"
	"time"

	"github.com/openlend/kestrel/internal/domain"
)

// Processor produces the final decision for an application.
type Processor struct {
	// EngineVersion is stamped into decision metadata.
	EngineVersion string
}

// NewProcessor creates a decision processor.
func NewProcessor(engineVersion string) *Processor {
	return &Processor{EngineVersion: engineVersion}
}

// Input contains all data needed for a decision.
type Input struct {
	TraceID string

	// RuleDecision is the built-in engine output: ordered reasons plus
	// computed metrics.
	RuleDecision *domain.Decision

	// Violations from the policy engine, already ordered.
	Violations []domain.PolicyViolation

	PoliciesEvaluated int
	RulesMs           int64
	PoliciesMs        int64
	StartTime         time.Time
}

// Process appends policy violation reasons after the built-in reasons and
// finalizes approval and metadata. The built-in reason order is preserved;
// approved stays true only when nothing fired at either layer.
func (p *Processor) Process(ctx context.Context, input *Input) *domain.Decision {
	reasons := make([]string, 0, len(input.RuleDecision.Reasons)+len(input.Violations))
	reasons = append(reasons, input.RuleDecision.Reasons...)
	for _, v := range input.Violations {
		if v.Reason != "" {
			reasons = append(reasons, v.Reason)
		}
	}

	metrics := input.RuleDecision.Metrics
	if metrics == nil {
		metrics = make(map[string]float64)
	}

	return &domain.Decision{
		Approved: len(reasons) == 0,
		Reasons:  reasons,
		Metrics:  metrics,
		Metadata: domain.DecisionMetadata{
			TraceID:           input.TraceID,
			RulesMs:           input.RulesMs,
			PoliciesMs:        input.PoliciesMs,
			TotalMs:           time.Since(input.StartTime).Milliseconds(),
			PoliciesEvaluated: input.PoliciesEvaluated,
			EngineVersion:     p.EngineVersion,
		},
	}
}
