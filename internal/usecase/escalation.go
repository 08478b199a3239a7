package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vigil/internal/domain"
)

// EscalationRuleEngine decides, per open violation, which escalation level
// is due and dispatches it as a Pending EscalationAction. At most one level
// is dispatched per violation per run, and level N is withheld until level
// N-1 has a terminal action. Advancing currentEscalationLevel happens only
// once the level's action is terminal, so duplicate runs never re-dispatch.
type EscalationRuleEngine struct {
	Violations ViolationRepository
	Rules      RuleRepository
	Actions    ActionRepository
	Now        func() time.Time
}

type EngineResult struct {
	Examined   int
	Dispatched int
	Advanced   int
	Skipped    int
	ItemErrors []string
}

func NewEscalationRuleEngine(violations ViolationRepository, rules RuleRepository, actions ActionRepository) *EscalationRuleEngine {
	return &EscalationRuleEngine{
		Violations: violations,
		Rules:      rules,
		Actions:    actions,
		Now:        time.Now,
	}
}

// Run executes one escalation-selection pass for the tenant (empty tenantID
// scans all). Per-violation failures are recorded and skipped.
func (e *EscalationRuleEngine) Run(ctx context.Context, tenantID string) (EngineResult, error) {
	var res EngineResult
	open, err := e.Violations.ListOpen(ctx, tenantID)
	if err != nil {
		return res, fmt.Errorf("list open violations: %w", err)
	}
	for _, v := range open {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Examined++
		dispatched, advanced, err := e.processViolation(ctx, v)
		if err != nil {
			res.Skipped++
			res.ItemErrors = append(res.ItemErrors, fmt.Sprintf("violation %s: %v", v.ID, err))
			continue
		}
		if dispatched {
			res.Dispatched++
		}
		if advanced {
			res.Advanced++
		}
	}
	return res, nil
}

func (e *EscalationRuleEngine) processViolation(ctx context.Context, v domain.SlaViolation) (dispatched, advanced bool, err error) {
	rules, err := e.Rules.ListByPolicy(ctx, v.TenantID, v.PolicyID)
	if err != nil {
		return false, false, fmt.Errorf("list rules: %w", err)
	}
	set, err := domain.NewRuleSet(v.PolicyID, rules)
	if err != nil {
		return false, false, err
	}
	next := set.NextAfter(v.CurrentEscalationLevel)
	if next == nil {
		return false, false, nil
	}

	last, err := e.Actions.LatestForLevel(ctx, v.TenantID, v.ID, next.Level)
	if err != nil {
		return false, false, fmt.Errorf("load action for level %d: %w", next.Level, err)
	}
	if last != nil {
		if !last.Status.Terminal() {
			// In flight: the executor owns it. Level N+1 stays withheld.
			return false, false, nil
		}
		// Terminal but the level pointer lags (e.g. the executor advanced
		// the action and crashed before the violation update). Repair it;
		// the following level waits for the next cycle.
		if err := e.Violations.AdvanceLevel(ctx, v.TenantID, v.ID, next.Level); err != nil {
			return false, false, fmt.Errorf("advance level: %w", err)
		}
		return false, true, nil
	}

	if e.Now().UTC().Sub(v.ViolationTime) < next.TriggerAfter() {
		return false, false, nil
	}
	_, err = e.Actions.Create(ctx, domain.EscalationAction{
		ID:           uuid.NewString(),
		TenantID:     v.TenantID,
		ViolationID:  v.ID,
		RuleID:       next.ID,
		Level:        next.Level,
		ActionType:   next.ActionType,
		ActionConfig: cloneConfig(next.ActionConfig),
		Status:       domain.ActionPending,
	})
	if err != nil {
		return false, false, fmt.Errorf("create action: %w", err)
	}
	return true, false, nil
}

func cloneConfig(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
