package domain

import (
	"fmt"
	"sort"
	"time"
)

type ActionType string

const (
	ActionNotify      ActionType = "Notify"
	ActionReassign    ActionType = "Reassign"
	ActionPageManager ActionType = "PageManager"
	ActionWebhook     ActionType = "Webhook"
)

func (a ActionType) Valid() bool {
	switch a {
	case ActionNotify, ActionReassign, ActionPageManager, ActionWebhook:
		return true
	}
	return false
}

// EscalationRule binds one escalation level of a policy to an action.
// TriggerAfterMinutes counts from the instant the violation was opened.
type EscalationRule struct {
	ID                  string
	TenantID            string
	PolicyID            string
	Level               int
	TriggerAfterMinutes int
	ActionType          ActionType
	ActionConfig        map[string]string
	IsActive            bool
	IsDeleted           bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (r EscalationRule) Validate() error {
	if r.PolicyID == "" {
		return fmt.Errorf("%w: policy id is required", ErrInvalidRule)
	}
	if r.Level <= 0 {
		return fmt.Errorf("%w: level must be positive", ErrInvalidRule)
	}
	if r.TriggerAfterMinutes < 0 {
		return fmt.Errorf("%w: trigger delay must not be negative", ErrInvalidRule)
	}
	if !r.ActionType.Valid() {
		return fmt.Errorf("%w: unknown action type %q", ErrInvalidRule, r.ActionType)
	}
	return nil
}

func (r EscalationRule) TriggerAfter() time.Duration {
	return time.Duration(r.TriggerAfterMinutes) * time.Minute
}

// RuleSet is a policy's escalation ladder, sorted and validated once at
// construction so the engine never re-checks ordering at runtime.
type RuleSet struct {
	policyID string
	rules    []EscalationRule
}

// NewRuleSet sorts the given rules by level and rejects duplicate levels and
// trigger delays that decrease as levels rise. Inactive and deleted rules are
// excluded from the ladder.
func NewRuleSet(policyID string, rules []EscalationRule) (RuleSet, error) {
	active := make([]EscalationRule, 0, len(rules))
	for _, r := range rules {
		if r.PolicyID != policyID {
			return RuleSet{}, fmt.Errorf("%w: rule %s belongs to policy %s", ErrInvalidRule, r.ID, r.PolicyID)
		}
		if err := r.Validate(); err != nil {
			return RuleSet{}, err
		}
		if !r.IsActive || r.IsDeleted {
			continue
		}
		active = append(active, r)
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Level < active[j].Level })
	for i := 1; i < len(active); i++ {
		if active[i].Level == active[i-1].Level {
			return RuleSet{}, fmt.Errorf("%w: duplicate level %d", ErrInvalidRule, active[i].Level)
		}
		if active[i].TriggerAfterMinutes < active[i-1].TriggerAfterMinutes {
			return RuleSet{}, fmt.Errorf("%w: trigger delay decreases at level %d", ErrInvalidRule, active[i].Level)
		}
	}
	return RuleSet{policyID: policyID, rules: active}, nil
}

func (s RuleSet) PolicyID() string { return s.policyID }

func (s RuleSet) Len() int { return len(s.rules) }

func (s RuleSet) Rules() []EscalationRule {
	out := make([]EscalationRule, len(s.rules))
	copy(out, s.rules)
	return out
}

// NextAfter returns the lowest-level rule above the given level, or nil when
// the ladder is exhausted.
func (s RuleSet) NextAfter(level int) *EscalationRule {
	for i := range s.rules {
		if s.rules[i].Level > level {
			r := s.rules[i]
			return &r
		}
	}
	return nil
}
