package domain

import "time"

type ActionStatus string

const (
	ActionPending   ActionStatus = "Pending"
	ActionSucceeded ActionStatus = "Succeeded"
	ActionFailed    ActionStatus = "Failed"
	ActionExhausted ActionStatus = "Exhausted"
)

// Terminal reports whether the status admits no further transitions.
// Exhausted is terminal failure, distinct from success; neither blocks
// later escalation levels.
func (s ActionStatus) Terminal() bool {
	return s == ActionSucceeded || s == ActionExhausted
}

// EscalationAction is the execution record for one fired rule. RuleID is
// empty for manual retries. ActionConfig is a snapshot of the rule config at
// dispatch time. NextRetryAt is set only while the action is Failed with
// retries remaining.
type EscalationAction struct {
	ID           string
	TenantID     string
	ViolationID  string
	RuleID       string
	Level        int
	ActionType   ActionType
	ActionConfig map[string]string
	ExecutedAt   *time.Time
	Status       ActionStatus
	Result       string
	ErrorMessage string
	RetryCount   int
	NextRetryAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (a EscalationAction) DueForRetry(now time.Time) bool {
	if a.Status != ActionFailed {
		return false
	}
	return a.NextRetryAt != nil && !a.NextRetryAt.After(now)
}

// Backoff returns the delay before retry number retryCount, doubling from
// base and clamped at cap.
func Backoff(retryCount int, base, cap time.Duration) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	d := base
	for i := 1; i < retryCount; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	if d > cap {
		return cap
	}
	return d
}
