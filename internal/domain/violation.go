package domain

import "time"

type ViolationType string

const (
	ViolationResponseTime   ViolationType = "ResponseTime"
	ViolationResolutionTime ViolationType = "ResolutionTime"
)

func (v ViolationType) Valid() bool {
	return v == ViolationResponseTime || v == ViolationResolutionTime
}

type ViolationStatus string

const (
	ViolationOpen     ViolationStatus = "Open"
	ViolationResolved ViolationStatus = "Resolved"
)

// SlaViolation records one detected breach of a policy deadline for a task.
// At most one Open violation may exist per (task, violation type); the store
// enforces this atomically. Violations are never hard-deleted.
type SlaViolation struct {
	ID                     string
	TenantID               string
	PolicyID               string
	TaskID                 string
	ViolationType          ViolationType
	ViolationTime          time.Time
	Status                 ViolationStatus
	Resolution             string
	ResolvedTime           *time.Time
	CurrentEscalationLevel int
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (v SlaViolation) IsOpen() bool {
	return v.Status == ViolationOpen
}

func (v SlaViolation) Age(now time.Time) time.Duration {
	return now.Sub(v.ViolationTime)
}
