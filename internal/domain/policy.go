package domain

import (
	"fmt"
	"time"
)

// SlaPolicy holds the response and resolution thresholds for a class of
// tasks. TaskType and Priority are filters; an empty filter matches any
// value. CalendarID, when set, makes the thresholds count business time.
type SlaPolicy struct {
	ID                  string
	TenantID            string
	Name                string
	Description         string
	TaskType            string
	Priority            string
	ResponseTimeHours   int
	ResolutionTimeHours int
	CalendarID          string
	IsActive            bool
	IsDeleted           bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (p SlaPolicy) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPolicy)
	}
	if p.ResponseTimeHours <= 0 {
		return fmt.Errorf("%w: response time must be positive", ErrInvalidPolicy)
	}
	if p.ResolutionTimeHours <= 0 {
		return fmt.Errorf("%w: resolution time must be positive", ErrInvalidPolicy)
	}
	if p.ResponseTimeHours > p.ResolutionTimeHours {
		return fmt.Errorf("%w: response time exceeds resolution time", ErrInvalidPolicy)
	}
	return nil
}

func (p SlaPolicy) Matches(taskType, priority string) bool {
	if p.TaskType != "" && p.TaskType != taskType {
		return false
	}
	if p.Priority != "" && p.Priority != priority {
		return false
	}
	return true
}

// Specificity orders competing matches: a policy naming both filters beats
// one naming a single filter, which beats a catch-all.
func (p SlaPolicy) Specificity() int {
	n := 0
	if p.TaskType != "" {
		n++
	}
	if p.Priority != "" {
		n++
	}
	return n
}

func (p SlaPolicy) ResponseTime() time.Duration {
	return time.Duration(p.ResponseTimeHours) * time.Hour
}

func (p SlaPolicy) ResolutionTime() time.Duration {
	return time.Duration(p.ResolutionTimeHours) * time.Hour
}
