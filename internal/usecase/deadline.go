package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"vigil/internal/domain"
)

// DeadlineCalculator resolves the policy applicable to a task and computes
// its response and resolution deadlines.
type DeadlineCalculator struct {
	Policies  PolicyRepository
	Calendars CalendarRepository
}

type Deadlines struct {
	Policy     domain.SlaPolicy
	Response   time.Time
	Resolution time.Time
}

func NewDeadlineCalculator(policies PolicyRepository, calendars CalendarRepository) *DeadlineCalculator {
	return &DeadlineCalculator{Policies: policies, Calendars: calendars}
}

// PolicyFor selects the first active policy whose filters match the task.
// Ties break on most specific filter, then most recently updated. Returns
// domain.ErrPolicyNotFound when nothing matches; callers treat that as "no
// SLA applies".
func (c *DeadlineCalculator) PolicyFor(ctx context.Context, tenantID, taskType, priority string) (*domain.SlaPolicy, error) {
	policies, err := c.Policies.ListActive(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list active policies: %w", err)
	}
	matched := policies[:0]
	for _, p := range policies {
		if p.Matches(taskType, priority) {
			matched = append(matched, p)
		}
	}
	if len(matched) == 0 {
		return nil, domain.ErrPolicyNotFound
	}
	sort.SliceStable(matched, func(i, j int) bool {
		si, sj := matched[i].Specificity(), matched[j].Specificity()
		if si != sj {
			return si > sj
		}
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})
	p := matched[0]
	return &p, nil
}

// Deadlines computes both deadlines for the task from its creation instant.
// Without a bound calendar, hours count wall-clock.
func (c *DeadlineCalculator) Deadlines(ctx context.Context, task domain.Task) (Deadlines, error) {
	policy, err := c.PolicyFor(ctx, task.TenantID, task.Type, task.Priority)
	if err != nil {
		return Deadlines{}, err
	}
	return c.DeadlinesWithPolicy(ctx, task, *policy)
}

func (c *DeadlineCalculator) DeadlinesWithPolicy(ctx context.Context, task domain.Task, policy domain.SlaPolicy) (Deadlines, error) {
	if policy.CalendarID == "" {
		return Deadlines{
			Policy:     policy,
			Response:   task.CreatedAt.Add(policy.ResponseTime()),
			Resolution: task.CreatedAt.Add(policy.ResolutionTime()),
		}, nil
	}
	cal, err := c.Calendars.GetByID(ctx, task.TenantID, policy.CalendarID)
	if err != nil {
		return Deadlines{}, fmt.Errorf("load calendar %s: %w", policy.CalendarID, err)
	}
	if !cal.IsActive {
		return Deadlines{}, fmt.Errorf("%w: calendar %s is inactive", domain.ErrInvalidCalendar, cal.ID)
	}
	response, err := cal.AddBusinessTime(task.CreatedAt, policy.ResponseTime())
	if err != nil {
		return Deadlines{}, err
	}
	resolution, err := cal.AddBusinessTime(task.CreatedAt, policy.ResolutionTime())
	if err != nil {
		return Deadlines{}, err
	}
	return Deadlines{Policy: policy, Response: response, Resolution: resolution}, nil
}
