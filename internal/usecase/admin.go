package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vigil/internal/domain"
)

// AdminService is the operator-facing surface: configuration writes with
// validation, violation/action listings, manual resolution and manual
// retries. Configuration is validated here so the runtime engine never
// re-checks rule ordering.
type AdminService struct {
	Policies   PolicyRepository
	Rules      RuleRepository
	Calendars  CalendarRepository
	Violations ViolationRepository
	Actions    ActionRepository
	Executor   *EscalationActionExecutor
	Now        func() time.Time
}

func NewAdminService(policies PolicyRepository, rules RuleRepository, calendars CalendarRepository, violations ViolationRepository, actions ActionRepository, executor *EscalationActionExecutor) *AdminService {
	return &AdminService{
		Policies:   policies,
		Rules:      rules,
		Calendars:  calendars,
		Violations: violations,
		Actions:    actions,
		Executor:   executor,
		Now:        time.Now,
	}
}

func (s *AdminService) CreatePolicy(ctx context.Context, p domain.SlaPolicy) (domain.SlaPolicy, error) {
	if err := p.Validate(); err != nil {
		return domain.SlaPolicy{}, err
	}
	if p.CalendarID != "" {
		if _, err := s.Calendars.GetByID(ctx, p.TenantID, p.CalendarID); err != nil {
			return domain.SlaPolicy{}, fmt.Errorf("%w: calendar %s", domain.ErrInvalidPolicy, p.CalendarID)
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return s.Policies.Create(ctx, p)
}

func (s *AdminService) UpdatePolicy(ctx context.Context, p domain.SlaPolicy) (domain.SlaPolicy, error) {
	if err := p.Validate(); err != nil {
		return domain.SlaPolicy{}, err
	}
	if p.CalendarID != "" {
		if _, err := s.Calendars.GetByID(ctx, p.TenantID, p.CalendarID); err != nil {
			return domain.SlaPolicy{}, fmt.Errorf("%w: calendar %s", domain.ErrInvalidPolicy, p.CalendarID)
		}
	}
	return s.Policies.Update(ctx, p)
}

func (s *AdminService) DeletePolicy(ctx context.Context, tenantID, id string) error {
	return s.Policies.SoftDelete(ctx, tenantID, id)
}

// CreateRule validates the rule in isolation and then validates the whole
// ladder it would produce, so duplicate levels and decreasing trigger delays
// are rejected at configuration-write time.
func (s *AdminService) CreateRule(ctx context.Context, r domain.EscalationRule) (domain.EscalationRule, error) {
	if err := r.Validate(); err != nil {
		return domain.EscalationRule{}, err
	}
	if _, err := s.Policies.GetByID(ctx, r.TenantID, r.PolicyID); err != nil {
		return domain.EscalationRule{}, fmt.Errorf("%w: policy %s", domain.ErrInvalidRule, r.PolicyID)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if err := s.validateLadder(ctx, r, false); err != nil {
		return domain.EscalationRule{}, err
	}
	return s.Rules.Create(ctx, r)
}

func (s *AdminService) UpdateRule(ctx context.Context, r domain.EscalationRule) (domain.EscalationRule, error) {
	if err := r.Validate(); err != nil {
		return domain.EscalationRule{}, err
	}
	if err := s.validateLadder(ctx, r, true); err != nil {
		return domain.EscalationRule{}, err
	}
	return s.Rules.Update(ctx, r)
}

func (s *AdminService) DeleteRule(ctx context.Context, tenantID, id string) error {
	return s.Rules.SoftDelete(ctx, tenantID, id)
}

func (s *AdminService) validateLadder(ctx context.Context, r domain.EscalationRule, replace bool) error {
	existing, err := s.Rules.ListByPolicy(ctx, r.TenantID, r.PolicyID)
	if err != nil {
		return fmt.Errorf("list rules: %w", err)
	}
	ladder := make([]domain.EscalationRule, 0, len(existing)+1)
	for _, e := range existing {
		if replace && e.ID == r.ID {
			continue
		}
		ladder = append(ladder, e)
	}
	ladder = append(ladder, r)
	_, err = domain.NewRuleSet(r.PolicyID, ladder)
	return err
}

func (s *AdminService) CreateCalendar(ctx context.Context, c domain.BusinessCalendar) (domain.BusinessCalendar, error) {
	if err := c.Validate(); err != nil {
		return domain.BusinessCalendar{}, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	for i := range c.Holidays {
		if c.Holidays[i].ID == "" {
			c.Holidays[i].ID = uuid.NewString()
		}
		c.Holidays[i].CalendarID = c.ID
	}
	return s.Calendars.Create(ctx, c)
}

func (s *AdminService) UpdateCalendar(ctx context.Context, c domain.BusinessCalendar) (domain.BusinessCalendar, error) {
	if err := c.Validate(); err != nil {
		return domain.BusinessCalendar{}, err
	}
	for i := range c.Holidays {
		if c.Holidays[i].ID == "" {
			c.Holidays[i].ID = uuid.NewString()
		}
		c.Holidays[i].CalendarID = c.ID
	}
	return s.Calendars.Update(ctx, c)
}

func (s *AdminService) ListViolations(ctx context.Context, filter ViolationFilter, page ListPage) ([]domain.SlaViolation, int64, error) {
	return s.Violations.List(ctx, filter, page.Normalize())
}

func (s *AdminService) ListActions(ctx context.Context, filter ActionFilter, page ListPage) ([]domain.EscalationAction, int64, error) {
	return s.Actions.List(ctx, filter, page.Normalize())
}

// ResolveViolation marks an open violation Resolved with the given note.
func (s *AdminService) ResolveViolation(ctx context.Context, tenantID, id, resolution string) error {
	return s.Violations.Resolve(ctx, tenantID, id, resolution, s.Now().UTC())
}

// RetryAction re-triggers a specific action as a fresh attempt. The new
// record carries no rule id, marking it as a manual retry, and is executed
// immediately.
func (s *AdminService) RetryAction(ctx context.Context, tenantID, id string) (domain.EscalationAction, error) {
	prev, err := s.Actions.GetByID(ctx, tenantID, id)
	if err != nil {
		return domain.EscalationAction{}, err
	}
	fresh, err := s.Actions.Create(ctx, domain.EscalationAction{
		ID:           uuid.NewString(),
		TenantID:     prev.TenantID,
		ViolationID:  prev.ViolationID,
		Level:        prev.Level,
		ActionType:   prev.ActionType,
		ActionConfig: cloneConfig(prev.ActionConfig),
		Status:       domain.ActionPending,
	})
	if err != nil {
		return domain.EscalationAction{}, fmt.Errorf("create retry action: %w", err)
	}
	return s.Executor.Execute(ctx, fresh)
}
