package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"vigil/internal/domain"
)

func adminFixture() (*AdminService, *stubPolicyRepo, *stubRuleRepo, *stubViolationRepo, *stubActionRepo) {
	policies := &stubPolicyRepo{}
	rules := &stubRuleRepo{}
	calendars := &stubCalendarRepo{calendars: map[string]domain.BusinessCalendar{}}
	violations := newStubViolationRepo()
	actions := &stubActionRepo{}
	executor := NewEscalationActionExecutor(actions, violations, newStubTaskSource(), &stubNotifier{}, &stubWebhookCaller{})
	executor.Now = fixedClock(t0)
	svc := NewAdminService(policies, rules, calendars, violations, actions, executor)
	svc.Now = fixedClock(t0)
	return svc, policies, rules, violations, actions
}

func TestAdmin_CreatePolicyValidates(t *testing.T) {
	svc, _, _, _, _ := adminFixture()

	_, err := svc.CreatePolicy(context.Background(), domain.SlaPolicy{
		TenantID: "t1", Name: "bad", ResponseTimeHours: 8, ResolutionTimeHours: 4,
	})
	if !errors.Is(err, domain.ErrInvalidPolicy) {
		t.Fatalf("expected ErrInvalidPolicy, got %v", err)
	}

	p, err := svc.CreatePolicy(context.Background(), domain.SlaPolicy{
		TenantID: "t1", Name: "equal bounds", ResponseTimeHours: 4, ResolutionTimeHours: 4, IsActive: true,
	})
	if err != nil {
		t.Fatalf("equal bounds must be valid: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("expected generated id")
	}
}

func TestAdmin_CreatePolicyRejectsUnknownCalendar(t *testing.T) {
	svc, _, _, _, _ := adminFixture()
	_, err := svc.CreatePolicy(context.Background(), domain.SlaPolicy{
		TenantID: "t1", Name: "cal", ResponseTimeHours: 1, ResolutionTimeHours: 2, CalendarID: "missing",
	})
	if !errors.Is(err, domain.ErrInvalidPolicy) {
		t.Fatalf("expected ErrInvalidPolicy, got %v", err)
	}
}

func TestAdmin_CreateRuleValidatesLadderAtWriteTime(t *testing.T) {
	svc, policies, _, _, _ := adminFixture()
	policies.policies = []domain.SlaPolicy{{ID: "p1", TenantID: "t1", Name: "p", IsActive: true, ResponseTimeHours: 1, ResolutionTimeHours: 2}}

	mk := func(level, trigger int) domain.EscalationRule {
		return domain.EscalationRule{
			TenantID: "t1", PolicyID: "p1", Level: level, TriggerAfterMinutes: trigger,
			ActionType: domain.ActionNotify, IsActive: true,
		}
	}
	if _, err := svc.CreateRule(context.Background(), mk(1, 0)); err != nil {
		t.Fatalf("create level 1: %v", err)
	}
	if _, err := svc.CreateRule(context.Background(), mk(1, 30)); !errors.Is(err, domain.ErrInvalidRule) {
		t.Fatalf("duplicate level must be rejected, got %v", err)
	}
	if _, err := svc.CreateRule(context.Background(), mk(2, 60)); err != nil {
		t.Fatalf("create level 2: %v", err)
	}
	if _, err := svc.CreateRule(context.Background(), mk(3, 30)); !errors.Is(err, domain.ErrInvalidRule) {
		t.Fatalf("decreasing trigger must be rejected, got %v", err)
	}
}

func TestAdmin_ResolveViolation(t *testing.T) {
	svc, _, _, violations, _ := adminFixture()
	violations.items["v1"] = &domain.SlaViolation{
		ID: "v1", TenantID: "t1", TaskID: "task-1",
		ViolationType: domain.ViolationResponseTime, ViolationTime: t0.Add(-time.Hour),
		Status: domain.ViolationOpen,
	}

	if err := svc.ResolveViolation(context.Background(), "t1", "v1", "handled manually"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	v, _ := violations.GetByID(context.Background(), "t1", "v1")
	if v.Status != domain.ViolationResolved || v.Resolution != "handled manually" {
		t.Fatalf("unexpected violation state %+v", v)
	}
	if v.ResolvedTime == nil || v.ResolvedTime.Before(v.ViolationTime) {
		t.Fatalf("resolvedTime must not precede violationTime")
	}
}

func TestAdmin_RetryActionCreatesManualAttempt(t *testing.T) {
	svc, _, _, violations, actions := adminFixture()
	violations.items["v1"] = &domain.SlaViolation{
		ID: "v1", TenantID: "t1", TaskID: "task-1",
		ViolationType: domain.ViolationResponseTime, ViolationTime: t0.Add(-time.Hour),
		Status: domain.ViolationOpen,
	}
	actions.items = append(actions.items, &domain.EscalationAction{
		ID: "a1", TenantID: "t1", ViolationID: "v1", RuleID: "r1", Level: 1,
		ActionType: domain.ActionNotify, ActionConfig: map[string]string{"recipients": "ops"},
		Status: domain.ActionExhausted, RetryCount: 3,
	})

	out, err := svc.RetryAction(context.Background(), "t1", "a1")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if out.ID == "a1" {
		t.Fatalf("manual retry must be a fresh action record")
	}
	if out.RuleID != "" {
		t.Fatalf("manual retry must carry no rule id, got %q", out.RuleID)
	}
	if out.Status != domain.ActionSucceeded {
		t.Fatalf("expected retried action to succeed, got %s: %s", out.Status, out.ErrorMessage)
	}
}
