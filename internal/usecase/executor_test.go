package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"vigil/internal/domain"
)

func executorFixture(now time.Time) (*EscalationActionExecutor, *stubActionRepo, *stubViolationRepo, *stubTaskSource, *stubNotifier, *stubWebhookCaller) {
	actions := &stubActionRepo{}
	violations := newStubViolationRepo()
	tasks := newStubTaskSource()
	notifier := &stubNotifier{}
	webhooks := &stubWebhookCaller{}
	x := NewEscalationActionExecutor(actions, violations, tasks, notifier, webhooks)
	x.Now = fixedClock(now)
	return x, actions, violations, tasks, notifier, webhooks
}

func pendingAction(actions *stubActionRepo, violations *stubViolationRepo, atype domain.ActionType, config map[string]string) domain.EscalationAction {
	v := domain.SlaViolation{
		ID: "v1", TenantID: "t1", PolicyID: "p1", TaskID: "task-1",
		ViolationType: domain.ViolationResponseTime, ViolationTime: t0,
		Status: domain.ViolationOpen,
	}
	violations.items[v.ID] = &v
	a := domain.EscalationAction{
		ID: "a1", TenantID: "t1", ViolationID: v.ID, RuleID: "r1", Level: 1,
		ActionType: atype, ActionConfig: config, Status: domain.ActionPending,
	}
	stored := a
	actions.items = append(actions.items, &stored)
	return a
}

func TestExecutor_NotifySucceedsAndAdvancesLevel(t *testing.T) {
	now := t0.Add(time.Hour)
	x, actions, violations, _, notifier, _ := executorFixture(now)
	a := pendingAction(actions, violations, domain.ActionNotify, map[string]string{
		"recipients": "user-1, user-2",
		"message":    "breach",
	})

	out, err := x.Execute(context.Background(), a)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.Status != domain.ActionSucceeded {
		t.Fatalf("expected Succeeded, got %s", out.Status)
	}
	if out.ExecutedAt == nil || !out.ExecutedAt.Equal(now) {
		t.Fatalf("expected executedAt %v, got %v", now, out.ExecutedAt)
	}
	if len(notifier.notifies) != 1 || len(notifier.notifies[0].Recipients) != 2 {
		t.Fatalf("expected one notification to two recipients, got %+v", notifier.notifies)
	}
	v, _ := violations.GetByID(context.Background(), "t1", "v1")
	if v.CurrentEscalationLevel != 1 {
		t.Fatalf("terminal action must advance violation level, got %d", v.CurrentEscalationLevel)
	}
}

func TestExecutor_FailureSchedulesBackoffRetry(t *testing.T) {
	now := t0.Add(time.Hour)
	x, actions, violations, _, notifier, _ := executorFixture(now)
	notifier.err = errors.New("smtp down")
	a := pendingAction(actions, violations, domain.ActionNotify, map[string]string{"recipients": "user-1"})

	out, err := x.Execute(context.Background(), a)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.Status != domain.ActionFailed {
		t.Fatalf("expected Failed, got %s", out.Status)
	}
	if out.RetryCount != 1 {
		t.Fatalf("expected retryCount 1, got %d", out.RetryCount)
	}
	wantRetry := now.Add(2 * time.Minute)
	if out.NextRetryAt == nil || !out.NextRetryAt.Equal(wantRetry) {
		t.Fatalf("expected nextRetryAt %v, got %v", wantRetry, out.NextRetryAt)
	}
	v, _ := violations.GetByID(context.Background(), "t1", "v1")
	if v.CurrentEscalationLevel != 0 {
		t.Fatalf("non-terminal action must not advance level, got %d", v.CurrentEscalationLevel)
	}
}

func TestExecutor_ExhaustsAfterMaxRetriesAndStillAdvances(t *testing.T) {
	now := t0.Add(time.Hour)
	x, actions, violations, _, notifier, _ := executorFixture(now)
	notifier.err = errors.New("permanently broken")
	a := pendingAction(actions, violations, domain.ActionNotify, map[string]string{"recipients": "user-1"})

	var out domain.EscalationAction
	var err error
	out = a
	for i := 0; i < 3; i++ {
		out, err = x.Execute(context.Background(), out)
		if err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	if out.Status != domain.ActionExhausted {
		t.Fatalf("expected Exhausted after 3 failures, got %s", out.Status)
	}
	if out.RetryCount != 3 {
		t.Fatalf("expected retryCount 3, got %d", out.RetryCount)
	}
	if out.NextRetryAt != nil {
		t.Fatalf("exhausted action must not schedule a retry")
	}
	v, _ := violations.GetByID(context.Background(), "t1", "v1")
	if v.CurrentEscalationLevel != 1 {
		t.Fatalf("exhaustion must advance past the level, got %d", v.CurrentEscalationLevel)
	}
}

func TestExecutor_BackoffDoubles(t *testing.T) {
	now := t0.Add(time.Hour)
	x, actions, violations, _, notifier, _ := executorFixture(now)
	x.MaxRetries = 5
	notifier.err = errors.New("flaky")
	a := pendingAction(actions, violations, domain.ActionNotify, map[string]string{"recipients": "user-1"})

	out, _ := x.Execute(context.Background(), a)
	first := *out.NextRetryAt
	out, _ = x.Execute(context.Background(), out)
	second := *out.NextRetryAt
	if got, want := first.Sub(now), 2*time.Minute; got != want {
		t.Fatalf("first backoff: expected %v, got %v", want, got)
	}
	if got, want := second.Sub(now), 4*time.Minute; got != want {
		t.Fatalf("second backoff: expected %v, got %v", want, got)
	}
}

func TestExecutor_TerminalActionIsRejected(t *testing.T) {
	now := t0.Add(time.Hour)
	x, actions, violations, _, _, _ := executorFixture(now)
	a := pendingAction(actions, violations, domain.ActionNotify, map[string]string{"recipients": "user-1"})
	a.Status = domain.ActionSucceeded

	if _, err := x.Execute(context.Background(), a); !errors.Is(err, domain.ErrActionTerminal) {
		t.Fatalf("expected ErrActionTerminal, got %v", err)
	}
}

func TestExecutor_ReassignUpdatesTask(t *testing.T) {
	now := t0.Add(time.Hour)
	x, actions, violations, tasks, _, _ := executorFixture(now)
	tasks.tasks["task-1"] = domain.Task{ID: "task-1", TenantID: "t1", Status: domain.TaskStatusNew}
	a := pendingAction(actions, violations, domain.ActionReassign, map[string]string{"assigneeId": "user-9"})

	out, err := x.Execute(context.Background(), a)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.Status != domain.ActionSucceeded {
		t.Fatalf("expected Succeeded, got %s: %s", out.Status, out.ErrorMessage)
	}
	if tasks.reassigned["task-1"] != "user-9" {
		t.Fatalf("expected task reassigned to user-9, got %q", tasks.reassigned["task-1"])
	}
}

func TestExecutor_MissingConfigFollowsRetryPath(t *testing.T) {
	now := t0.Add(time.Hour)
	x, actions, violations, _, _, _ := executorFixture(now)
	a := pendingAction(actions, violations, domain.ActionWebhook, nil)

	out, err := x.Execute(context.Background(), a)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.Status != domain.ActionFailed {
		t.Fatalf("expected Failed, got %s", out.Status)
	}
	if out.ErrorMessage == "" {
		t.Fatalf("expected error message recorded")
	}
	if !IsConfigError(fmt.Errorf("wrap: %w", domain.ErrInvalidAction)) {
		t.Fatalf("missing config must classify as a configuration error")
	}
}

func TestExecutor_WebhookCallCarriesSnapshot(t *testing.T) {
	now := t0.Add(time.Hour)
	x, actions, violations, _, _, webhooks := executorFixture(now)
	a := pendingAction(actions, violations, domain.ActionWebhook, map[string]string{"url": "https://hooks.example.com/sla"})

	out, err := x.Execute(context.Background(), a)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.Status != domain.ActionSucceeded {
		t.Fatalf("expected Succeeded, got %s: %s", out.Status, out.ErrorMessage)
	}
	if len(webhooks.calls) != 1 || webhooks.calls[0].ViolationID != "v1" {
		t.Fatalf("expected webhook call for v1, got %+v", webhooks.calls)
	}
}

type blockingNotifier struct{}

func (blockingNotifier) Notify(ctx context.Context, _ Notification) error {
	<-ctx.Done()
	return ctx.Err()
}

func (blockingNotifier) Page(ctx context.Context, _ Page) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestExecutor_TimeoutCountsAsFailure(t *testing.T) {
	now := t0.Add(time.Hour)
	x, actions, violations, _, _, _ := executorFixture(now)
	x.Notifier = blockingNotifier{}
	x.Timeout = 5 * time.Millisecond
	a := pendingAction(actions, violations, domain.ActionNotify, map[string]string{"recipients": "user-1"})

	out, err := x.Execute(context.Background(), a)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.Status != domain.ActionFailed {
		t.Fatalf("timeout must count as failure, got %s", out.Status)
	}
	if out.RetryCount != 1 {
		t.Fatalf("expected retryCount 1, got %d", out.RetryCount)
	}
}

func TestExecutor_RunExecutesPendingAndDueRetries(t *testing.T) {
	now := t0.Add(time.Hour)
	x, actions, violations, _, _, webhooks := executorFixture(now)
	pendingAction(actions, violations, domain.ActionWebhook, map[string]string{"url": "https://hooks.example.com/a"})

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	actions.items = append(actions.items,
		&domain.EscalationAction{
			ID: "a2", TenantID: "t1", ViolationID: "v1", Level: 2,
			ActionType: domain.ActionWebhook, ActionConfig: map[string]string{"url": "https://hooks.example.com/b"},
			Status: domain.ActionFailed, RetryCount: 1, NextRetryAt: &past,
		},
		&domain.EscalationAction{
			ID: "a3", TenantID: "t1", ViolationID: "v1", Level: 3,
			ActionType: domain.ActionWebhook, ActionConfig: map[string]string{"url": "https://hooks.example.com/c"},
			Status: domain.ActionFailed, RetryCount: 1, NextRetryAt: &future,
		},
	)

	res, err := x.Run(context.Background(), "t1")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Executed != 2 || res.Succeeded != 2 {
		t.Fatalf("expected pending + due retry executed, got %+v", res)
	}
	if len(webhooks.calls) != 2 {
		t.Fatalf("expected 2 webhook calls, got %d", len(webhooks.calls))
	}
}
