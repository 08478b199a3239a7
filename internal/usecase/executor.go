package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vigil/internal/domain"
)

const (
	DefaultMaxRetries    = 3
	DefaultBackoffBase   = 2 * time.Minute
	DefaultBackoffCap    = 60 * time.Minute
	DefaultActionTimeout = 10 * time.Second
)

// EscalationActionExecutor runs Pending and retry-due actions against the
// outbound collaborators. Failures are retried with capped exponential
// backoff up to MaxRetries; after that the action is Exhausted, which is
// terminal but does not block later escalation levels.
type EscalationActionExecutor struct {
	Actions    ActionRepository
	Violations ViolationRepository
	Tasks      TaskSource
	Notifier   Notifier
	Webhooks   WebhookCaller

	MaxRetries  int
	BackoffBase time.Duration
	BackoffCap  time.Duration
	Timeout     time.Duration
	Now         func() time.Time
}

type ExecutorResult struct {
	Executed   int
	Succeeded  int
	Failed     int
	Exhausted  int
	ItemErrors []string
}

func NewEscalationActionExecutor(actions ActionRepository, violations ViolationRepository, tasks TaskSource, notifier Notifier, webhooks WebhookCaller) *EscalationActionExecutor {
	return &EscalationActionExecutor{
		Actions:     actions,
		Violations:  violations,
		Tasks:       tasks,
		Notifier:    notifier,
		Webhooks:    webhooks,
		MaxRetries:  DefaultMaxRetries,
		BackoffBase: DefaultBackoffBase,
		BackoffCap:  DefaultBackoffCap,
		Timeout:     DefaultActionTimeout,
		Now:         time.Now,
	}
}

// Run executes every runnable action for the tenant (empty tenantID scans
// all): Pending ones and Failed ones whose nextRetryAt has passed. Retries
// are handled exactly like fresh dispatches.
func (x *EscalationActionExecutor) Run(ctx context.Context, tenantID string) (ExecutorResult, error) {
	var res ExecutorResult
	due, err := x.Actions.ListRunnable(ctx, tenantID, x.Now().UTC())
	if err != nil {
		return res, fmt.Errorf("list runnable actions: %w", err)
	}
	for _, a := range due {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		out, err := x.Execute(ctx, a)
		if err != nil {
			res.ItemErrors = append(res.ItemErrors, fmt.Sprintf("action %s: %v", a.ID, err))
			continue
		}
		res.Executed++
		switch out.Status {
		case domain.ActionSucceeded:
			res.Succeeded++
		case domain.ActionExhausted:
			res.Exhausted++
		default:
			res.Failed++
		}
	}
	return res, nil
}

// Execute performs one attempt of the action and persists the outcome.
// Terminal actions are rejected with domain.ErrActionTerminal.
func (x *EscalationActionExecutor) Execute(ctx context.Context, a domain.EscalationAction) (domain.EscalationAction, error) {
	if a.Status.Terminal() {
		return a, domain.ErrActionTerminal
	}
	now := x.Now().UTC()

	result, execErr := x.perform(ctx, a)

	a.ExecutedAt = &now
	if execErr == nil {
		a.Status = domain.ActionSucceeded
		a.Result = result
		a.ErrorMessage = ""
		a.NextRetryAt = nil
	} else {
		a.RetryCount++
		a.ErrorMessage = execErr.Error()
		if a.RetryCount >= x.maxRetries() {
			a.Status = domain.ActionExhausted
			a.NextRetryAt = nil
		} else {
			a.Status = domain.ActionFailed
			retryAt := now.Add(domain.Backoff(a.RetryCount, x.backoffBase(), x.backoffCap()))
			a.NextRetryAt = &retryAt
		}
	}

	out, err := x.Actions.Update(ctx, a)
	if err != nil {
		return a, fmt.Errorf("update action: %w", err)
	}
	if out.Status.Terminal() {
		if err := x.Violations.AdvanceLevel(ctx, out.TenantID, out.ViolationID, out.Level); err != nil {
			// The engine repairs a lagging level pointer on its next pass.
			return out, fmt.Errorf("advance violation level: %w", err)
		}
	}
	return out, nil
}

func (x *EscalationActionExecutor) perform(parent context.Context, a domain.EscalationAction) (string, error) {
	ctx, cancel := context.WithTimeout(parent, x.timeout())
	defer cancel()

	switch a.ActionType {
	case domain.ActionNotify:
		return x.performNotify(ctx, a)
	case domain.ActionPageManager:
		return x.performPage(ctx, a)
	case domain.ActionReassign:
		return x.performReassign(ctx, a)
	case domain.ActionWebhook:
		return x.performWebhook(ctx, a)
	default:
		return "", fmt.Errorf("%w: unknown action type %q", domain.ErrInvalidAction, a.ActionType)
	}
}

func (x *EscalationActionExecutor) performNotify(ctx context.Context, a domain.EscalationAction) (string, error) {
	recipients := splitRecipients(a.ActionConfig["recipients"])
	if len(recipients) == 0 {
		return "", fmt.Errorf("%w: no recipients configured", domain.ErrInvalidAction)
	}
	message := a.ActionConfig["message"]
	if message == "" {
		message = "SLA violation escalation"
	}
	err := x.Notifier.Notify(ctx, Notification{
		TenantID:    a.TenantID,
		Recipients:  recipients,
		Title:       "SLA Violation Escalation",
		Message:     message,
		ViolationID: a.ViolationID,
		ActionID:    a.ID,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("notified %d recipients", len(recipients)), nil
}

func (x *EscalationActionExecutor) performPage(ctx context.Context, a domain.EscalationAction) (string, error) {
	target := strings.TrimSpace(a.ActionConfig["target"])
	if target == "" {
		return "", fmt.Errorf("%w: no page target configured", domain.ErrInvalidAction)
	}
	message := a.ActionConfig["message"]
	if message == "" {
		message = "SLA violation requires manager attention"
	}
	err := x.Notifier.Page(ctx, Page{
		TenantID:    a.TenantID,
		Target:      target,
		Message:     message,
		ViolationID: a.ViolationID,
		ActionID:    a.ID,
	})
	if err != nil {
		return "", err
	}
	return "paged " + target, nil
}

func (x *EscalationActionExecutor) performReassign(ctx context.Context, a domain.EscalationAction) (string, error) {
	assignee := strings.TrimSpace(a.ActionConfig["assigneeId"])
	if assignee == "" {
		return "", fmt.Errorf("%w: no assignee configured", domain.ErrInvalidAction)
	}
	v, err := x.Violations.GetByID(ctx, a.TenantID, a.ViolationID)
	if err != nil {
		return "", fmt.Errorf("load violation: %w", err)
	}
	if err := x.Tasks.Reassign(ctx, a.TenantID, v.TaskID, assignee); err != nil {
		return "", err
	}
	return "reassigned task to " + assignee, nil
}

func (x *EscalationActionExecutor) performWebhook(ctx context.Context, a domain.EscalationAction) (string, error) {
	url := strings.TrimSpace(a.ActionConfig["url"])
	if url == "" {
		return "", fmt.Errorf("%w: no webhook url configured", domain.ErrInvalidAction)
	}
	err := x.Webhooks.Call(ctx, url, WebhookPayload{
		ViolationID: a.ViolationID,
		ActionID:    a.ID,
		ActionType:  string(a.ActionType),
		Timestamp:   x.Now().UTC(),
		Config:      a.ActionConfig,
	})
	if err != nil {
		return "", err
	}
	return "webhook delivered", nil
}

func (x *EscalationActionExecutor) maxRetries() int {
	if x.MaxRetries <= 0 {
		return DefaultMaxRetries
	}
	return x.MaxRetries
}

func (x *EscalationActionExecutor) backoffBase() time.Duration {
	if x.BackoffBase <= 0 {
		return DefaultBackoffBase
	}
	return x.BackoffBase
}

func (x *EscalationActionExecutor) backoffCap() time.Duration {
	if x.BackoffCap <= 0 {
		return DefaultBackoffCap
	}
	return x.BackoffCap
}

func (x *EscalationActionExecutor) timeout() time.Duration {
	if x.Timeout <= 0 {
		return DefaultActionTimeout
	}
	return x.Timeout
}

func splitRecipients(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsConfigError reports whether the failure is a configuration problem
// rather than a transient one. Both follow the same retry path; this exists
// for operator-facing classification only.
func IsConfigError(err error) bool {
	return errors.Is(err, domain.ErrInvalidAction)
}
