package usecase

import (
	"context"
	"time"

	"vigil/internal/domain"
)

// ListPage is the common pagination input for operator listings.
type ListPage struct {
	Page     int
	PageSize int
}

func (p ListPage) Normalize() ListPage {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > 200 {
		p.PageSize = 10
	}
	return p
}

func (p ListPage) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type PolicyRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.SlaPolicy, error)
	ListActive(ctx context.Context, tenantID string) ([]domain.SlaPolicy, error)
	List(ctx context.Context, tenantID string, page ListPage) ([]domain.SlaPolicy, int64, error)
	Create(ctx context.Context, p domain.SlaPolicy) (domain.SlaPolicy, error)
	Update(ctx context.Context, p domain.SlaPolicy) (domain.SlaPolicy, error)
	SoftDelete(ctx context.Context, tenantID, id string) error
}

type RuleRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.EscalationRule, error)
	ListByPolicy(ctx context.Context, tenantID, policyID string) ([]domain.EscalationRule, error)
	Create(ctx context.Context, r domain.EscalationRule) (domain.EscalationRule, error)
	Update(ctx context.Context, r domain.EscalationRule) (domain.EscalationRule, error)
	SoftDelete(ctx context.Context, tenantID, id string) error
}

type CalendarRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.BusinessCalendar, error)
	List(ctx context.Context, tenantID string, page ListPage) ([]domain.BusinessCalendar, int64, error)
	Create(ctx context.Context, c domain.BusinessCalendar) (domain.BusinessCalendar, error)
	Update(ctx context.Context, c domain.BusinessCalendar) (domain.BusinessCalendar, error)
}

type ViolationFilter struct {
	TenantID string
	PolicyID string
	TaskID   string
	Status   domain.ViolationStatus
}

type ViolationRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.SlaViolation, error)
	// CreateIfAbsent inserts the violation unless an Open violation for the
	// same (task, violation type) already exists. The check and insert are
	// atomic in the store; created reports whether a row was written.
	CreateIfAbsent(ctx context.Context, v domain.SlaViolation) (created bool, out domain.SlaViolation, err error)
	ListOpen(ctx context.Context, tenantID string) ([]domain.SlaViolation, error)
	List(ctx context.Context, filter ViolationFilter, page ListPage) ([]domain.SlaViolation, int64, error)
	Resolve(ctx context.Context, tenantID, id, resolution string, at time.Time) error
	// AdvanceLevel raises currentEscalationLevel to level; lowering is a
	// no-op in the store.
	AdvanceLevel(ctx context.Context, tenantID, id string, level int) error
}

type ActionFilter struct {
	TenantID    string
	ViolationID string
	Status      domain.ActionStatus
}

type ActionRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.EscalationAction, error)
	Create(ctx context.Context, a domain.EscalationAction) (domain.EscalationAction, error)
	Update(ctx context.Context, a domain.EscalationAction) (domain.EscalationAction, error)
	List(ctx context.Context, filter ActionFilter, page ListPage) ([]domain.EscalationAction, int64, error)
	// LatestForLevel returns the most recent action dispatched for the given
	// violation and escalation level, or nil.
	LatestForLevel(ctx context.Context, tenantID, violationID string, level int) (*domain.EscalationAction, error)
	// ListRunnable returns Pending actions plus Failed actions whose
	// nextRetryAt has passed.
	ListRunnable(ctx context.Context, tenantID string, now time.Time) ([]domain.EscalationAction, error)
}

// TaskSource is the engine's view of the task collaborator.
type TaskSource interface {
	GetByID(ctx context.Context, tenantID, id string) (*domain.Task, error)
	// ListOpen returns tasks that are not yet closed.
	ListOpen(ctx context.Context, tenantID string) ([]domain.Task, error)
	Reassign(ctx context.Context, tenantID, taskID, assigneeID string) error
}

type Notification struct {
	TenantID    string
	Recipients  []string
	Title       string
	Message     string
	ViolationID string
	ActionID    string
}

type Page struct {
	TenantID    string
	Target      string
	Message     string
	ViolationID string
	ActionID    string
}

// Notifier delivers outbound notifications and pages. Implementations call
// the surrounding notification service.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
	Page(ctx context.Context, p Page) error
}

type WebhookPayload struct {
	ViolationID string            `json:"violation_id"`
	ActionID    string            `json:"action_id"`
	ActionType  string            `json:"action_type"`
	Timestamp   time.Time         `json:"timestamp"`
	Config      map[string]string `json:"config,omitempty"`
}

type WebhookCaller interface {
	Call(ctx context.Context, url string, payload WebhookPayload) error
}
