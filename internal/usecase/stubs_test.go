package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"vigil/internal/domain"
)

type stubPolicyRepo struct {
	policies []domain.SlaPolicy
}

func (r *stubPolicyRepo) GetByID(_ context.Context, tenantID, id string) (*domain.SlaPolicy, error) {
	for _, p := range r.policies {
		if p.ID == id && (tenantID == "" || p.TenantID == tenantID) && !p.IsDeleted {
			out := p
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubPolicyRepo) ListActive(_ context.Context, tenantID string) ([]domain.SlaPolicy, error) {
	var out []domain.SlaPolicy
	for _, p := range r.policies {
		if p.IsActive && !p.IsDeleted && (tenantID == "" || p.TenantID == tenantID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubPolicyRepo) List(_ context.Context, tenantID string, page ListPage) ([]domain.SlaPolicy, int64, error) {
	return r.policies, int64(len(r.policies)), nil
}

func (r *stubPolicyRepo) Create(_ context.Context, p domain.SlaPolicy) (domain.SlaPolicy, error) {
	r.policies = append(r.policies, p)
	return p, nil
}

func (r *stubPolicyRepo) Update(_ context.Context, p domain.SlaPolicy) (domain.SlaPolicy, error) {
	for i := range r.policies {
		if r.policies[i].ID == p.ID {
			r.policies[i] = p
			return p, nil
		}
	}
	return domain.SlaPolicy{}, domain.ErrNotFound
}

func (r *stubPolicyRepo) SoftDelete(_ context.Context, tenantID, id string) error {
	for i := range r.policies {
		if r.policies[i].ID == id {
			r.policies[i].IsDeleted = true
			return nil
		}
	}
	return domain.ErrNotFound
}

type stubRuleRepo struct {
	rules []domain.EscalationRule
}

func (r *stubRuleRepo) GetByID(_ context.Context, tenantID, id string) (*domain.EscalationRule, error) {
	for _, rule := range r.rules {
		if rule.ID == id && !rule.IsDeleted {
			out := rule
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubRuleRepo) ListByPolicy(_ context.Context, tenantID, policyID string) ([]domain.EscalationRule, error) {
	var out []domain.EscalationRule
	for _, rule := range r.rules {
		if rule.PolicyID == policyID && !rule.IsDeleted {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r *stubRuleRepo) Create(_ context.Context, rule domain.EscalationRule) (domain.EscalationRule, error) {
	r.rules = append(r.rules, rule)
	return rule, nil
}

func (r *stubRuleRepo) Update(_ context.Context, rule domain.EscalationRule) (domain.EscalationRule, error) {
	for i := range r.rules {
		if r.rules[i].ID == rule.ID {
			r.rules[i] = rule
			return rule, nil
		}
	}
	return domain.EscalationRule{}, domain.ErrNotFound
}

func (r *stubRuleRepo) SoftDelete(_ context.Context, tenantID, id string) error {
	for i := range r.rules {
		if r.rules[i].ID == id {
			r.rules[i].IsDeleted = true
			return nil
		}
	}
	return domain.ErrNotFound
}

type stubCalendarRepo struct {
	calendars map[string]domain.BusinessCalendar
}

func (r *stubCalendarRepo) GetByID(_ context.Context, tenantID, id string) (*domain.BusinessCalendar, error) {
	if c, ok := r.calendars[id]; ok {
		out := c
		return &out, nil
	}
	return nil, domain.ErrNotFound
}

func (r *stubCalendarRepo) List(_ context.Context, tenantID string, page ListPage) ([]domain.BusinessCalendar, int64, error) {
	var out []domain.BusinessCalendar
	for _, c := range r.calendars {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (r *stubCalendarRepo) Create(_ context.Context, c domain.BusinessCalendar) (domain.BusinessCalendar, error) {
	if r.calendars == nil {
		r.calendars = map[string]domain.BusinessCalendar{}
	}
	r.calendars[c.ID] = c
	return c, nil
}

func (r *stubCalendarRepo) Update(_ context.Context, c domain.BusinessCalendar) (domain.BusinessCalendar, error) {
	r.calendars[c.ID] = c
	return c, nil
}

type stubViolationRepo struct {
	mu    sync.Mutex
	items map[string]*domain.SlaViolation
	seq   int
}

func newStubViolationRepo() *stubViolationRepo {
	return &stubViolationRepo{items: map[string]*domain.SlaViolation{}}
}

func (r *stubViolationRepo) GetByID(_ context.Context, tenantID, id string) (*domain.SlaViolation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.items[id]; ok {
		out := *v
		return &out, nil
	}
	return nil, domain.ErrNotFound
}

func (r *stubViolationRepo) CreateIfAbsent(_ context.Context, v domain.SlaViolation) (bool, domain.SlaViolation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.TaskID == v.TaskID && existing.ViolationType == v.ViolationType && existing.Status == domain.ViolationOpen {
			return false, *existing, nil
		}
	}
	stored := v
	r.items[v.ID] = &stored
	return true, stored, nil
}

func (r *stubViolationRepo) ListOpen(_ context.Context, tenantID string) ([]domain.SlaViolation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SlaViolation
	for _, v := range r.items {
		if v.Status == domain.ViolationOpen && (tenantID == "" || v.TenantID == tenantID) {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubViolationRepo) List(_ context.Context, filter ViolationFilter, page ListPage) ([]domain.SlaViolation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SlaViolation
	for _, v := range r.items {
		if filter.Status != "" && v.Status != filter.Status {
			continue
		}
		if filter.TaskID != "" && v.TaskID != filter.TaskID {
			continue
		}
		out = append(out, *v)
	}
	return out, int64(len(out)), nil
}

func (r *stubViolationRepo) Resolve(_ context.Context, tenantID, id, resolution string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	v.Status = domain.ViolationResolved
	v.Resolution = resolution
	v.ResolvedTime = &at
	return nil
}

func (r *stubViolationRepo) AdvanceLevel(_ context.Context, tenantID, id string, level int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	if level > v.CurrentEscalationLevel {
		v.CurrentEscalationLevel = level
	}
	return nil
}

func (r *stubViolationRepo) single() domain.SlaViolation {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.items {
		return *v
	}
	return domain.SlaViolation{}
}

type stubActionRepo struct {
	mu    sync.Mutex
	items []*domain.EscalationAction
}

func (r *stubActionRepo) GetByID(_ context.Context, tenantID, id string) (*domain.EscalationAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.items {
		if a.ID == id {
			out := *a
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubActionRepo) Create(_ context.Context, a domain.EscalationAction) (domain.EscalationAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := a
	r.items = append(r.items, &stored)
	return stored, nil
}

func (r *stubActionRepo) Update(_ context.Context, a domain.EscalationAction) (domain.EscalationAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.items {
		if existing.ID == a.ID {
			if existing.Status.Terminal() {
				return *existing, domain.ErrActionTerminal
			}
			stored := a
			r.items[i] = &stored
			return stored, nil
		}
	}
	return domain.EscalationAction{}, domain.ErrNotFound
}

func (r *stubActionRepo) List(_ context.Context, filter ActionFilter, page ListPage) ([]domain.EscalationAction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.EscalationAction
	for _, a := range r.items {
		if filter.ViolationID != "" && a.ViolationID != filter.ViolationID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, *a)
	}
	return out, int64(len(out)), nil
}

func (r *stubActionRepo) LatestForLevel(_ context.Context, tenantID, violationID string, level int) (*domain.EscalationAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.items) - 1; i >= 0; i-- {
		a := r.items[i]
		if a.ViolationID == violationID && a.Level == level {
			out := *a
			return &out, nil
		}
	}
	return nil, nil
}

func (r *stubActionRepo) ListRunnable(_ context.Context, tenantID string, now time.Time) ([]domain.EscalationAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.EscalationAction
	for _, a := range r.items {
		if a.Status == domain.ActionPending || a.DueForRetry(now) {
			out = append(out, *a)
		}
	}
	return out, nil
}

type stubTaskSource struct {
	tasks      map[string]domain.Task
	reassigned map[string]string
}

func newStubTaskSource(tasks ...domain.Task) *stubTaskSource {
	s := &stubTaskSource{tasks: map[string]domain.Task{}, reassigned: map[string]string{}}
	for _, t := range tasks {
		s.tasks[t.ID] = t
	}
	return s
}

func (s *stubTaskSource) GetByID(_ context.Context, tenantID, id string) (*domain.Task, error) {
	if t, ok := s.tasks[id]; ok {
		return &t, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubTaskSource) ListOpen(_ context.Context, tenantID string) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range s.tasks {
		if !t.Closed() && (tenantID == "" || t.TenantID == tenantID) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubTaskSource) Reassign(_ context.Context, tenantID, taskID, assigneeID string) error {
	t, ok := s.tasks[taskID]
	if !ok {
		return domain.ErrNotFound
	}
	t.AssigneeID = assigneeID
	s.tasks[taskID] = t
	s.reassigned[taskID] = assigneeID
	return nil
}

type stubNotifier struct {
	notifies []Notification
	pages    []Page
	err      error
}

func (n *stubNotifier) Notify(_ context.Context, note Notification) error {
	if n.err != nil {
		return n.err
	}
	n.notifies = append(n.notifies, note)
	return nil
}

func (n *stubNotifier) Page(_ context.Context, p Page) error {
	if n.err != nil {
		return n.err
	}
	n.pages = append(n.pages, p)
	return nil
}

type stubWebhookCaller struct {
	calls []WebhookPayload
	err   error
}

func (w *stubWebhookCaller) Call(_ context.Context, url string, payload WebhookPayload) error {
	if w.err != nil {
		return w.err
	}
	w.calls = append(w.calls, payload)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
