package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vigil/internal/domain"
)

// ViolationDetector is a periodic batch job that maintains SlaViolation
// state: it opens a violation when a deadline has passed and resolves open
// violations whose task has left the awaiting state. It performs no
// escalation. Runs are idempotent: the store's uniqueness constraint on
// (task, type, Open) makes duplicate and concurrent runs safe.
type ViolationDetector struct {
	Tasks      TaskSource
	Violations ViolationRepository
	Deadlines  *DeadlineCalculator
	Now        func() time.Time

	// BatchLimit caps tasks examined per run; zero means no cap. Tasks past
	// the cap are picked up by the next run.
	BatchLimit int
}

type DetectorResult struct {
	TasksScanned  int
	Created       int
	Resolved      int
	Skipped       int
	ItemErrors    []string
}

func NewViolationDetector(tasks TaskSource, violations ViolationRepository, deadlines *DeadlineCalculator) *ViolationDetector {
	return &ViolationDetector{
		Tasks:      tasks,
		Violations: violations,
		Deadlines:  deadlines,
		Now:        time.Now,
	}
}

// Run executes one detection pass for the tenant (empty tenantID scans all).
// Per-item failures are recorded and skipped; a store-level failure aborts
// the run. Cancellation between items leaves committed work valid.
func (d *ViolationDetector) Run(ctx context.Context, tenantID string) (DetectorResult, error) {
	var res DetectorResult
	now := d.Now().UTC()

	// Close out violations whose task is no longer awaiting the measured
	// phase. This runs first so a task resolved since the last pass does not
	// stay escalatable.
	open, err := d.Violations.ListOpen(ctx, tenantID)
	if err != nil {
		return res, fmt.Errorf("list open violations: %w", err)
	}
	for _, v := range open {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		task, err := d.Tasks.GetByID(ctx, v.TenantID, v.TaskID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				res.Skipped++
				res.ItemErrors = append(res.ItemErrors, fmt.Sprintf("violation %s: task %s missing", v.ID, v.TaskID))
				continue
			}
			return res, fmt.Errorf("load task %s: %w", v.TaskID, err)
		}
		if task.Awaiting(v.ViolationType) {
			continue
		}
		if err := d.Violations.Resolve(ctx, v.TenantID, v.ID, "task left awaiting state", now); err != nil {
			res.Skipped++
			res.ItemErrors = append(res.ItemErrors, fmt.Sprintf("resolve violation %s: %v", v.ID, err))
			continue
		}
		res.Resolved++
	}

	tasks, err := d.Tasks.ListOpen(ctx, tenantID)
	if err != nil {
		return res, fmt.Errorf("list open tasks: %w", err)
	}
	if d.BatchLimit > 0 && len(tasks) > d.BatchLimit {
		tasks = tasks[:d.BatchLimit]
	}
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.TasksScanned++
		deadlines, err := d.Deadlines.Deadlines(ctx, task)
		if err != nil {
			if errors.Is(err, domain.ErrPolicyNotFound) {
				// No SLA applies to this task.
				continue
			}
			res.Skipped++
			res.ItemErrors = append(res.ItemErrors, fmt.Sprintf("task %s: %v", task.ID, err))
			continue
		}
		for _, check := range []struct {
			vtype    domain.ViolationType
			deadline time.Time
		}{
			{domain.ViolationResponseTime, deadlines.Response},
			{domain.ViolationResolutionTime, deadlines.Resolution},
		} {
			if !task.Awaiting(check.vtype) || !now.After(check.deadline) {
				continue
			}
			created, _, err := d.Violations.CreateIfAbsent(ctx, domain.SlaViolation{
				ID:            uuid.NewString(),
				TenantID:      task.TenantID,
				PolicyID:      deadlines.Policy.ID,
				TaskID:        task.ID,
				ViolationType: check.vtype,
				// Detection is polling-based, so the breach is stamped at
				// detection time, not at the deadline instant.
				ViolationTime: now,
				Status:        domain.ViolationOpen,
			})
			if err != nil {
				res.Skipped++
				res.ItemErrors = append(res.ItemErrors, fmt.Sprintf("task %s %s: %v", task.ID, check.vtype, err))
				continue
			}
			if created {
				res.Created++
			}
		}
	}
	return res, nil
}
