package db

import (
	"context"
	"errors"
	"time"

	"vigil/internal/domain"
	"vigil/internal/usecase"

	"gorm.io/gorm"
)

type ViolationRepository struct {
	db *gorm.DB
}

func NewViolationRepository(db *gorm.DB) *ViolationRepository {
	return &ViolationRepository{db: db}
}

func (r *ViolationRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.SlaViolation, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model SlaViolationModel
	q := r.db.WithContext(ctx).Where("id = ?", id)
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	if err := q.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	out := violationFromModel(model)
	return &out, nil
}

// CreateIfAbsent relies on the partial unique index over
// (tenant_id, task_id, violation_type) for rows with status Open. The insert
// is a no-op on conflict, and the existing open row is returned instead.
func (r *ViolationRepository) CreateIfAbsent(ctx context.Context, v domain.SlaViolation) (bool, domain.SlaViolation, error) {
	if r.db == nil {
		return false, domain.SlaViolation{}, errDBUnavailable
	}
	now := time.Now().UTC()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now
	var created bool
	var out domain.SlaViolation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(
			"INSERT INTO sla_violations (id, tenant_id, policy_id, task_id, violation_type, violation_time, status, resolution, resolved_time, current_escalation_level, created_at, updated_at) "+
				"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) "+
				"ON CONFLICT (tenant_id, task_id, violation_type) WHERE status = 'Open' DO NOTHING",
			v.ID, v.TenantID, v.PolicyID, v.TaskID, string(v.ViolationType), v.ViolationTime.UTC(),
			string(domain.ViolationOpen), v.Resolution, v.ResolvedTime, v.CurrentEscalationLevel,
			v.CreatedAt, v.UpdatedAt,
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			created = true
			v.Status = domain.ViolationOpen
			out = v
			return nil
		}
		var existing SlaViolationModel
		if err := tx.
			Where("tenant_id = ? AND task_id = ? AND violation_type = ? AND status = ?",
				v.TenantID, v.TaskID, string(v.ViolationType), string(domain.ViolationOpen)).
			First(&existing).Error; err != nil {
			return err
		}
		out = violationFromModel(existing)
		return nil
	})
	if err != nil {
		return false, domain.SlaViolation{}, err
	}
	return created, out, nil
}

func (r *ViolationRepository) ListOpen(ctx context.Context, tenantID string) ([]domain.SlaViolation, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []SlaViolationModel
	q := r.db.WithContext(ctx).Where("status = ?", string(domain.ViolationOpen))
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	if err := q.Order("violation_time ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.SlaViolation, 0, len(models))
	for _, model := range models {
		out = append(out, violationFromModel(model))
	}
	return out, nil
}

func (r *ViolationRepository) List(ctx context.Context, filter usecase.ViolationFilter, page usecase.ListPage) ([]domain.SlaViolation, int64, error) {
	if r.db == nil {
		return nil, 0, errDBUnavailable
	}
	q := r.db.WithContext(ctx).Model(&SlaViolationModel{})
	if filter.TenantID != "" {
		q = q.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.PolicyID != "" {
		q = q.Where("policy_id = ?", filter.PolicyID)
	}
	if filter.TaskID != "" {
		q = q.Where("task_id = ?", filter.TaskID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []SlaViolationModel
	if err := q.Order("violation_time DESC").
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.SlaViolation, 0, len(models))
	for _, model := range models {
		out = append(out, violationFromModel(model))
	}
	return out, total, nil
}

func (r *ViolationRepository) Resolve(ctx context.Context, tenantID, id, resolution string, at time.Time) error {
	if r.db == nil {
		return errDBUnavailable
	}
	res := r.db.WithContext(ctx).
		Model(&SlaViolationModel{}).
		Where("id = ? AND tenant_id = ? AND status = ?", id, tenantID, string(domain.ViolationOpen)).
		Updates(map[string]any{
			"status":        string(domain.ViolationResolved),
			"resolution":    resolution,
			"resolved_time": at.UTC(),
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AdvanceLevel only ever raises the pointer; a lower level is a no-op, not
// an error, so repeated engine cycles stay idempotent.
func (r *ViolationRepository) AdvanceLevel(ctx context.Context, tenantID, id string, level int) error {
	if r.db == nil {
		return errDBUnavailable
	}
	res := r.db.WithContext(ctx).Exec(
		"UPDATE sla_violations SET current_escalation_level = ?, updated_at = ? "+
			"WHERE id = ? AND tenant_id = ? AND current_escalation_level < ?",
		level, time.Now().UTC(), id, tenantID, level,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&SlaViolationModel{}).
			Where("id = ? AND tenant_id = ?", id, tenantID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrNotFound
		}
	}
	return nil
}

func violationFromModel(model SlaViolationModel) domain.SlaViolation {
	var resolved *time.Time
	if model.ResolvedTime != nil {
		t := model.ResolvedTime.UTC()
		resolved = &t
	}
	return domain.SlaViolation{
		ID:                     model.ID,
		TenantID:               model.TenantID,
		PolicyID:               model.PolicyID,
		TaskID:                 model.TaskID,
		ViolationType:          domain.ViolationType(model.ViolationType),
		ViolationTime:          model.ViolationTime.UTC(),
		Status:                 domain.ViolationStatus(model.Status),
		Resolution:             model.Resolution,
		ResolvedTime:           resolved,
		CurrentEscalationLevel: model.CurrentEscalationLevel,
		CreatedAt:              model.CreatedAt.UTC(),
		UpdatedAt:              model.UpdatedAt.UTC(),
	}
}
