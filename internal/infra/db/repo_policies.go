package db

import (
	"context"
	"errors"
	"time"

	"vigil/internal/domain"
	"vigil/internal/usecase"

	"gorm.io/gorm"
)

type PolicyRepository struct {
	db *gorm.DB
}

func NewPolicyRepository(db *gorm.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

func (r *PolicyRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.SlaPolicy, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model SlaPolicyModel
	q := r.db.WithContext(ctx).Where("id = ? AND is_deleted = false", id)
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	if err := q.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	out := policyFromModel(model)
	return &out, nil
}

func (r *PolicyRepository) ListActive(ctx context.Context, tenantID string) ([]domain.SlaPolicy, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []SlaPolicyModel
	q := r.db.WithContext(ctx).Where("is_active = true AND is_deleted = false")
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	if err := q.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.SlaPolicy, 0, len(models))
	for _, model := range models {
		out = append(out, policyFromModel(model))
	}
	return out, nil
}

func (r *PolicyRepository) List(ctx context.Context, tenantID string, page usecase.ListPage) ([]domain.SlaPolicy, int64, error) {
	if r.db == nil {
		return nil, 0, errDBUnavailable
	}
	q := r.db.WithContext(ctx).Model(&SlaPolicyModel{}).Where("is_deleted = false")
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []SlaPolicyModel
	if err := q.Order("created_at DESC").
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.SlaPolicy, 0, len(models))
	for _, model := range models {
		out = append(out, policyFromModel(model))
	}
	return out, total, nil
}

func (r *PolicyRepository) Create(ctx context.Context, p domain.SlaPolicy) (domain.SlaPolicy, error) {
	if r.db == nil {
		return domain.SlaPolicy{}, errDBUnavailable
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	model := policyToModel(p)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.SlaPolicy{}, err
	}
	return policyFromModel(model), nil
}

func (r *PolicyRepository) Update(ctx context.Context, p domain.SlaPolicy) (domain.SlaPolicy, error) {
	if r.db == nil {
		return domain.SlaPolicy{}, errDBUnavailable
	}
	p.UpdatedAt = time.Now().UTC()
	model := policyToModel(p)
	res := r.db.WithContext(ctx).
		Model(&SlaPolicyModel{}).
		Where("id = ? AND tenant_id = ? AND is_deleted = false", p.ID, p.TenantID).
		Select("*").Omit("id", "tenant_id", "created_at").
		Updates(&model)
	if res.Error != nil {
		return domain.SlaPolicy{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.SlaPolicy{}, domain.ErrNotFound
	}
	return r.fetch(ctx, p.TenantID, p.ID)
}

func (r *PolicyRepository) SoftDelete(ctx context.Context, tenantID, id string) error {
	if r.db == nil {
		return errDBUnavailable
	}
	res := r.db.WithContext(ctx).
		Model(&SlaPolicyModel{}).
		Where("id = ? AND tenant_id = ? AND is_deleted = false", id, tenantID).
		Updates(map[string]any{"is_deleted": true, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PolicyRepository) fetch(ctx context.Context, tenantID, id string) (domain.SlaPolicy, error) {
	out, err := r.GetByID(ctx, tenantID, id)
	if err != nil {
		return domain.SlaPolicy{}, err
	}
	return *out, nil
}

func policyToModel(p domain.SlaPolicy) SlaPolicyModel {
	return SlaPolicyModel{
		ID:                  p.ID,
		TenantID:            p.TenantID,
		Name:                p.Name,
		Description:         p.Description,
		TaskType:            p.TaskType,
		Priority:            p.Priority,
		ResponseTimeHours:   p.ResponseTimeHours,
		ResolutionTimeHours: p.ResolutionTimeHours,
		CalendarID:          stringPtrIfNotEmpty(p.CalendarID),
		IsActive:            p.IsActive,
		IsDeleted:           p.IsDeleted,
		CreatedAt:           p.CreatedAt.UTC(),
		UpdatedAt:           p.UpdatedAt.UTC(),
	}
}

func policyFromModel(model SlaPolicyModel) domain.SlaPolicy {
	return domain.SlaPolicy{
		ID:                  model.ID,
		TenantID:            model.TenantID,
		Name:                model.Name,
		Description:         model.Description,
		TaskType:            model.TaskType,
		Priority:            model.Priority,
		ResponseTimeHours:   model.ResponseTimeHours,
		ResolutionTimeHours: model.ResolutionTimeHours,
		CalendarID:          stringValue(model.CalendarID),
		IsActive:            model.IsActive,
		IsDeleted:           model.IsDeleted,
		CreatedAt:           model.CreatedAt.UTC(),
		UpdatedAt:           model.UpdatedAt.UTC(),
	}
}
