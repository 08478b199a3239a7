package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vigil/internal/domain"

	"gorm.io/gorm"
)

type RuleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

func (r *RuleRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.EscalationRule, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model EscalationRuleModel
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
	out := ruleFromModel(model)
	return &out, nil
}

func (r *RuleRepository) ListByPolicy(ctx context.Context, tenantID, policyID string) ([]domain.EscalationRule, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []EscalationRuleModel
	q := r.db.WithContext(ctx).Where("policy_id = ? AND is_deleted = false", policyID)
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	if err := q.Order("level ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.EscalationRule, 0, len(models))
	for _, model := range models {
		out = append(out, ruleFromModel(model))
	}
	return out, nil
}

func (r *RuleRepository) Create(ctx context.Context, rule domain.EscalationRule) (domain.EscalationRule, error) {
	if r.db == nil {
		return domain.EscalationRule{}, errDBUnavailable
	}
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now
	model, err := ruleToModel(rule)
	if err != nil {
		return domain.EscalationRule{}, err
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.EscalationRule{}, err
	}
	return ruleFromModel(model), nil
}

func (r *RuleRepository) Update(ctx context.Context, rule domain.EscalationRule) (domain.EscalationRule, error) {
	if r.db == nil {
		return domain.EscalationRule{}, errDBUnavailable
	}
	rule.UpdatedAt = time.Now().UTC()
	model, err := ruleToModel(rule)
	if err != nil {
		return domain.EscalationRule{}, err
	}
	res := r.db.WithContext(ctx).
		Model(&EscalationRuleModel{}).
		Where("id = ? AND tenant_id = ? AND is_deleted = false", rule.ID, rule.TenantID).
		Select("*").Omit("id", "tenant_id", "created_at").
		Updates(&model)
	if res.Error != nil {
		return domain.EscalationRule{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.EscalationRule{}, domain.ErrNotFound
	}
	out, err := r.GetByID(ctx, rule.TenantID, rule.ID)
	if err != nil {
		return domain.EscalationRule{}, err
	}
	return *out, nil
}

func (r *RuleRepository) SoftDelete(ctx context.Context, tenantID, id string) error {
	if r.db == nil {
		return errDBUnavailable
	}
	res := r.db.WithContext(ctx).
		Model(&EscalationRuleModel{}).
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

func ruleToModel(rule domain.EscalationRule) (EscalationRuleModel, error) {
	cfg, err := marshalConfig(rule.ActionConfig)
	if err != nil {
		return EscalationRuleModel{}, fmt.Errorf("marshal action config: %w", err)
	}
	return EscalationRuleModel{
		ID:                  rule.ID,
		TenantID:            rule.TenantID,
		PolicyID:            rule.PolicyID,
		Level:               rule.Level,
		TriggerAfterMinutes: rule.TriggerAfterMinutes,
		ActionType:          string(rule.ActionType),
		ActionConfigJSON:    cfg,
		IsActive:            rule.IsActive,
		IsDeleted:           rule.IsDeleted,
		CreatedAt:           rule.CreatedAt.UTC(),
		UpdatedAt:           rule.UpdatedAt.UTC(),
	}, nil
}

func ruleFromModel(model EscalationRuleModel) domain.EscalationRule {
	return domain.EscalationRule{
		ID:                  model.ID,
		TenantID:            model.TenantID,
		PolicyID:            model.PolicyID,
		Level:               model.Level,
		TriggerAfterMinutes: model.TriggerAfterMinutes,
		ActionType:          domain.ActionType(model.ActionType),
		ActionConfig:        unmarshalConfig(model.ActionConfigJSON),
		IsActive:            model.IsActive,
		IsDeleted:           model.IsDeleted,
		CreatedAt:           model.CreatedAt.UTC(),
		UpdatedAt:           model.UpdatedAt.UTC(),
	}
}
