package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vigil/internal/domain"
	"vigil/internal/usecase"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActionRepository struct {
	db *gorm.DB
}

func NewActionRepository(db *gorm.DB) *ActionRepository {
	return &ActionRepository{db: db}
}

func (r *ActionRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.EscalationAction, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model EscalationActionModel
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
	out := actionFromModel(model)
	return &out, nil
}

func (r *ActionRepository) Create(ctx context.Context, a domain.EscalationAction) (domain.EscalationAction, error) {
	if r.db == nil {
		return domain.EscalationAction{}, errDBUnavailable
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	model, err := actionToModel(a)
	if err != nil {
		return domain.EscalationAction{}, err
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.EscalationAction{}, err
	}
	return actionFromModel(model), nil
}

// Update refuses to overwrite an action that already reached a terminal
// status. The row is locked for the check so a concurrent executor cannot
// slip a second write in between.
func (r *ActionRepository) Update(ctx context.Context, a domain.EscalationAction) (domain.EscalationAction, error) {
	if r.db == nil {
		return domain.EscalationAction{}, errDBUnavailable
	}
	a.UpdatedAt = time.Now().UTC()
	model, err := actionToModel(a)
	if err != nil {
		return domain.EscalationAction{}, err
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current EscalationActionModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND tenant_id = ?", a.ID, a.TenantID).
			Take(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if domain.ActionStatus(current.Status).Terminal() {
			return domain.ErrActionTerminal
		}
		return tx.Model(&EscalationActionModel{}).
			Where("id = ?", a.ID).
			Select("*").Omit("id", "tenant_id", "violation_id", "created_at").
			Updates(&model).Error
	})
	if err != nil {
		return domain.EscalationAction{}, err
	}
	return actionFromModel(model), nil
}

func (r *ActionRepository) List(ctx context.Context, filter usecase.ActionFilter, page usecase.ListPage) ([]domain.EscalationAction, int64, error) {
	if r.db == nil {
		return nil, 0, errDBUnavailable
	}
	q := r.db.WithContext(ctx).Model(&EscalationActionModel{})
	if filter.TenantID != "" {
		q = q.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.ViolationID != "" {
		q = q.Where("violation_id = ?", filter.ViolationID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []EscalationActionModel
	if err := q.Order("created_at DESC").
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.EscalationAction, 0, len(models))
	for _, model := range models {
		out = append(out, actionFromModel(model))
	}
	return out, total, nil
}

func (r *ActionRepository) LatestForLevel(ctx context.Context, tenantID, violationID string, level int) (*domain.EscalationAction, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model EscalationActionModel
	q := r.db.WithContext(ctx).
		Where("violation_id = ? AND level = ?", violationID, level)
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	err := q.Order("created_at DESC").First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	out := actionFromModel(model)
	return &out, nil
}

func (r *ActionRepository) ListRunnable(ctx context.Context, tenantID string, now time.Time) ([]domain.EscalationAction, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []EscalationActionModel
	q := r.db.WithContext(ctx).
		Where("status = ? OR (status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?)",
			string(domain.ActionPending), string(domain.ActionFailed), now.UTC())
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	if err := q.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.EscalationAction, 0, len(models))
	for _, model := range models {
		out = append(out, actionFromModel(model))
	}
	return out, nil
}

func actionToModel(a domain.EscalationAction) (EscalationActionModel, error) {
	cfg, err := marshalConfig(a.ActionConfig)
	if err != nil {
		return EscalationActionModel{}, fmt.Errorf("marshal action config: %w", err)
	}
	return EscalationActionModel{
		ID:               a.ID,
		TenantID:         a.TenantID,
		ViolationID:      a.ViolationID,
		RuleID:           stringPtrIfNotEmpty(a.RuleID),
		Level:            a.Level,
		ActionType:       string(a.ActionType),
		ActionConfigJSON: cfg,
		ExecutedAt:       a.ExecutedAt,
		Status:           string(a.Status),
		Result:           a.Result,
		ErrorMessage:     a.ErrorMessage,
		RetryCount:       a.RetryCount,
		NextRetryAt:      a.NextRetryAt,
		CreatedAt:        a.CreatedAt.UTC(),
		UpdatedAt:        a.UpdatedAt.UTC(),
	}, nil
}

func actionFromModel(model EscalationActionModel) domain.EscalationAction {
	return domain.EscalationAction{
		ID:           model.ID,
		TenantID:     model.TenantID,
		ViolationID:  model.ViolationID,
		RuleID:       stringValue(model.RuleID),
		Level:        model.Level,
		ActionType:   domain.ActionType(model.ActionType),
		ActionConfig: unmarshalConfig(model.ActionConfigJSON),
		ExecutedAt:   model.ExecutedAt,
		Status:       domain.ActionStatus(model.Status),
		Result:       model.Result,
		ErrorMessage: model.ErrorMessage,
		RetryCount:   model.RetryCount,
		NextRetryAt:  model.NextRetryAt,
		CreatedAt:    model.CreatedAt.UTC(),
		UpdatedAt:    model.UpdatedAt.UTC(),
	}
}
