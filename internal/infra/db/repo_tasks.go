package db

import (
	"context"
	"errors"
	"time"

	"vigil/internal/domain"

	"gorm.io/gorm"
)

// TaskRepository is the task collaborator's read model. Task rows are synced
// in from the owning system; only the assignee is ever written back, for
// Reassign actions.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Task, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model TaskModel
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
	out := taskFromModel(model)
	return &out, nil
}

func (r *TaskRepository) ListOpen(ctx context.Context, tenantID string) ([]domain.Task, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []TaskModel
	q := r.db.WithContext(ctx).
		Where("status NOT IN ?", []string{string(domain.TaskStatusCompleted), string(domain.TaskStatusCancelled)})
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	if err := q.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Task, 0, len(models))
	for _, model := range models {
		out = append(out, taskFromModel(model))
	}
	return out, nil
}

func (r *TaskRepository) Reassign(ctx context.Context, tenantID, taskID, assigneeID string) error {
	if r.db == nil {
		return errDBUnavailable
	}
	res := r.db.WithContext(ctx).
		Model(&TaskModel{}).
		Where("id = ? AND tenant_id = ?", taskID, tenantID).
		Updates(map[string]any{"assignee_id": assigneeID, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Upsert refreshes the read model from the owning system's task feed.
func (r *TaskRepository) Upsert(ctx context.Context, t domain.Task) error {
	if r.db == nil {
		return errDBUnavailable
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	model := TaskModel{
		ID:         t.ID,
		TenantID:   t.TenantID,
		Type:       t.Type,
		Priority:   t.Priority,
		Status:     string(t.Status),
		AssigneeID: t.AssigneeID,
		CreatedAt:  t.CreatedAt.UTC(),
		UpdatedAt:  t.UpdatedAt.UTC(),
	}
	return r.db.WithContext(ctx).Exec(
		"INSERT INTO tasks (id, tenant_id, type, priority, status, assignee_id, created_at, updated_at) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?) "+
			"ON CONFLICT (id) DO UPDATE SET type = EXCLUDED.type, priority = EXCLUDED.priority, "+
			"status = EXCLUDED.status, assignee_id = EXCLUDED.assignee_id, updated_at = EXCLUDED.updated_at",
		model.ID, model.TenantID, model.Type, model.Priority, model.Status, model.AssigneeID,
		model.CreatedAt, model.UpdatedAt,
	).Error
}

func taskFromModel(model TaskModel) domain.Task {
	return domain.Task{
		ID:         model.ID,
		TenantID:   model.TenantID,
		Type:       model.Type,
		Priority:   model.Priority,
		Status:     domain.TaskStatus(model.Status),
		AssigneeID: model.AssigneeID,
		CreatedAt:  model.CreatedAt.UTC(),
		UpdatedAt:  model.UpdatedAt.UTC(),
	}
}
