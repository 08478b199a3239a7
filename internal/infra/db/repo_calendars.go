package db

import (
	"context"
	"errors"
	"time"

	"vigil/internal/domain"
	"vigil/internal/usecase"

	"gorm.io/gorm"
)

type CalendarRepository struct {
	db *gorm.DB
}

func NewCalendarRepository(db *gorm.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

func (r *CalendarRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.BusinessCalendar, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model BusinessCalendarModel
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
	holidays, err := r.holidaysFor(ctx, model.ID)
	if err != nil {
		return nil, err
	}
	out := calendarFromModel(model, holidays)
	return &out, nil
}

func (r *CalendarRepository) List(ctx context.Context, tenantID string, page usecase.ListPage) ([]domain.BusinessCalendar, int64, error) {
	if r.db == nil {
		return nil, 0, errDBUnavailable
	}
	q := r.db.WithContext(ctx).Model(&BusinessCalendarModel{})
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []BusinessCalendarModel
	if err := q.Order("created_at DESC").
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.BusinessCalendar, 0, len(models))
	for _, model := range models {
		holidays, err := r.holidaysFor(ctx, model.ID)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, calendarFromModel(model, holidays))
	}
	return out, total, nil
}

func (r *CalendarRepository) Create(ctx context.Context, c domain.BusinessCalendar) (domain.BusinessCalendar, error) {
	if r.db == nil {
		return domain.BusinessCalendar{}, errDBUnavailable
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := calendarToModel(c)
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		for _, h := range c.Holidays {
			hm := holidayToModel(h)
			if err := tx.Create(&hm).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.BusinessCalendar{}, err
	}
	return c, nil
}

// Update replaces the calendar row and its holiday set in one transaction.
func (r *CalendarRepository) Update(ctx context.Context, c domain.BusinessCalendar) (domain.BusinessCalendar, error) {
	if r.db == nil {
		return domain.BusinessCalendar{}, errDBUnavailable
	}
	c.UpdatedAt = time.Now().UTC()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := calendarToModel(c)
		res := tx.Model(&BusinessCalendarModel{}).
			Where("id = ? AND tenant_id = ?", c.ID, c.TenantID).
			Select("*").Omit("id", "tenant_id", "created_at").
			Updates(&model)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		if err := tx.Where("calendar_id = ?", c.ID).Delete(&HolidayModel{}).Error; err != nil {
			return err
		}
		for _, h := range c.Holidays {
			hm := holidayToModel(h)
			if err := tx.Create(&hm).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.BusinessCalendar{}, err
	}
	return c, nil
}

func (r *CalendarRepository) holidaysFor(ctx context.Context, calendarID string) ([]domain.Holiday, error) {
	var models []HolidayModel
	if err := r.db.WithContext(ctx).
		Where("calendar_id = ?", calendarID).
		Order("date ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Holiday, 0, len(models))
	for _, model := range models {
		out = append(out, holidayFromModel(model))
	}
	return out, nil
}

func calendarToModel(c domain.BusinessCalendar) BusinessCalendarModel {
	return BusinessCalendarModel{
		ID:                  c.ID,
		TenantID:            c.TenantID,
		Name:                c.Name,
		Description:         c.Description,
		Timezone:            c.Timezone,
		WorkDayStartMinutes: int(c.WorkDayStart / time.Minute),
		WorkDayEndMinutes:   int(c.WorkDayEnd / time.Minute),
		WorkDays:            weekdaysToCSV(c.WorkDays),
		IsDefault:           c.IsDefault,
		IsActive:            c.IsActive,
		CreatedAt:           c.CreatedAt.UTC(),
		UpdatedAt:           c.UpdatedAt.UTC(),
	}
}

func calendarFromModel(model BusinessCalendarModel, holidays []domain.Holiday) domain.BusinessCalendar {
	return domain.BusinessCalendar{
		ID:           model.ID,
		TenantID:     model.TenantID,
		Name:         model.Name,
		Description:  model.Description,
		Timezone:     model.Timezone,
		WorkDayStart: time.Duration(model.WorkDayStartMinutes) * time.Minute,
		WorkDayEnd:   time.Duration(model.WorkDayEndMinutes) * time.Minute,
		WorkDays:     weekdaysFromCSV(model.WorkDays),
		IsDefault:    model.IsDefault,
		IsActive:     model.IsActive,
		Holidays:     holidays,
		CreatedAt:    model.CreatedAt.UTC(),
		UpdatedAt:    model.UpdatedAt.UTC(),
	}
}

func holidayToModel(h domain.Holiday) HolidayModel {
	return HolidayModel{
		ID:         h.ID,
		CalendarID: h.CalendarID,
		Name:       h.Name,
		Date:       h.Date.UTC(),
		Recurring:  h.Recurring,
	}
}

func holidayFromModel(model HolidayModel) domain.Holiday {
	return domain.Holiday{
		ID:         model.ID,
		CalendarID: model.CalendarID,
		Name:       model.Name,
		Date:       model.Date.UTC(),
		Recurring:  model.Recurring,
	}
}
