package db

import (
	"fmt"
	"log"

	"vigil/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Store struct {
	DB *gorm.DB

	Policies   *PolicyRepository
	Rules      *RuleRepository
	Calendars  *CalendarRepository
	Violations *ViolationRepository
	Actions    *ActionRepository
	Tasks      *TaskRepository
}

func NewStore(cfg config.Config) (*Store, error) {
	if cfg.PostgresDSN == "" {
		log.Printf("POSTGRES_DSN not set; starting in no-db mode.")
		return newStore(nil), nil
	}

	gdb, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store := newStore(gdb)
	if err := store.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

func newStore(gdb *gorm.DB) *Store {
	return &Store{
		DB:         gdb,
		Policies:   NewPolicyRepository(gdb),
		Rules:      NewRuleRepository(gdb),
		Calendars:  NewCalendarRepository(gdb),
		Violations: NewViolationRepository(gdb),
		Actions:    NewActionRepository(gdb),
		Tasks:      NewTaskRepository(gdb),
	}
}

// Migrate creates the schema and the partial unique index that lets the
// detector insert violations with an atomic check for an existing open one.
func (s *Store) Migrate() error {
	if s.DB == nil {
		return errDBUnavailable
	}
	if err := s.DB.AutoMigrate(
		&SlaPolicyModel{},
		&EscalationRuleModel{},
		&BusinessCalendarModel{},
		&HolidayModel{},
		&SlaViolationModel{},
		&EscalationActionModel{},
		&TaskModel{},
	); err != nil {
		return err
	}
	return s.DB.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_open_violation " +
			"ON sla_violations (tenant_id, task_id, violation_type) WHERE status = 'Open'",
	).Error
}
