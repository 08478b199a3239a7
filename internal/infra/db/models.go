package db

import "time"

type SlaPolicyModel struct {
	ID                  string `gorm:"type:uuid;primaryKey"`
	TenantID            string `gorm:"index;not null"`
	Name                string `gorm:"not null"`
	Description         string
	TaskType            string `gorm:"index"`
	Priority            string `gorm:"index"`
	ResponseTimeHours   int    `gorm:"not null"`
	ResolutionTimeHours int    `gorm:"not null"`
	CalendarID          *string
	IsActive            bool      `gorm:"index;not null"`
	IsDeleted           bool      `gorm:"index;not null"`
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
}

func (SlaPolicyModel) TableName() string { return "sla_policies" }

type EscalationRuleModel struct {
	ID                  string `gorm:"type:uuid;primaryKey"`
	TenantID            string `gorm:"index;not null"`
	PolicyID            string `gorm:"type:uuid;index;not null"`
	Level               int    `gorm:"not null"`
	TriggerAfterMinutes int    `gorm:"not null"`
	ActionType          string `gorm:"not null"`
	ActionConfigJSON    []byte `gorm:"column:action_config;type:jsonb"`
	IsActive            bool   `gorm:"not null"`
	IsDeleted           bool   `gorm:"index;not null"`
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
}

func (EscalationRuleModel) TableName() string { return "escalation_rules" }

type BusinessCalendarModel struct {
	ID                  string `gorm:"type:uuid;primaryKey"`
	TenantID            string `gorm:"index;not null"`
	Name                string `gorm:"not null"`
	Description         string
	Timezone            string
	WorkDayStartMinutes int    `gorm:"not null"`
	WorkDayEndMinutes   int    `gorm:"not null"`
	WorkDays            string `gorm:"not null"`
	IsDefault           bool   `gorm:"not null"`
	IsActive            bool   `gorm:"not null"`
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
}

func (BusinessCalendarModel) TableName() string { return "business_calendars" }

type HolidayModel struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	CalendarID string    `gorm:"type:uuid;index;not null"`
	Name       string    `gorm:"not null"`
	Date       time.Time `gorm:"not null"`
	Recurring  bool      `gorm:"not null"`
}

func (HolidayModel) TableName() string { return "holidays" }

type SlaViolationModel struct {
	ID                     string    `gorm:"type:uuid;primaryKey"`
	TenantID               string    `gorm:"index;not null"`
	PolicyID               string    `gorm:"type:uuid;index;not null"`
	TaskID                 string    `gorm:"index;not null"`
	ViolationType          string    `gorm:"not null"`
	ViolationTime          time.Time `gorm:"not null"`
	Status                 string    `gorm:"index;not null"`
	Resolution             string
	ResolvedTime           *time.Time
	CurrentEscalationLevel int       `gorm:"not null"`
	CreatedAt              time.Time `gorm:"not null"`
	UpdatedAt              time.Time `gorm:"not null"`
}

func (SlaViolationModel) TableName() string { return "sla_violations" }

type EscalationActionModel struct {
	ID               string  `gorm:"type:uuid;primaryKey"`
	TenantID         string  `gorm:"index;not null"`
	ViolationID      string  `gorm:"type:uuid;index;not null"`
	RuleID           *string `gorm:"type:uuid"`
	Level            int     `gorm:"not null"`
	ActionType       string  `gorm:"not null"`
	ActionConfigJSON []byte  `gorm:"column:action_config;type:jsonb"`
	ExecutedAt       *time.Time
	Status           string `gorm:"index;not null"`
	Result           string
	ErrorMessage     string
	RetryCount       int `gorm:"not null"`
	NextRetryAt      *time.Time
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

func (EscalationActionModel) TableName() string { return "escalation_actions" }

type TaskModel struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	TenantID   string `gorm:"index;not null"`
	Type       string
	Priority   string
	Status     string `gorm:"index;not null"`
	AssigneeID string
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (TaskModel) TableName() string { return "tasks" }
