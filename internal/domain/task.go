package domain

import "time"

type TaskStatus string

const (
	TaskStatusNew        TaskStatus = "New"
	TaskStatusInProgress TaskStatus = "InProgress"
	TaskStatusCompleted  TaskStatus = "Completed"
	TaskStatusCancelled  TaskStatus = "Cancelled"
)

// Task is the engine's read-model of a work item, consumed from the task
// collaborator. The engine never creates tasks; it only reads them and, for
// Reassign actions, updates the assignee.
type Task struct {
	ID         string
	TenantID   string
	Type       string
	Priority   string
	Status     TaskStatus
	AssigneeID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AwaitingResponse holds until someone starts working the task.
func (t Task) AwaitingResponse() bool {
	return t.Status == TaskStatusNew
}

// AwaitingResolution holds until the task reaches a closed status.
func (t Task) AwaitingResolution() bool {
	return t.Status == TaskStatusNew || t.Status == TaskStatusInProgress
}

func (t Task) Closed() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusCancelled
}

// Awaiting reports whether the task is still awaiting the phase a violation
// type measures.
func (t Task) Awaiting(vt ViolationType) bool {
	switch vt {
	case ViolationResponseTime:
		return t.AwaitingResponse()
	case ViolationResolutionTime:
		return t.AwaitingResolution()
	}
	return false
}
