package domain

import "time"

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusBlocked    TaskStatus = "blocked"
	TaskStatusDone       TaskStatus = "done"
)

// IsTerminal returns true if the status is terminal (no transitions allowed).
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusDone
}

// IsValid checks if the status is one of the allowed values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusBlocked, TaskStatusDone:
		return true
	default:
		return false
	}
}

// Task is an actionable unit of work within a goal.
type Task struct {
	ID                  string
	GoalID              string
	MilestoneID         *string
	ParentTaskID        *string
	Description         string
	EstimatedMinutes    int
	EstimatedConfidence *float64
	PriorityScore       float64
	Status              TaskStatus
	ActualMinutes       *int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TaskPatch holds the fields of a partial task update. Nil means "unchanged".
type TaskPatch struct {
	Description         *string
	MilestoneID         *string
	EstimatedMinutes    *int
	EstimatedConfidence *float64
	PriorityScore       *float64
	Status              *TaskStatus
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Description == nil && p.MilestoneID == nil && p.EstimatedMinutes == nil &&
		p.EstimatedConfidence == nil && p.PriorityScore == nil && p.Status == nil
}

// ChangedFields lists the payload keys present in the patch.
func (p TaskPatch) ChangedFields() []string {
	var fields []string
	if p.Description != nil {
		fields = append(fields, "description")
	}
	if p.MilestoneID != nil {
		fields = append(fields, "milestone_id")
	}
	if p.EstimatedMinutes != nil {
		fields = append(fields, "estimated_minutes")
	}
	if p.EstimatedConfidence != nil {
		fields = append(fields, "estimated_confidence")
	}
	if p.PriorityScore != nil {
		fields = append(fields, "priority_score")
	}
	if p.Status != nil {
		fields = append(fields, "status")
	}
	return fields
}

// TaskDependency is a directed "task depends on depends_on_task" edge.
type TaskDependency struct {
	TaskID          string
	DependsOnTaskID string
	CreatedAt       time.Time
}

// TaskDetail is a task with its graph neighbourhood.
type TaskDetail struct {
	Task         *Task
	Dependencies []TaskDependency // edges where this task is the dependent
	Dependents   []TaskDependency // edges where this task is depended upon
	Subtasks     []*Task
}
