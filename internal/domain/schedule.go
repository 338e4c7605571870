package domain

import "time"

// ScheduleStatus represents the state of a schedule block.
type ScheduleStatus string

const (
	ScheduleStatusScheduled ScheduleStatus = "scheduled"
	ScheduleStatusCompleted ScheduleStatus = "completed"
)

// ScheduleSource records who placed a block.
type ScheduleSource string

const (
	ScheduleSourceManual   ScheduleSource = "manual"
	ScheduleSourceAuto     ScheduleSource = "auto"
	ScheduleSourceImported ScheduleSource = "imported"
)

// IsValid checks if the source is one of the allowed values.
func (s ScheduleSource) IsValid() bool {
	switch s {
	case ScheduleSourceManual, ScheduleSourceAuto, ScheduleSourceImported:
		return true
	default:
		return false
	}
}

// ScheduleBlock is a time reservation for executing a task.
// The interval is half-open: [StartTime, EndTime).
type ScheduleBlock struct {
	ID          string
	UserID      string
	TaskID      string
	StartTime   time.Time
	EndTime     time.Time
	Source      ScheduleSource
	Status      ScheduleStatus
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SchedulePatch holds the fields of a partial block update.
// Status and CompletedAt exist only so the update path can reject them.
type SchedulePatch struct {
	StartTime   *time.Time
	EndTime     *time.Time
	Source      *ScheduleSource
	Status      *ScheduleStatus
	CompletedAt *time.Time
}

// ChangesTimeRange reports whether the patch moves either boundary.
func (p SchedulePatch) ChangesTimeRange() bool {
	return p.StartTime != nil || p.EndTime != nil
}
