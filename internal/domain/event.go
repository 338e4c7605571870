package domain

import "time"

// EventType is a dot-namespaced domain event name.
type EventType string

const (
	EventTaskCreated               EventType = "task.created"
	EventTaskUpdated               EventType = "task.updated"
	EventTaskDeleted               EventType = "task.deleted"
	EventTaskCompleted             EventType = "task.completed"
	EventTaskDependencyAdded       EventType = "task.dependency_added"
	EventTaskDependencyRemoved     EventType = "task.dependency_removed"
	EventTaskScheduleInvalidated   EventType = "task.schedule_invalidated"
	EventTaskScheduleExecutionRisk EventType = "task.schedule_execution_risk"
	EventScheduleCreated           EventType = "schedule.created"
	EventScheduleUpdated           EventType = "schedule.updated"
	EventScheduleCompleted         EventType = "schedule.completed"
	EventScheduleDeleted           EventType = "schedule.deleted"
	EventGoalCreated               EventType = "goal.created"
	EventGoalUpdated               EventType = "goal.updated"
	EventGoalDeleted               EventType = "goal.deleted"
	EventMilestoneCreated          EventType = "milestone.created"
	EventMilestoneUpdated          EventType = "milestone.updated"
	EventMilestoneDeleted          EventType = "milestone.deleted"
)

// EventLogEntry is an immutable record of something that happened to a user's data.
type EventLogEntry struct {
	ID        string
	UserID    string
	Type      EventType
	Payload   map[string]any
	CreatedAt time.Time
}

// PayloadString returns a string payload field, or "" when absent.
func (e *EventLogEntry) PayloadString(key string) string {
	v, _ := e.Payload[key].(string)
	return v
}
