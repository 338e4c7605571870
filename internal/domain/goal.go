package domain

import "time"

// GoalStatus represents the state of a goal.
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusAbandoned GoalStatus = "abandoned"
)

// IsValid checks if the status is one of the allowed values.
func (s GoalStatus) IsValid() bool {
	switch s {
	case GoalStatusActive, GoalStatusCompleted, GoalStatusAbandoned:
		return true
	default:
		return false
	}
}

// Goal is a top-level user objective.
type Goal struct {
	ID          string
	UserID      string
	Title       string
	Description *string
	Deadline    time.Time
	Category    *string
	Status      GoalStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsOwnedBy checks if the goal belongs to the given user.
func (g *Goal) IsOwnedBy(userID string) bool {
	return g.UserID == userID
}

// GoalPatch holds the fields of a partial goal update.
type GoalPatch struct {
	Title       *string
	Description *string
	Deadline    *time.Time
	Category    *string
	Status      *GoalStatus
}

// GoalDetail is a goal with its milestones and tasks.
type GoalDetail struct {
	Goal       *Goal
	Milestones []*Milestone
	Tasks      []*Task
}

// Milestone is an ordered checkpoint within a goal.
type Milestone struct {
	ID        string
	GoalID    string
	Title     string
	Sequence  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MilestonePatch holds the fields of a partial milestone update.
type MilestonePatch struct {
	Title    *string
	Sequence *int
}
