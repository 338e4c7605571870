package dto

import (
	"time"

	"github.com/mtlprog/goalflow/internal/domain"
)

// TokenResponse is returned by signup and login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// UserResponse represents the authenticated user.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ToUserResponse converts a domain user, dropping the password hash.
func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}

// GoalResponse represents a goal.
type GoalResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Deadline    time.Time `json:"deadline"`
	Category    *string   `json:"category"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToGoalResponse converts a domain goal.
func ToGoalResponse(g *domain.Goal) GoalResponse {
	return GoalResponse{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		Deadline:    g.Deadline,
		Category:    g.Category,
		Status:      string(g.Status),
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

// ToGoalList converts a slice of goals.
func ToGoalList(goals []*domain.Goal) []GoalResponse {
	out := make([]GoalResponse, len(goals))
	for i, g := range goals {
		out[i] = ToGoalResponse(g)
	}
	return out
}

// GoalBreakdownResponse acknowledges a breakdown request.
type GoalBreakdownResponse struct {
	Message string `json:"message"`
	GoalID  string `json:"goal_id"`
}

// GoalDetailResponse represents a goal with its milestones and tasks.
type GoalDetailResponse struct {
	GoalResponse
	Milestones []MilestoneResponse `json:"milestones"`
	Tasks      []TaskResponse      `json:"tasks"`
}

// ToGoalDetail converts a domain goal detail.
func ToGoalDetail(d *domain.GoalDetail) GoalDetailResponse {
	return GoalDetailResponse{
		GoalResponse: ToGoalResponse(d.Goal),
		Milestones:   ToMilestoneList(d.Milestones),
		Tasks:        ToTaskList(d.Tasks),
	}
}

// MilestoneResponse represents a milestone.
type MilestoneResponse struct {
	ID        string    `json:"id"`
	GoalID    string    `json:"goal_id"`
	Title     string    `json:"title"`
	Sequence  int       `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToMilestoneResponse converts a domain milestone.
func ToMilestoneResponse(m *domain.Milestone) MilestoneResponse {
	return MilestoneResponse{
		ID:        m.ID,
		GoalID:    m.GoalID,
		Title:     m.Title,
		Sequence:  m.Sequence,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ToMilestoneList converts a slice of milestones.
func ToMilestoneList(ms []*domain.Milestone) []MilestoneResponse {
	out := make([]MilestoneResponse, len(ms))
	for i, m := range ms {
		out[i] = ToMilestoneResponse(m)
	}
	return out
}

// TaskResponse represents a task.
type TaskResponse struct {
	ID                  string    `json:"id"`
	GoalID              string    `json:"goal_id"`
	MilestoneID         *string   `json:"milestone_id"`
	ParentTaskID        *string   `json:"parent_task_id"`
	Description         string    `json:"description"`
	EstimatedMinutes    int       `json:"estimated_minutes"`
	EstimatedConfidence *float64  `json:"estimated_confidence"`
	PriorityScore       float64   `json:"priority_score"`
	Status              string    `json:"status"`
	ActualMinutes       *int      `json:"actual_minutes"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ToTaskResponse converts a domain task.
func ToTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:                  t.ID,
		GoalID:              t.GoalID,
		MilestoneID:         t.MilestoneID,
		ParentTaskID:        t.ParentTaskID,
		Description:         t.Description,
		EstimatedMinutes:    t.EstimatedMinutes,
		EstimatedConfidence: t.EstimatedConfidence,
		PriorityScore:       t.PriorityScore,
		Status:              string(t.Status),
		ActualMinutes:       t.ActualMinutes,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
}

// ToTaskList converts a slice of tasks.
func ToTaskList(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = ToTaskResponse(t)
	}
	return out
}

// DependencyResponse represents a dependency edge.
type DependencyResponse struct {
	TaskID          string    `json:"task_id"`
	DependsOnTaskID string    `json:"depends_on_task_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// ToDependencyResponse converts a domain dependency.
func ToDependencyResponse(d domain.TaskDependency) DependencyResponse {
	return DependencyResponse{
		TaskID:          d.TaskID,
		DependsOnTaskID: d.DependsOnTaskID,
		CreatedAt:       d.CreatedAt,
	}
}

func toDependencyList(deps []domain.TaskDependency) []DependencyResponse {
	out := make([]DependencyResponse, len(deps))
	for i, d := range deps {
		out[i] = ToDependencyResponse(d)
	}
	return out
}

// TaskDetailResponse represents a task with its dependencies, dependents and subtasks.
type TaskDetailResponse struct {
	TaskResponse
	Dependencies []DependencyResponse `json:"dependencies"`
	Dependents   []DependencyResponse `json:"dependents"`
	Subtasks     []TaskResponse       `json:"subtasks"`
}

// ToTaskDetail converts a domain task detail.
func ToTaskDetail(d *domain.TaskDetail) TaskDetailResponse {
	return TaskDetailResponse{
		TaskResponse: ToTaskResponse(d.Task),
		Dependencies: toDependencyList(d.Dependencies),
		Dependents:   toDependencyList(d.Dependents),
		Subtasks:     ToTaskList(d.Subtasks),
	}
}

// ScheduleBlockResponse represents a schedule block.
type ScheduleBlockResponse struct {
	ID          string     `json:"id"`
	TaskID      string     `json:"task_id"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	Source      string     `json:"source"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ToScheduleBlockResponse converts a domain schedule block.
func ToScheduleBlockResponse(b *domain.ScheduleBlock) ScheduleBlockResponse {
	return ScheduleBlockResponse{
		ID:          b.ID,
		TaskID:      b.TaskID,
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		Source:      string(b.Source),
		Status:      string(b.Status),
		CompletedAt: b.CompletedAt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// ToScheduleBlockList converts a slice of schedule blocks.
func ToScheduleBlockList(blocks []*domain.ScheduleBlock) []ScheduleBlockResponse {
	out := make([]ScheduleBlockResponse, len(blocks))
	for i, b := range blocks {
		out[i] = ToScheduleBlockResponse(b)
	}
	return out
}

// EventResponse represents an event log entry.
type EventResponse struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

// ToEventList converts a slice of event log entries.
func ToEventList(entries []*domain.EventLogEntry) []EventResponse {
	out := make([]EventResponse, len(entries))
	for i, e := range entries {
		out[i] = EventResponse{
			ID:        e.ID,
			Type:      string(e.Type),
			Payload:   e.Payload,
			CreatedAt: e.CreatedAt,
		}
	}
	return out
}

// StatsResponse represents the response for GET /stats.
type StatsResponse struct {
	Period      string        `json:"period"`
	PeriodStart time.Time     `json:"period_start"`
	PeriodEnd   time.Time     `json:"period_end"`
	Tasks       TaskStats     `json:"tasks"`
	Schedule    ScheduleStats `json:"schedule"`
}

// TaskStats represents task statistics.
type TaskStats struct {
	TasksByStatus             map[string]int `json:"tasks_by_status"`
	TasksCompleted            int            `json:"tasks_completed"`
	EstimatedMinutesCompleted int            `json:"estimated_minutes_completed"`
	ActualMinutesCompleted    int            `json:"actual_minutes_completed"`
	CompletionRatePercent     float64        `json:"completion_rate_percent"`
}

// ScheduleStats represents schedule statistics.
type ScheduleStats struct {
	BlocksScheduled  int `json:"blocks_scheduled"`
	BlocksCompleted  int `json:"blocks_completed"`
	MinutesScheduled int `json:"minutes_scheduled"`
	MinutesCompleted int `json:"minutes_completed"`
}
