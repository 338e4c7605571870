package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mtlprog/goalflow/internal/domain"
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrValidation}, args...)...)
}

func checkUUID(field, value string) error {
	if _, err := uuid.Parse(value); err != nil {
		return validationError("%s must be a valid UUID", field)
	}
	return nil
}

func checkOptionalUUID(field string, value *string) error {
	if value == nil {
		return nil
	}
	return checkUUID(field, *value)
}

// SignupRequest represents the request body for POST /auth/signup.
type SignupRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
}

// Validate checks required fields.
func (r SignupRequest) Validate() error {
	if !strings.Contains(r.Email, "@") {
		return validationError("email must be a valid address")
	}
	return nil
}

// LoginRequest represents the request body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks required fields.
func (r LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return validationError("email and password are required")
	}
	return nil
}

// CreateGoalRequest represents the request body for POST /goals.
type CreateGoalRequest struct {
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Deadline    time.Time `json:"deadline"`
	Category    *string   `json:"category,omitempty"`
}

// Validate checks required fields.
func (r CreateGoalRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return validationError("title is required")
	}
	if r.Deadline.IsZero() {
		return validationError("deadline is required")
	}
	return nil
}

// UpdateGoalRequest represents the request body for PATCH /goals/{id}.
type UpdateGoalRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Status      *string    `json:"status,omitempty"`
}

// Validate checks the fields that are present.
func (r UpdateGoalRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return validationError("title must not be empty")
	}
	if r.Status != nil && !domain.GoalStatus(*r.Status).IsValid() {
		return validationError("status must be 'active', 'completed' or 'abandoned'")
	}
	return nil
}

// ToPatch converts the request into a domain patch.
func (r UpdateGoalRequest) ToPatch() domain.GoalPatch {
	patch := domain.GoalPatch{
		Title:       r.Title,
		Description: r.Description,
		Deadline:    r.Deadline,
		Category:    r.Category,
	}
	if r.Status != nil {
		s := domain.GoalStatus(*r.Status)
		patch.Status = &s
	}
	return patch
}

// CreateMilestoneRequest represents the request body for POST /goals/{id}/milestones.
type CreateMilestoneRequest struct {
	Title    string `json:"title"`
	Sequence *int   `json:"sequence,omitempty"`
}

// Validate checks required fields.
func (r CreateMilestoneRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return validationError("title is required")
	}
	if r.Sequence != nil && *r.Sequence < 0 {
		return validationError("sequence must not be negative")
	}
	return nil
}

// UpdateMilestoneRequest represents the request body for PATCH /milestones/{id}.
type UpdateMilestoneRequest struct {
	Title    *string `json:"title,omitempty"`
	Sequence *int    `json:"sequence,omitempty"`
}

// Validate checks the fields that are present.
func (r UpdateMilestoneRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return validationError("title must not be empty")
	}
	if r.Sequence != nil && *r.Sequence < 0 {
		return validationError("sequence must not be negative")
	}
	return nil
}

// ToPatch converts the request into a domain patch.
func (r UpdateMilestoneRequest) ToPatch() domain.MilestonePatch {
	return domain.MilestonePatch{Title: r.Title, Sequence: r.Sequence}
}

// CreateTaskRequest represents the request body for POST /tasks.
type CreateTaskRequest struct {
	GoalID              string   `json:"goal_id"`
	MilestoneID         *string  `json:"milestone_id,omitempty"`
	ParentTaskID        *string  `json:"parent_task_id,omitempty"`
	Description         string   `json:"description"`
	EstimatedMinutes    int      `json:"estimated_minutes"`
	EstimatedConfidence *float64 `json:"estimated_confidence,omitempty"`
	PriorityScore       float64  `json:"priority_score"`
}

// Validate checks required fields and identifiers.
func (r CreateTaskRequest) Validate() error {
	if err := checkUUID("goal_id", r.GoalID); err != nil {
		return err
	}
	if err := checkOptionalUUID("milestone_id", r.MilestoneID); err != nil {
		return err
	}
	if err := checkOptionalUUID("parent_task_id", r.ParentTaskID); err != nil {
		return err
	}
	if strings.TrimSpace(r.Description) == "" {
		return validationError("description is required")
	}
	if r.EstimatedMinutes <= 0 {
		return validationError("estimated_minutes must be positive")
	}
	return nil
}

// UpdateTaskRequest represents the request body for PATCH /tasks/{id}.
type UpdateTaskRequest struct {
	Description         *string  `json:"description,omitempty"`
	MilestoneID         *string  `json:"milestone_id,omitempty"`
	EstimatedMinutes    *int     `json:"estimated_minutes,omitempty"`
	EstimatedConfidence *float64 `json:"estimated_confidence,omitempty"`
	PriorityScore       *float64 `json:"priority_score,omitempty"`
	Status              *string  `json:"status,omitempty"`
}

// Validate checks the fields that are present.
func (r UpdateTaskRequest) Validate() error {
	if err := checkOptionalUUID("milestone_id", r.MilestoneID); err != nil {
		return err
	}
	if r.Description != nil && strings.TrimSpace(*r.Description) == "" {
		return validationError("description must not be empty")
	}
	if r.EstimatedMinutes != nil && *r.EstimatedMinutes <= 0 {
		return validationError("estimated_minutes must be positive")
	}
	if r.Status != nil && !domain.TaskStatus(*r.Status).IsValid() {
		return validationError("status must be 'todo', 'in_progress', 'blocked' or 'done'")
	}
	return nil
}

// ToPatch converts the request into a domain patch.
func (r UpdateTaskRequest) ToPatch() domain.TaskPatch {
	patch := domain.TaskPatch{
		Description:         r.Description,
		MilestoneID:         r.MilestoneID,
		EstimatedMinutes:    r.EstimatedMinutes,
		EstimatedConfidence: r.EstimatedConfidence,
		PriorityScore:       r.PriorityScore,
	}
	if r.Status != nil {
		s := domain.TaskStatus(*r.Status)
		patch.Status = &s
	}
	return patch
}

// CompleteTaskRequest represents the request body for POST /tasks/{id}/complete.
type CompleteTaskRequest struct {
	ActualMinutes *int `json:"actual_minutes"`
}

// Validate checks actual_minutes when present. A missing value is left to
// the completion rule so callers get its dedicated error.
func (r CompleteTaskRequest) Validate() error {
	if r.ActualMinutes != nil && *r.ActualMinutes <= 0 {
		return validationError("actual_minutes must be positive")
	}
	return nil
}

// AddDependencyRequest represents the request body for POST /tasks/{id}/dependencies.
type AddDependencyRequest struct {
	DependsOnTaskID string `json:"depends_on_task_id"`
}

// Validate checks the referenced task id.
func (r AddDependencyRequest) Validate() error {
	return checkUUID("depends_on_task_id", r.DependsOnTaskID)
}

// CreateScheduleBlockRequest represents the request body for POST /schedule-blocks.
type CreateScheduleBlockRequest struct {
	TaskID    string    `json:"task_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Source    string    `json:"source,omitempty"`
}

// Validate checks required fields. Time ordering is a schedule rule and is
// checked by the service.
func (r CreateScheduleBlockRequest) Validate() error {
	if err := checkUUID("task_id", r.TaskID); err != nil {
		return err
	}
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return validationError("start_time and end_time are required")
	}
	if r.Source != "" && !domain.ScheduleSource(r.Source).IsValid() {
		return validationError("source must be 'manual', 'auto' or 'imported'")
	}
	return nil
}

// UpdateScheduleBlockRequest represents the request body for PATCH /schedule-blocks/{id}.
// Status and CompletedAt are accepted only to be rejected by the service.
type UpdateScheduleBlockRequest struct {
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Source      *string    `json:"source,omitempty"`
	Status      *string    `json:"status,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Validate checks enum values that are present.
func (r UpdateScheduleBlockRequest) Validate() error {
	if r.Source != nil && !domain.ScheduleSource(*r.Source).IsValid() {
		return validationError("source must be 'manual', 'auto' or 'imported'")
	}
	if r.Status != nil {
		switch domain.ScheduleStatus(*r.Status) {
		case domain.ScheduleStatusScheduled, domain.ScheduleStatusCompleted:
		default:
			return validationError("status must be 'scheduled' or 'completed'")
		}
	}
	return nil
}

// ToPatch converts the request into a domain patch.
func (r UpdateScheduleBlockRequest) ToPatch() domain.SchedulePatch {
	patch := domain.SchedulePatch{
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		CompletedAt: r.CompletedAt,
	}
	if r.Source != nil {
		s := domain.ScheduleSource(*r.Source)
		patch.Source = &s
	}
	if r.Status != nil {
		s := domain.ScheduleStatus(*r.Status)
		patch.Status = &s
	}
	return patch
}
