package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/goalflow/internal/domain"
	"github.com/mtlprog/goalflow/internal/repository"
)

// CreateGoalInput carries the fields of a new goal.
type CreateGoalInput struct {
	Title       string
	Description *string
	Deadline    time.Time
	Category    *string
}

// GoalService manages goals and their milestones.
type GoalService struct {
	pool          *pgxpool.Pool
	goalRepo      *repository.GoalRepository
	milestoneRepo *repository.MilestoneRepository
	taskRepo      *repository.TaskRepository
	events        EventSink
}

// NewGoalService creates a new GoalService.
func NewGoalService(
	pool *pgxpool.Pool,
	goalRepo *repository.GoalRepository,
	milestoneRepo *repository.MilestoneRepository,
	taskRepo *repository.TaskRepository,
	events EventSink,
) *GoalService {
	return &GoalService{
		pool:          pool,
		goalRepo:      goalRepo,
		milestoneRepo: milestoneRepo,
		taskRepo:      taskRepo,
		events:        events,
	}
}

func (s *GoalService) ownedGoal(ctx context.Context, q repository.DBTX, userID, goalID string) (*domain.Goal, error) {
	goal, err := s.goalRepo.GetByID(ctx, q, goalID)
	if err != nil {
		return nil, err
	}
	if !goal.IsOwnedBy(userID) {
		return nil, fmt.Errorf("%w: goal %s", domain.ErrForbidden, goalID)
	}
	return goal, nil
}

// Create adds a goal for the caller.
func (s *GoalService) Create(ctx context.Context, userID string, input CreateGoalInput) (*domain.Goal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	goal := &domain.Goal{
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Deadline:    input.Deadline,
		Category:    input.Category,
		Status:      domain.GoalStatusActive,
	}
	if err := s.goalRepo.Create(ctx, tx, goal); err != nil {
		return nil, err
	}

	err = logEventAndCommit(ctx, tx, s.events, userID, domain.EventGoalCreated, map[string]any{
		"goal_id": goal.ID,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("goal created", "goal_id", goal.ID, "user_id", userID)

	return goal, nil
}

// List returns the caller's goals, newest first.
func (s *GoalService) List(ctx context.Context, userID string) ([]*domain.Goal, error) {
	return s.goalRepo.ListByUser(ctx, userID)
}

// Get returns a goal with its milestones and tasks.
func (s *GoalService) Get(ctx context.Context, userID, goalID string) (*domain.GoalDetail, error) {
	goal, err := s.ownedGoal(ctx, nil, userID, goalID)
	if err != nil {
		return nil, err
	}

	milestones, err := s.milestoneRepo.ListByGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.ListByGoal(ctx, nil, repository.TaskListFilters{GoalID: goalID})
	if err != nil {
		return nil, err
	}

	return &domain.GoalDetail{Goal: goal, Milestones: milestones, Tasks: tasks}, nil
}

// Update applies a partial update to a goal the caller owns.
func (s *GoalService) Update(ctx context.Context, userID, goalID string, patch domain.GoalPatch) (*domain.Goal, error) {
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown goal status %q", domain.ErrValidation, *patch.Status)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	if _, err := s.ownedGoal(ctx, tx, userID, goalID); err != nil {
		return nil, err
	}

	updated, err := s.goalRepo.Update(ctx, tx, goalID, patch)
	if err != nil {
		return nil, err
	}

	err = logEventAndCommit(ctx, tx, s.events, userID, domain.EventGoalUpdated, map[string]any{
		"goal_id": goalID,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("goal updated", "goal_id", goalID, "user_id", userID)

	return updated, nil
}

// RequestBreakdown accepts a request to split the goal into tasks. Nothing
// performs the split yet; the call only checks that the caller owns the goal.
func (s *GoalService) RequestBreakdown(ctx context.Context, userID, goalID string) (*domain.Goal, error) {
	goal, err := s.ownedGoal(ctx, nil, userID, goalID)
	if err != nil {
		return nil, err
	}

	slog.Info("goal breakdown requested", "goal_id", goalID, "user_id", userID)

	return goal, nil
}

// Delete removes a goal with its milestones and tasks. Each task gets a
// task.deleted event first so task subscribers see the removal.
func (s *GoalService) Delete(ctx context.Context, userID, goalID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	// The row lock waits for in-flight task inserts, which hold a key share
	// on the goal, and blocks new ones until the goal is gone.
	goal, err := s.goalRepo.GetByIDForUpdate(ctx, tx, goalID)
	if err != nil {
		return err
	}
	if !goal.IsOwnedBy(userID) {
		return fmt.Errorf("%w: goal %s", domain.ErrForbidden, goalID)
	}

	tasks, err := s.taskRepo.ListByGoal(ctx, tx, repository.TaskListFilters{GoalID: goalID})
	if err != nil {
		return err
	}
	for _, task := range tasks {
		_, err := s.events.Log(ctx, tx, userID, domain.EventTaskDeleted, map[string]any{
			"task_id": task.ID,
			"goal_id": goalID,
			"reason":  "goal_deleted",
		})
		if err != nil {
			return fmt.Errorf("log event: %w", err)
		}
	}

	if err := s.goalRepo.Delete(ctx, tx, goalID); err != nil {
		return err
	}

	err = logEventAndCommit(ctx, tx, s.events, userID, domain.EventGoalDeleted, map[string]any{
		"goal_id":       goalID,
		"tasks_deleted": len(tasks),
	})
	if err != nil {
		return err
	}

	slog.Info("goal deleted", "goal_id", goalID, "user_id", userID, "tasks", len(tasks))

	return nil
}
