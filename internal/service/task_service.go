package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/goalflow/internal/domain"
	"github.com/mtlprog/goalflow/internal/invariant"
	"github.com/mtlprog/goalflow/internal/repository"
)

// CreateTaskInput carries the fields of a new task.
type CreateTaskInput struct {
	GoalID              string
	MilestoneID         *string
	ParentTaskID        *string
	Description         string
	EstimatedMinutes    int
	EstimatedConfidence *float64
	PriorityScore       float64
}

// TaskService coordinates task operations, the dependency graph and
// status transitions.
type TaskService struct {
	pool       *pgxpool.Pool
	taskRepo   *repository.TaskRepository
	depRepo    *repository.TaskDependencyRepository
	goalRepo   *repository.GoalRepository
	milestones *repository.MilestoneRepository
	schedule   ScheduleQuery
	events     EventSink
}

// NewTaskService creates a new TaskService.
func NewTaskService(
	pool *pgxpool.Pool,
	taskRepo *repository.TaskRepository,
	depRepo *repository.TaskDependencyRepository,
	goalRepo *repository.GoalRepository,
	milestones *repository.MilestoneRepository,
	schedule ScheduleQuery,
	events EventSink,
) *TaskService {
	return &TaskService{
		pool:       pool,
		taskRepo:   taskRepo,
		depRepo:    depRepo,
		goalRepo:   goalRepo,
		milestones: milestones,
		schedule:   schedule,
		events:     events,
	}
}

// ownedGoal loads a goal and fails closed unless userID owns it.
func (s *TaskService) ownedGoal(ctx context.Context, q repository.DBTX, userID, goalID string) (*domain.Goal, error) {
	goal, err := s.goalRepo.GetByID(ctx, q, goalID)
	if err != nil {
		return nil, err
	}
	if !goal.IsOwnedBy(userID) {
		return nil, fmt.Errorf("%w: goal %s", domain.ErrForbidden, goalID)
	}
	return goal, nil
}

// GetOwnedTask loads a task and verifies the caller owns its goal.
func (s *TaskService) GetOwnedTask(ctx context.Context, q repository.DBTX, userID, taskID string) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, q, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedGoal(ctx, q, userID, task.GoalID); err != nil {
		return nil, err
	}
	return task, nil
}

// CountIncompleteDependencies counts the not-done tasks taskID depends on.
func (s *TaskService) CountIncompleteDependencies(ctx context.Context, q repository.DBTX, taskID string) (int, error) {
	return s.depRepo.CountIncompleteDependencies(ctx, q, taskID)
}

func (s *TaskService) checkMilestone(ctx context.Context, q repository.DBTX, milestoneID, goalID string) error {
	milestone, err := s.milestones.GetByID(ctx, q, milestoneID)
	if err != nil {
		return err
	}
	return invariant.AssertMilestoneWithinGoal(milestone.GoalID, goalID)
}

// Create adds a task to a goal the caller owns. Status starts at todo.
func (s *TaskService) Create(ctx context.Context, userID string, input CreateTaskInput) (*domain.Task, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	if _, err := s.ownedGoal(ctx, tx, userID, input.GoalID); err != nil {
		return nil, err
	}

	if input.MilestoneID != nil {
		if err := s.checkMilestone(ctx, tx, *input.MilestoneID, input.GoalID); err != nil {
			return nil, err
		}
	}

	if input.ParentTaskID != nil {
		parent, err := s.taskRepo.GetByID(ctx, tx, *input.ParentTaskID)
		if err != nil {
			return nil, fmt.Errorf("parent task: %w", err)
		}
		if err := invariant.AssertValidSubtask(parent.GoalID, input.GoalID); err != nil {
			return nil, err
		}
	}

	task, err := s.taskRepo.Create(ctx, tx, &domain.Task{
		GoalID:              input.GoalID,
		MilestoneID:         input.MilestoneID,
		ParentTaskID:        input.ParentTaskID,
		Description:         input.Description,
		EstimatedMinutes:    input.EstimatedMinutes,
		EstimatedConfidence: input.EstimatedConfidence,
		PriorityScore:       input.PriorityScore,
		Status:              domain.TaskStatusTodo,
	})
	if err != nil {
		return nil, err
	}

	err = logEventAndCommit(ctx, tx, s.events, userID, domain.EventTaskCreated, map[string]any{
		"task_id": task.ID,
		"goal_id": task.GoalID,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("task created", "task_id", task.ID, "goal_id", task.GoalID, "user_id", userID)

	return task, nil
}

// GetByID returns a task with its dependencies, dependents and subtasks.
func (s *TaskService) GetByID(ctx context.Context, userID, taskID string) (*domain.TaskDetail, error) {
	task, err := s.GetOwnedTask(ctx, nil, userID, taskID)
	if err != nil {
		return nil, err
	}

	deps, err := s.depRepo.ListDependencies(ctx, nil, taskID)
	if err != nil {
		return nil, err
	}
	dependents, err := s.depRepo.ListDependents(ctx, nil, taskID)
	if err != nil {
		return nil, err
	}
	subtasks, err := s.taskRepo.ListSubtasks(ctx, taskID)
	if err != nil {
		return nil, err
	}

	return &domain.TaskDetail{
		Task:         task,
		Dependencies: deps,
		Dependents:   dependents,
		Subtasks:     subtasks,
	}, nil
}

// ListByGoal lists the tasks of a goal the caller owns.
func (s *TaskService) ListByGoal(ctx context.Context, userID string, filters repository.TaskListFilters) ([]*domain.Task, error) {
	if _, err := s.ownedGoal(ctx, nil, userID, filters.GoalID); err != nil {
		return nil, err
	}
	return s.taskRepo.ListByGoal(ctx, nil, filters)
}

// Update applies a partial update. Completion must go through Complete.
// When the task already has schedule blocks, estimate and priority changes
// emit advisory events but never block the update.
func (s *TaskService) Update(ctx context.Context, userID, taskID string, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.Status != nil && *patch.Status == domain.TaskStatusDone {
		return nil, domain.ErrUseCompleteEndpoint
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedGoal(ctx, tx, userID, task.GoalID); err != nil {
		return nil, err
	}

	if patch.Status != nil && *patch.Status != task.Status {
		if err := invariant.AssertValidTaskStatusTransition(task.Status, *patch.Status); err != nil {
			return nil, err
		}
	}

	if patch.MilestoneID != nil {
		if err := s.checkMilestone(ctx, tx, *patch.MilestoneID, task.GoalID); err != nil {
			return nil, err
		}
	}

	blocks, err := s.schedule.CountByTask(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}
	if blocks > 0 {
		if err := s.logScheduleWarnings(ctx, tx, userID, task, patch); err != nil {
			return nil, err
		}
	}

	updated, err := s.taskRepo.Update(ctx, tx, taskID, patch)
	if err != nil {
		return nil, err
	}

	err = logEventAndCommit(ctx, tx, s.events, userID, domain.EventTaskUpdated, map[string]any{
		"task_id": taskID,
		"changes": taskPatchChanges(patch),
	})
	if err != nil {
		return nil, err
	}

	slog.Info("task updated", "task_id", taskID, "user_id", userID, "fields", patch.ChangedFields())

	return updated, nil
}

func (s *TaskService) logScheduleWarnings(
	ctx context.Context,
	tx pgx.Tx,
	userID string,
	task *domain.Task,
	patch domain.TaskPatch,
) error {
	payload := map[string]any{
		"task_id":        task.ID,
		"changed_fields": patch.ChangedFields(),
	}

	if invariant.DetectScheduleInvalidation(task, patch) {
		if _, err := s.events.Log(ctx, tx, userID, domain.EventTaskScheduleInvalidated, payload); err != nil {
			return fmt.Errorf("log event: %w", err)
		}
		slog.Warn("task estimate changed with schedule blocks", "task_id", task.ID)
	}

	if invariant.DetectScheduleExecutionRisk(task, patch) {
		if _, err := s.events.Log(ctx, tx, userID, domain.EventTaskScheduleExecutionRisk, payload); err != nil {
			return fmt.Errorf("log event: %w", err)
		}
		slog.Warn("scheduled task blocked or reprioritised", "task_id", task.ID)
	}

	return nil
}

// Delete removes a task that is not done and has no open dependents.
// Subscribers to task.deleted run before the deletion commits.
func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return err
	}
	if _, err := s.ownedGoal(ctx, tx, userID, task.GoalID); err != nil {
		return err
	}

	dependents, err := s.depRepo.CountIncompleteDependents(ctx, tx, taskID)
	if err != nil {
		return err
	}
	if err := invariant.AssertTaskDeletable(task.Status, dependents); err != nil {
		return err
	}

	if _, err := s.depRepo.DeleteAllForTask(ctx, tx, taskID); err != nil {
		return err
	}
	if err := s.taskRepo.Delete(ctx, tx, taskID); err != nil {
		return err
	}

	err = logEventAndCommit(ctx, tx, s.events, userID, domain.EventTaskDeleted, map[string]any{
		"task_id": taskID,
		"goal_id": task.GoalID,
	})
	if err != nil {
		return err
	}

	slog.Info("task deleted", "task_id", taskID, "user_id", userID)

	return nil
}

// Complete marks a task done once every dependency is done.
func (s *TaskService) Complete(ctx context.Context, userID, taskID string, actualMinutes *int) (*domain.Task, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedGoal(ctx, tx, userID, task.GoalID); err != nil {
		return nil, err
	}

	blocking, err := s.depRepo.CountIncompleteDependencies(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}
	if err := invariant.AssertTaskCanBeCompleted(task.Status, blocking, actualMinutes); err != nil {
		return nil, err
	}

	completed, err := s.taskRepo.Complete(ctx, tx, taskID, *actualMinutes)
	if err != nil {
		return nil, err
	}

	err = logEventAndCommit(ctx, tx, s.events, userID, domain.EventTaskCompleted, map[string]any{
		"task_id":        taskID,
		"actual_minutes": *actualMinutes,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("task completed",
		"task_id", taskID,
		"user_id", userID,
		"estimated_minutes", task.EstimatedMinutes,
		"actual_minutes", *actualMinutes,
	)

	return completed, nil
}

// AddDependency records that taskID depends on dependsOnTaskID.
func (s *TaskService) AddDependency(ctx context.Context, userID, taskID, dependsOnTaskID string) (*domain.TaskDependency, error) {
	if err := invariant.AssertValidDependency(taskID, dependsOnTaskID); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.GetOwnedTask(ctx, tx, userID, taskID)
	if err != nil {
		return nil, err
	}
	dependsOn, err := s.GetOwnedTask(ctx, tx, userID, dependsOnTaskID)
	if err != nil {
		return nil, fmt.Errorf("dependency target: %w", err)
	}

	if err := invariant.AssertDependencyWithinSameGoal(task.GoalID, dependsOn.GoalID); err != nil {
		return nil, err
	}

	// Concurrent edge inserts in one goal could each pass the cycle check.
	if err := s.depRepo.LockGoalGraph(ctx, tx, task.GoalID); err != nil {
		return nil, err
	}

	reachable, err := s.depRepo.FindTransitiveDependencies(ctx, tx, dependsOnTaskID)
	if err != nil {
		return nil, err
	}
	if err := invariant.AssertNoDependencyCycle(taskID, dependsOnTaskID, reachable); err != nil {
		return nil, err
	}

	dep, err := s.depRepo.Add(ctx, tx, taskID, dependsOnTaskID)
	if err != nil {
		return nil, err
	}

	err = logEventAndCommit(ctx, tx, s.events, userID, domain.EventTaskDependencyAdded, map[string]any{
		"task_id":            taskID,
		"depends_on_task_id": dependsOnTaskID,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("task dependency added", "task_id", taskID, "depends_on_task_id", dependsOnTaskID)

	return dep, nil
}

// RemoveDependency deletes the edge taskID -> dependsOnTaskID.
func (s *TaskService) RemoveDependency(ctx context.Context, userID, taskID, dependsOnTaskID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.GetOwnedTask(ctx, tx, userID, taskID)
	if err != nil {
		return err
	}
	dependsOn, err := s.GetOwnedTask(ctx, tx, userID, dependsOnTaskID)
	if err != nil {
		return fmt.Errorf("dependency target: %w", err)
	}

	if err := invariant.AssertDependencyWithinSameGoal(task.GoalID, dependsOn.GoalID); err != nil {
		return err
	}

	if err := s.depRepo.Remove(ctx, tx, taskID, dependsOnTaskID); err != nil {
		return err
	}

	err = logEventAndCommit(ctx, tx, s.events, userID, domain.EventTaskDependencyRemoved, map[string]any{
		"task_id":            taskID,
		"depends_on_task_id": dependsOnTaskID,
	})
	if err != nil {
		return err
	}

	slog.Info("task dependency removed", "task_id", taskID, "depends_on_task_id", dependsOnTaskID)

	return nil
}

func taskPatchChanges(p domain.TaskPatch) map[string]any {
	changes := map[string]any{}
	if p.Description != nil {
		changes["description"] = *p.Description
	}
	if p.MilestoneID != nil {
		changes["milestone_id"] = *p.MilestoneID
	}
	if p.EstimatedMinutes != nil {
		changes["estimated_minutes"] = *p.EstimatedMinutes
	}
	if p.EstimatedConfidence != nil {
		changes["estimated_confidence"] = *p.EstimatedConfidence
	}
	if p.PriorityScore != nil {
		changes["priority_score"] = *p.PriorityScore
	}
	if p.Status != nil {
		changes["status"] = *p.Status
	}
	return changes
}
