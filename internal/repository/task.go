package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/goalflow/internal/domain"
)

// taskColumns is the shared list of columns for task queries.
var taskColumns = []string{
	"id", "goal_id", "milestone_id", "parent_task_id", "description",
	"estimated_minutes", "estimated_confidence", "priority_score", "status",
	"actual_minutes", "created_at", "updated_at",
}

// TaskRepository handles database operations for tasks.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// scanTask scans a single row into a Task struct.
func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	err := row.Scan(
		&task.ID,
		&task.GoalID,
		&task.MilestoneID,
		&task.ParentTaskID,
		&task.Description,
		&task.EstimatedMinutes,
		&task.EstimatedConfidence,
		&task.PriorityScore,
		&task.Status,
		&task.ActualMinutes,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return &task, nil
}

// scanTasks scans multiple rows into a slice of Task structs.
func scanTasks(rows pgx.Rows) ([]*domain.Task, error) {
	defer rows.Close()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return tasks, nil
}

// GetByID retrieves a task by ID. A nil q reads from the pool.
func (r *TaskRepository) GetByID(ctx context.Context, q DBTX, taskID string) (*domain.Task, error) {
	if q == nil {
		q = r.pool
	}

	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": taskID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for task: %w", err)
	}

	return scanTask(q.QueryRow(ctx, query, args...))
}

// GetByIDForUpdate retrieves a task by ID with FOR UPDATE lock (within transaction).
func (r *TaskRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, taskID string) (*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": taskID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByIDForUpdate query for task %s: %w", taskID, err)
	}

	return scanTask(tx.QueryRow(ctx, query, args...))
}

// ListSubtasks returns the direct children of a task.
func (r *TaskRepository) ListSubtasks(ctx context.Context, parentTaskID string) ([]*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"parent_task_id": parentTaskID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ListSubtasks query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query subtasks: %w", err)
	}

	return scanTasks(rows)
}

// Create creates a new task in the database within a transaction.
// Returns the created task with ID, CreatedAt, and UpdatedAt populated.
func (r *TaskRepository) Create(ctx context.Context, tx pgx.Tx, task *domain.Task) (*domain.Task, error) {
	if task.Status == "" {
		task.Status = domain.TaskStatusTodo
	}

	query, args, err := psql.
		Insert("tasks").
		Columns(
			"goal_id", "milestone_id", "parent_task_id", "description",
			"estimated_minutes", "estimated_confidence", "priority_score", "status",
		).
		Values(
			task.GoalID,
			task.MilestoneID,
			task.ParentTaskID,
			task.Description,
			task.EstimatedMinutes,
			task.EstimatedConfidence,
			task.PriorityScore,
			task.Status,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Create query for task: %w", err)
	}

	err = tx.QueryRow(ctx, query, args...).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	return task, nil
}

// Update applies a partial update and returns the stored task.
func (r *TaskRepository) Update(ctx context.Context, tx pgx.Tx, taskID string, patch domain.TaskPatch) (*domain.Task, error) {
	qb := psql.Update("tasks").
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": taskID})

	if patch.Description != nil {
		qb = qb.Set("description", *patch.Description)
	}
	if patch.MilestoneID != nil {
		qb = qb.Set("milestone_id", *patch.MilestoneID)
	}
	if patch.EstimatedMinutes != nil {
		qb = qb.Set("estimated_minutes", *patch.EstimatedMinutes)
	}
	if patch.EstimatedConfidence != nil {
		qb = qb.Set("estimated_confidence", *patch.EstimatedConfidence)
	}
	if patch.PriorityScore != nil {
		qb = qb.Set("priority_score", *patch.PriorityScore)
	}
	if patch.Status != nil {
		qb = qb.Set("status", *patch.Status)
	}

	query, args, err := qb.Suffix("RETURNING " + columnList(taskColumns)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Update query for task %s: %w", taskID, err)
	}

	return scanTask(tx.QueryRow(ctx, query, args...))
}

// Complete marks a task done with the recorded effort. The status guard makes
// a concurrent second completion affect no rows.
func (r *TaskRepository) Complete(ctx context.Context, tx pgx.Tx, taskID string, actualMinutes int) (*domain.Task, error) {
	query, args, err := psql.
		Update("tasks").
		Set("status", domain.TaskStatusDone).
		Set("actual_minutes", actualMinutes).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": taskID}).
		Where(sq.NotEq{"status": domain.TaskStatusDone}).
		Suffix("RETURNING " + columnList(taskColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Complete query for task %s: %w", taskID, err)
	}

	task, err := scanTask(tx.QueryRow(ctx, query, args...))
	if errors.Is(err, domain.ErrTaskNotFound) {
		return nil, domain.ErrTaskAlreadyCompleted
	}
	return task, err
}

// Delete removes a task row.
func (r *TaskRepository) Delete(ctx context.Context, tx pgx.Tx, taskID string) error {
	query, args, err := psql.Delete("tasks").Where(sq.Eq{"id": taskID}).ToSql()
	if err != nil {
		return fmt.Errorf("build Delete query for task %s: %w", taskID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}
