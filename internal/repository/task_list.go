package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/mtlprog/goalflow/internal/domain"
)

// TaskListFilters holds all supported filters for task listing.
type TaskListFilters struct {
	GoalID       string              // Required: filter by goal
	Statuses     []domain.TaskStatus // Optional: filter by status
	MilestoneID  *string             // Optional: filter by milestone
	ParentTaskID *string             // Optional: filter by parent task
	RootOnly     bool                // Optional: only tasks without a parent
}

func (f TaskListFilters) apply(qb sq.SelectBuilder) sq.SelectBuilder {
	qb = qb.Where(sq.Eq{"goal_id": f.GoalID})

	if len(f.Statuses) > 0 {
		qb = qb.Where(sq.Eq{"status": f.Statuses})
	}
	if f.MilestoneID != nil {
		qb = qb.Where(sq.Eq{"milestone_id": *f.MilestoneID})
	}
	if f.RootOnly {
		qb = qb.Where(sq.Eq{"parent_task_id": nil})
	} else if f.ParentTaskID != nil {
		qb = qb.Where(sq.Eq{"parent_task_id": *f.ParentTaskID})
	}
	return qb
}

// ListByGoal returns a goal's tasks, highest priority first, then oldest first.
// A nil q reads from the pool.
func (r *TaskRepository) ListByGoal(ctx context.Context, q DBTX, filters TaskListFilters) ([]*domain.Task, error) {
	if q == nil {
		q = r.pool
	}

	qb := filters.apply(psql.Select(taskColumns...).From("tasks")).
		OrderBy("priority_score DESC", "created_at ASC", "id ASC")

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ListByGoal query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}

	return scanTasks(rows)
}

// CountByGoal counts a goal's tasks matching the filters.
func (r *TaskRepository) CountByGoal(ctx context.Context, filters TaskListFilters) (int, error) {
	query, args, err := filters.apply(psql.Select("COUNT(*)").From("tasks")).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return total, nil
}
