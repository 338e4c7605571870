package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/goalflow/internal/domain"
)

// TaskDependencyRepository handles the task dependency graph.
type TaskDependencyRepository struct {
	pool *pgxpool.Pool
}

// NewTaskDependencyRepository creates a new TaskDependencyRepository.
func NewTaskDependencyRepository(pool *pgxpool.Pool) *TaskDependencyRepository {
	return &TaskDependencyRepository{pool: pool}
}

func (r *TaskDependencyRepository) q(q DBTX) DBTX {
	if q == nil {
		return r.pool
	}
	return q
}

// LockGoalGraph serialises dependency writes within one goal until tx ends.
func (r *TaskDependencyRepository) LockGoalGraph(ctx context.Context, tx pgx.Tx, goalID string) error {
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext('task_graph:' || $1))", goalID); err != nil {
		return fmt.Errorf("lock dependency graph for goal %s: %w", goalID, err)
	}
	return nil
}

// Add inserts the edge taskID -> dependsOnTaskID.
// Returns ErrDependencyExists when the edge is already present.
func (r *TaskDependencyRepository) Add(ctx context.Context, tx pgx.Tx, taskID, dependsOnTaskID string) (*domain.TaskDependency, error) {
	query, args, err := psql.
		Insert("task_dependencies").
		Columns("task_id", "depends_on_task_id").
		Values(taskID, dependsOnTaskID).
		Suffix("RETURNING task_id, depends_on_task_id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Add query for dependency: %w", err)
	}

	var dep domain.TaskDependency
	err = tx.QueryRow(ctx, query, args...).Scan(&dep.TaskID, &dep.DependsOnTaskID, &dep.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDependencyExists
		}
		return nil, fmt.Errorf("add dependency: %w", err)
	}
	return &dep, nil
}

// Remove deletes the edge taskID -> dependsOnTaskID.
// Returns ErrDependencyNotFound when there is no such edge.
func (r *TaskDependencyRepository) Remove(ctx context.Context, tx pgx.Tx, taskID, dependsOnTaskID string) error {
	query, args, err := psql.
		Delete("task_dependencies").
		Where(sq.Eq{"task_id": taskID, "depends_on_task_id": dependsOnTaskID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Remove query for dependency: %w", err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("remove dependency: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDependencyNotFound
	}
	return nil
}

// DeleteAllForTask removes every edge touching taskID and returns how many went.
func (r *TaskDependencyRepository) DeleteAllForTask(ctx context.Context, tx pgx.Tx, taskID string) (int64, error) {
	query, args, err := psql.
		Delete("task_dependencies").
		Where(sq.Or{
			sq.Eq{"task_id": taskID},
			sq.Eq{"depends_on_task_id": taskID},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build DeleteAllForTask query: %w", err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete dependencies: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListDependencies returns edges where taskID is the dependent.
func (r *TaskDependencyRepository) ListDependencies(ctx context.Context, q DBTX, taskID string) ([]domain.TaskDependency, error) {
	return r.list(ctx, r.q(q), sq.Eq{"task_id": taskID})
}

// ListDependents returns edges where taskID is depended upon.
func (r *TaskDependencyRepository) ListDependents(ctx context.Context, q DBTX, taskID string) ([]domain.TaskDependency, error) {
	return r.list(ctx, r.q(q), sq.Eq{"depends_on_task_id": taskID})
}

func (r *TaskDependencyRepository) list(ctx context.Context, q DBTX, where sq.Eq) ([]domain.TaskDependency, error) {
	query, args, err := psql.
		Select("task_id", "depends_on_task_id", "created_at").
		From("task_dependencies").
		Where(where).
		OrderBy("created_at ASC", "task_id ASC", "depends_on_task_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query for dependencies: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dependencies: %w", err)
	}
	defer rows.Close()

	deps := []domain.TaskDependency{}
	for rows.Next() {
		var dep domain.TaskDependency
		if err := rows.Scan(&dep.TaskID, &dep.DependsOnTaskID, &dep.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		deps = append(deps, dep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return deps, nil
}

// CountIncompleteDependencies counts tasks that taskID depends on and that are not done.
func (r *TaskDependencyRepository) CountIncompleteDependencies(ctx context.Context, q DBTX, taskID string) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("task_dependencies d").
		Join("tasks t ON t.id = d.depends_on_task_id").
		Where(sq.Eq{"d.task_id": taskID}).
		Where(sq.NotEq{"t.status": domain.TaskStatusDone}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build CountIncompleteDependencies query: %w", err)
	}

	var count int
	if err := r.q(q).QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count incomplete dependencies: %w", err)
	}
	return count, nil
}

// CountIncompleteDependents counts tasks that depend on taskID and are not done.
func (r *TaskDependencyRepository) CountIncompleteDependents(ctx context.Context, q DBTX, taskID string) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("task_dependencies d").
		Join("tasks t ON t.id = d.task_id").
		Where(sq.Eq{"d.depends_on_task_id": taskID}).
		Where(sq.NotEq{"t.status": domain.TaskStatusDone}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build CountIncompleteDependents query: %w", err)
	}

	var count int
	if err := r.q(q).QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count incomplete dependents: %w", err)
	}
	return count, nil
}

// FindTransitiveDependencies returns every task reachable from taskID along
// "depends on" edges, excluding taskID itself unless it lies on a cycle.
// The walk is breadth-first, one query per frontier, so the cost follows
// the reachable subgraph rather than the whole graph.
func (r *TaskDependencyRepository) FindTransitiveDependencies(ctx context.Context, q DBTX, taskID string) (map[string]struct{}, error) {
	q = r.q(q)
	visited := make(map[string]struct{})
	frontier := []string{taskID}

	for len(frontier) > 0 {
		query, args, err := psql.
			Select("depends_on_task_id").
			From("task_dependencies").
			Where(sq.Eq{"task_id": frontier}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build transitive dependency query: %w", err)
		}

		rows, err := q.Query(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("query transitive dependencies: %w", err)
		}

		var next []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan dependency id: %w", err)
			}
			if _, seen := visited[id]; seen {
				continue
			}
			visited[id] = struct{}{}
			next = append(next, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate rows: %w", err)
		}

		frontier = next
	}

	return visited, nil
}
