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

var goalColumns = []string{
	"id", "user_id", "title", "description", "deadline", "category", "status",
	"created_at", "updated_at",
}

// GoalRepository handles database operations for goals.
type GoalRepository struct {
	pool *pgxpool.Pool
}

// NewGoalRepository creates a new GoalRepository.
func NewGoalRepository(pool *pgxpool.Pool) *GoalRepository {
	return &GoalRepository{pool: pool}
}

func scanGoal(row pgx.Row) (*domain.Goal, error) {
	var goal domain.Goal
	err := row.Scan(
		&goal.ID,
		&goal.UserID,
		&goal.Title,
		&goal.Description,
		&goal.Deadline,
		&goal.Category,
		&goal.Status,
		&goal.CreatedAt,
		&goal.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGoalNotFound
		}
		return nil, fmt.Errorf("scan goal: %w", err)
	}
	return &goal, nil
}

// GetByID retrieves a goal by ID.
func (r *GoalRepository) GetByID(ctx context.Context, q DBTX, goalID string) (*domain.Goal, error) {
	if q == nil {
		q = r.pool
	}

	query, args, err := psql.
		Select(goalColumns...).
		From("goals").
		Where(sq.Eq{"id": goalID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for goal: %w", err)
	}

	return scanGoal(q.QueryRow(ctx, query, args...))
}

// GetByIDForUpdate retrieves a goal by ID with FOR UPDATE lock (within transaction).
func (r *GoalRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, goalID string) (*domain.Goal, error) {
	query, args, err := psql.
		Select(goalColumns...).
		From("goals").
		Where(sq.Eq{"id": goalID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByIDForUpdate query for goal %s: %w", goalID, err)
	}

	return scanGoal(tx.QueryRow(ctx, query, args...))
}

// ListByUser returns the user's goals, newest first.
func (r *GoalRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Goal, error) {
	query, args, err := psql.
		Select(goalColumns...).
		From("goals").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ListByUser query for goals: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	goals := []*domain.Goal{}
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return goals, nil
}

// Create inserts a goal within a transaction.
func (r *GoalRepository) Create(ctx context.Context, tx pgx.Tx, goal *domain.Goal) error {
	if goal.Status == "" {
		goal.Status = domain.GoalStatusActive
	}

	query, args, err := psql.
		Insert("goals").
		Columns("user_id", "title", "description", "deadline", "category", "status").
		Values(goal.UserID, goal.Title, goal.Description, goal.Deadline, goal.Category, goal.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build Create query for goal: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&goal.ID, &goal.CreatedAt, &goal.UpdatedAt); err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

// Update applies a partial update and returns the stored goal.
func (r *GoalRepository) Update(ctx context.Context, tx pgx.Tx, goalID string, patch domain.GoalPatch) (*domain.Goal, error) {
	qb := psql.Update("goals").
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": goalID})

	if patch.Title != nil {
		qb = qb.Set("title", *patch.Title)
	}
	if patch.Description != nil {
		qb = qb.Set("description", *patch.Description)
	}
	if patch.Deadline != nil {
		qb = qb.Set("deadline", *patch.Deadline)
	}
	if patch.Category != nil {
		qb = qb.Set("category", *patch.Category)
	}
	if patch.Status != nil {
		qb = qb.Set("status", *patch.Status)
	}

	query, args, err := qb.Suffix("RETURNING " + columnList(goalColumns)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Update query for goal %s: %w", goalID, err)
	}

	return scanGoal(tx.QueryRow(ctx, query, args...))
}

// Delete removes a goal. Milestones, tasks and their edges cascade.
func (r *GoalRepository) Delete(ctx context.Context, tx pgx.Tx, goalID string) error {
	query, args, err := psql.Delete("goals").Where(sq.Eq{"id": goalID}).ToSql()
	if err != nil {
		return fmt.Errorf("build Delete query for goal %s: %w", goalID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGoalNotFound
	}
	return nil
}
