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

var milestoneColumns = []string{"id", "goal_id", "title", "sequence", "created_at", "updated_at"}

// MilestoneRepository handles database operations for milestones.
type MilestoneRepository struct {
	pool *pgxpool.Pool
}

// NewMilestoneRepository creates a new MilestoneRepository.
func NewMilestoneRepository(pool *pgxpool.Pool) *MilestoneRepository {
	return &MilestoneRepository{pool: pool}
}

func scanMilestone(row pgx.Row) (*domain.Milestone, error) {
	var m domain.Milestone
	err := row.Scan(&m.ID, &m.GoalID, &m.Title, &m.Sequence, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMilestoneNotFound
		}
		return nil, fmt.Errorf("scan milestone: %w", err)
	}
	return &m, nil
}

// GetByID retrieves a milestone by ID.
func (r *MilestoneRepository) GetByID(ctx context.Context, q DBTX, milestoneID string) (*domain.Milestone, error) {
	if q == nil {
		q = r.pool
	}

	query, args, err := psql.
		Select(milestoneColumns...).
		From("milestones").
		Where(sq.Eq{"id": milestoneID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for milestone: %w", err)
	}

	return scanMilestone(q.QueryRow(ctx, query, args...))
}

// ListByGoal returns the goal's milestones ordered by sequence.
func (r *MilestoneRepository) ListByGoal(ctx context.Context, goalID string) ([]*domain.Milestone, error) {
	query, args, err := psql.
		Select(milestoneColumns...).
		From("milestones").
		Where(sq.Eq{"goal_id": goalID}).
		OrderBy("sequence ASC", "created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ListByGoal query for milestones: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query milestones: %w", err)
	}
	defer rows.Close()

	milestones := []*domain.Milestone{}
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return milestones, nil
}

// CountByGoal returns how many milestones the goal has.
func (r *MilestoneRepository) CountByGoal(ctx context.Context, tx pgx.Tx, goalID string) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("milestones").
		Where(sq.Eq{"goal_id": goalID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build CountByGoal query: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count milestones: %w", err)
	}
	return count, nil
}

// Create inserts a milestone within a transaction.
func (r *MilestoneRepository) Create(ctx context.Context, tx pgx.Tx, m *domain.Milestone) error {
	query, args, err := psql.
		Insert("milestones").
		Columns("goal_id", "title", "sequence").
		Values(m.GoalID, m.Title, m.Sequence).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build Create query for milestone: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return fmt.Errorf("create milestone: %w", err)
	}
	return nil
}

// Update applies a partial update and returns the stored milestone.
func (r *MilestoneRepository) Update(
	ctx context.Context,
	tx pgx.Tx,
	milestoneID string,
	patch domain.MilestonePatch,
) (*domain.Milestone, error) {
	qb := psql.Update("milestones").
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": milestoneID})

	if patch.Title != nil {
		qb = qb.Set("title", *patch.Title)
	}
	if patch.Sequence != nil {
		qb = qb.Set("sequence", *patch.Sequence)
	}

	query, args, err := qb.Suffix("RETURNING " + columnList(milestoneColumns)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Update query for milestone %s: %w", milestoneID, err)
	}

	return scanMilestone(tx.QueryRow(ctx, query, args...))
}

// Delete removes a milestone. Tasks keep existing with milestone_id cleared.
func (r *MilestoneRepository) Delete(ctx context.Context, tx pgx.Tx, milestoneID string) error {
	query, args, err := psql.Delete("milestones").Where(sq.Eq{"id": milestoneID}).ToSql()
	if err != nil {
		return fmt.Errorf("build Delete query for milestone %s: %w", milestoneID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete milestone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMilestoneNotFound
	}
	return nil
}
