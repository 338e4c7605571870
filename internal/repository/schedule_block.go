package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/goalflow/internal/domain"
)

var scheduleBlockColumns = []string{
	"id", "user_id", "task_id", "start_time", "end_time", "source", "status",
	"completed_at", "created_at", "updated_at",
}

// ScheduleBlockRepository handles database operations for schedule blocks.
type ScheduleBlockRepository struct {
	pool *pgxpool.Pool
}

// NewScheduleBlockRepository creates a new ScheduleBlockRepository.
func NewScheduleBlockRepository(pool *pgxpool.Pool) *ScheduleBlockRepository {
	return &ScheduleBlockRepository{pool: pool}
}

func scanScheduleBlock(row pgx.Row) (*domain.ScheduleBlock, error) {
	var b domain.ScheduleBlock
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.TaskID,
		&b.StartTime,
		&b.EndTime,
		&b.Source,
		&b.Status,
		&b.CompletedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrScheduleBlockNotFound
		}
		return nil, fmt.Errorf("scan schedule block: %w", err)
	}
	return &b, nil
}

// LockUser serialises schedule writes for one user until tx ends.
func (r *ScheduleBlockRepository) LockUser(ctx context.Context, tx pgx.Tx, userID string) error {
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", userID); err != nil {
		return fmt.Errorf("lock schedule for user %s: %w", userID, err)
	}
	return nil
}

// GetByID retrieves a block by ID. A nil q reads from the pool.
func (r *ScheduleBlockRepository) GetByID(ctx context.Context, q DBTX, blockID string) (*domain.ScheduleBlock, error) {
	if q == nil {
		q = r.pool
	}

	query, args, err := psql.
		Select(scheduleBlockColumns...).
		From("schedule_blocks").
		Where(sq.Eq{"id": blockID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for schedule block: %w", err)
	}

	return scanScheduleBlock(q.QueryRow(ctx, query, args...))
}

// FindAllByUser lists the user's blocks by start time.
func (r *ScheduleBlockRepository) FindAllByUser(ctx context.Context, userID string) ([]*domain.ScheduleBlock, error) {
	query, args, err := psql.
		Select(scheduleBlockColumns...).
		From("schedule_blocks").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("start_time ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build FindAllByUser query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query schedule blocks: %w", err)
	}
	defer rows.Close()

	blocks := []*domain.ScheduleBlock{}
	for rows.Next() {
		b, err := scanScheduleBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return blocks, nil
}

// CountOverlaps counts the user's blocks intersecting [start, end).
// excludeID, when set, leaves that block out of the count.
func (r *ScheduleBlockRepository) CountOverlaps(
	ctx context.Context,
	tx pgx.Tx,
	userID string,
	start, end time.Time,
	excludeID *string,
) (int, error) {
	qb := psql.
		Select("COUNT(*)").
		From("schedule_blocks").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Lt{"start_time": end}).
		Where(sq.Gt{"end_time": start})
	if excludeID != nil {
		qb = qb.Where(sq.NotEq{"id": *excludeID})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build CountOverlaps query: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count overlapping blocks: %w", err)
	}
	return count, nil
}

// CountByTask counts all blocks that reference taskID.
func (r *ScheduleBlockRepository) CountByTask(ctx context.Context, q DBTX, taskID string) (int, error) {
	if q == nil {
		q = r.pool
	}

	query, args, err := psql.
		Select("COUNT(*)").
		From("schedule_blocks").
		Where(sq.Eq{"task_id": taskID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build CountByTask query: %w", err)
	}

	var count int
	if err := q.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count blocks for task: %w", err)
	}
	return count, nil
}

// Create inserts a block within a transaction.
func (r *ScheduleBlockRepository) Create(ctx context.Context, tx pgx.Tx, b *domain.ScheduleBlock) error {
	if b.Source == "" {
		b.Source = domain.ScheduleSourceManual
	}
	if b.Status == "" {
		b.Status = domain.ScheduleStatusScheduled
	}

	query, args, err := psql.
		Insert("schedule_blocks").
		Columns("user_id", "task_id", "start_time", "end_time", "source", "status").
		Values(b.UserID, b.TaskID, b.StartTime, b.EndTime, b.Source, b.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build Create query for schedule block: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return fmt.Errorf("create schedule block: %w", err)
	}
	return nil
}

// Update writes the mutable fields of b and refreshes it from the row.
func (r *ScheduleBlockRepository) Update(ctx context.Context, tx pgx.Tx, b *domain.ScheduleBlock) (*domain.ScheduleBlock, error) {
	query, args, err := psql.
		Update("schedule_blocks").
		Set("start_time", b.StartTime).
		Set("end_time", b.EndTime).
		Set("source", b.Source).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": b.ID}).
		Suffix("RETURNING " + columnList(scheduleBlockColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Update query for schedule block %s: %w", b.ID, err)
	}

	return scanScheduleBlock(tx.QueryRow(ctx, query, args...))
}

// Complete marks a scheduled block completed at completedAt.
func (r *ScheduleBlockRepository) Complete(
	ctx context.Context,
	tx pgx.Tx,
	blockID string,
	completedAt time.Time,
) (*domain.ScheduleBlock, error) {
	query, args, err := psql.
		Update("schedule_blocks").
		Set("status", domain.ScheduleStatusCompleted).
		Set("completed_at", completedAt).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": blockID, "status": domain.ScheduleStatusScheduled}).
		Suffix("RETURNING " + columnList(scheduleBlockColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Complete query for schedule block %s: %w", blockID, err)
	}

	b, err := scanScheduleBlock(tx.QueryRow(ctx, query, args...))
	if errors.Is(err, domain.ErrScheduleBlockNotFound) {
		return nil, domain.ErrScheduleBlockImmutable
	}
	return b, err
}

// Delete removes a block.
func (r *ScheduleBlockRepository) Delete(ctx context.Context, tx pgx.Tx, blockID string) error {
	query, args, err := psql.Delete("schedule_blocks").Where(sq.Eq{"id": blockID}).ToSql()
	if err != nil {
		return fmt.Errorf("build Delete query for schedule block %s: %w", blockID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete schedule block: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrScheduleBlockNotFound
	}
	return nil
}

// DeleteFutureScheduled removes the task's still-scheduled blocks that start
// after now. Past and completed blocks stay as history.
func (r *ScheduleBlockRepository) DeleteFutureScheduled(
	ctx context.Context,
	tx pgx.Tx,
	taskID string,
	now time.Time,
) (int64, error) {
	query, args, err := psql.
		Delete("schedule_blocks").
		Where(sq.Eq{"task_id": taskID, "status": domain.ScheduleStatusScheduled}).
		Where(sq.Gt{"start_time": now}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build DeleteFutureScheduled query: %w", err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete future blocks: %w", err)
	}
	return tag.RowsAffected(), nil
}
