package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/goalflow/internal/domain"
)

// StatsFilters holds filters for statistics queries.
type StatsFilters struct {
	UserID      string
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// TaskStatsResult holds task statistics across a user's goals.
type TaskStatsResult struct {
	TasksByStatus             map[string]int
	TasksCompleted            int
	EstimatedMinutesCompleted int
	ActualMinutesCompleted    int
}

// ScheduleStatsResult holds schedule block statistics for a period.
type ScheduleStatsResult struct {
	BlocksScheduled  int
	BlocksCompleted  int
	MinutesScheduled int
	MinutesCompleted int
}

// StatsRepository runs the aggregate queries behind the stats endpoint.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// GetTaskStats retrieves task statistics for a user.
func (r *StatsRepository) GetTaskStats(ctx context.Context, filters StatsFilters) (*TaskStatsResult, error) {
	// Current state, not historical
	tasksByStatus := make(map[string]int)
	rows, err := r.pool.Query(ctx, `
		SELECT t.status, COUNT(*)
		FROM tasks t
		JOIN goals g ON g.id = t.goal_id
		WHERE g.user_id = $1
		GROUP BY t.status
	`, filters.UserID)
	if err != nil {
		return nil, fmt.Errorf("query tasks by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		tasksByStatus[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status rows: %w", err)
	}

	result := &TaskStatsResult{TasksByStatus: tasksByStatus}
	err = r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(t.estimated_minutes), 0),
			COALESCE(SUM(t.actual_minutes), 0)
		FROM tasks t
		JOIN goals g ON g.id = t.goal_id
		WHERE g.user_id = $1
		  AND t.status = $2
		  AND t.updated_at >= $3 AND t.updated_at <= $4
	`, filters.UserID, domain.TaskStatusDone, filters.PeriodStart, filters.PeriodEnd).Scan(
		&result.TasksCompleted,
		&result.EstimatedMinutesCompleted,
		&result.ActualMinutesCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("count completed tasks: %w", err)
	}

	return result, nil
}

// GetScheduleStats retrieves schedule block statistics for a user.
func (r *StatsRepository) GetScheduleStats(ctx context.Context, filters StatsFilters) (*ScheduleStatsResult, error) {
	var result ScheduleStatsResult
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN status = $4 THEN 1 END),
			COALESCE(SUM(EXTRACT(EPOCH FROM (end_time - start_time)) / 60), 0)::int,
			COALESCE(SUM(CASE WHEN status = $4 THEN EXTRACT(EPOCH FROM (end_time - start_time)) / 60 END), 0)::int
		FROM schedule_blocks
		WHERE user_id = $1 AND start_time >= $2 AND start_time <= $3
	`, filters.UserID, filters.PeriodStart, filters.PeriodEnd, domain.ScheduleStatusCompleted).Scan(
		&result.BlocksScheduled,
		&result.BlocksCompleted,
		&result.MinutesScheduled,
		&result.MinutesCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("query schedule stats: %w", err)
	}

	return &result, nil
}
