package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/goalflow/internal/domain"
)

// EventLogRepository handles database operations for the event log.
type EventLogRepository struct {
	pool *pgxpool.Pool
}

// NewEventLogRepository creates a new EventLogRepository.
func NewEventLogRepository(pool *pgxpool.Pool) *EventLogRepository {
	return &EventLogRepository{pool: pool}
}

// Create appends an entry inside tx. The entry carries its own ID and timestamp.
func (r *EventLogRepository) Create(ctx context.Context, tx pgx.Tx, entry *domain.EventLogEntry) error {
	query, args, err := psql.
		Insert("event_logs").
		Columns("id", "user_id", "type", "payload", "created_at").
		Values(entry.ID, entry.UserID, entry.Type, entry.Payload, entry.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("create event log entry: %w", err)
	}

	return nil
}

// FindByUser retrieves up to limit entries for a user, newest first.
func (r *EventLogRepository) FindByUser(ctx context.Context, userID string, limit int) ([]*domain.EventLogEntry, error) {
	query, args, err := psql.
		Select("id", "user_id", "type", "payload", "created_at").
		From("event_logs").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query event log: %w", err)
	}
	defer rows.Close()

	entries := []*domain.EventLogEntry{}
	for rows.Next() {
		var entry domain.EventLogEntry
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Type,
			&entry.Payload,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event log entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return entries, nil
}
