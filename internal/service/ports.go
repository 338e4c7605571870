package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mtlprog/goalflow/internal/domain"
	"github.com/mtlprog/goalflow/internal/eventlog"
	"github.com/mtlprog/goalflow/internal/repository"
)

// EventSink records a domain event inside tx. Implementations notify
// subscribers before returning, and an error from any of them must abort tx.
type EventSink interface {
	Log(ctx context.Context, tx pgx.Tx, userID string, t domain.EventType, payload map[string]any) (*domain.EventLogEntry, error)
}

// EventSubscriber registers handlers for event types.
type EventSubscriber interface {
	Subscribe(t domain.EventType, h eventlog.Handler)
}

// TaskReader is the read-only task view the schedule service depends on.
type TaskReader interface {
	GetOwnedTask(ctx context.Context, q repository.DBTX, userID, taskID string) (*domain.Task, error)
	CountIncompleteDependencies(ctx context.Context, q repository.DBTX, taskID string) (int, error)
}

// ScheduleQuery answers the one schedule question the task service asks.
type ScheduleQuery interface {
	CountByTask(ctx context.Context, q repository.DBTX, taskID string) (int, error)
}

// Clock returns the current time.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		slog.Error("failed to rollback transaction", "error", err)
	}
}

// logEventAndCommit records the event in tx, which runs its handlers, then commits.
func logEventAndCommit(
	ctx context.Context,
	tx pgx.Tx,
	events EventSink,
	userID string,
	t domain.EventType,
	payload map[string]any,
) error {
	if _, err := events.Log(ctx, tx, userID, t, payload); err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
