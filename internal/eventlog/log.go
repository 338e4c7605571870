package eventlog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mtlprog/goalflow/internal/domain"
)

// Store persists event log entries.
type Store interface {
	Create(ctx context.Context, tx pgx.Tx, entry *domain.EventLogEntry) error
	FindByUser(ctx context.Context, userID string, limit int) ([]*domain.EventLogEntry, error)
}

// Log appends events and notifies subscribers.
type Log struct {
	store      Store
	dispatcher *Dispatcher
	now        func() time.Time
}

// New creates a Log over store that dispatches through d.
func New(store Store, d *Dispatcher) *Log {
	return &Log{
		store:      store,
		dispatcher: d,
		now:        time.Now,
	}
}

// Log records an event in tx and then runs its handlers in the same tx.
func (l *Log) Log(
	ctx context.Context,
	tx pgx.Tx,
	userID string,
	eventType domain.EventType,
	payload map[string]any,
) (*domain.EventLogEntry, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate event id: %w", err)
	}
	if payload == nil {
		payload = map[string]any{}
	}

	entry := &domain.EventLogEntry{
		ID:        id.String(),
		UserID:    userID,
		Type:      eventType,
		Payload:   payload,
		CreatedAt: l.now().UTC().Truncate(time.Microsecond),
	}

	if err := l.store.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("record %s: %w", eventType, err)
	}

	if err := l.dispatcher.Dispatch(ctx, tx, entry); err != nil {
		return nil, err
	}

	slog.Debug("event logged", "event_id", entry.ID, "type", entry.Type, "user_id", userID)

	return entry, nil
}

// FindByUser returns up to limit events for userID, newest first.
func (l *Log) FindByUser(ctx context.Context, userID string, limit int) ([]*domain.EventLogEntry, error) {
	return l.store.FindByUser(ctx, userID, limit)
}
