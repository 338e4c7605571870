// Package eventlog records domain events and fans them out to in-process
// subscribers. Fan-out is synchronous and runs inside the caller's
// transaction, so a failing handler rolls back the operation that emitted
// the event.
package eventlog

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/mtlprog/goalflow/internal/domain"
)

// Handler reacts to an event inside the transaction that recorded it.
type Handler func(ctx context.Context, tx pgx.Tx, entry *domain.EventLogEntry) error

// Dispatcher is a registry of handlers keyed by event type.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[domain.EventType][]Handler
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[domain.EventType][]Handler),
	}
}

// Subscribe registers h for events of type t. Handlers run in registration order.
func (d *Dispatcher) Subscribe(t domain.EventType, h Handler) {
	d.mu.Lock()
	d.handlers[t] = append(d.handlers[t], h)
	d.mu.Unlock()
}

// Dispatch runs every handler registered for entry.Type and stops at the first error.
func (d *Dispatcher) Dispatch(ctx context.Context, tx pgx.Tx, entry *domain.EventLogEntry) error {
	d.mu.RLock()
	handlers := d.handlers[entry.Type]
	d.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, tx, entry); err != nil {
			return fmt.Errorf("handle %s: %w", entry.Type, err)
		}
	}
	return nil
}

// HandlerCount returns the number of handlers registered for t.
func (d *Dispatcher) HandlerCount(t domain.EventType) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[t])
}
