package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/goalflow/internal/domain"
	"github.com/mtlprog/goalflow/internal/invariant"
	"github.com/mtlprog/goalflow/internal/repository"
)

// CreateScheduleBlockInput carries the fields of a new schedule block.
type CreateScheduleBlockInput struct {
	TaskID    string
	StartTime time.Time
	EndTime   time.Time
	Source    domain.ScheduleSource
}

// ScheduleService coordinates schedule blocks: placement checks, the
// scheduled -> completed lifecycle and the task deletion cascade.
type ScheduleService struct {
	pool      *pgxpool.Pool
	blockRepo *repository.ScheduleBlockRepository
	tasks     TaskReader
	events    EventSink
	now       Clock
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(
	pool *pgxpool.Pool,
	blockRepo *repository.ScheduleBlockRepository,
	tasks TaskReader,
	events EventSink,
) *ScheduleService {
	return &ScheduleService{
		pool:      pool,
		blockRepo: blockRepo,
		tasks:     tasks,
		events:    events,
		now:       systemClock,
	}
}

// SetClock replaces the time source used for completion and the cascade.
func (s *ScheduleService) SetClock(c Clock) {
	s.now = c
}

// RegisterHandlers subscribes the service to the events it reacts to.
func (s *ScheduleService) RegisterHandlers(sub EventSubscriber) {
	sub.Subscribe(domain.EventTaskDeleted, s.handleTaskDeleted)
}

// handleTaskDeleted drops the deleted task's future blocks that are still scheduled.
func (s *ScheduleService) handleTaskDeleted(ctx context.Context, tx pgx.Tx, entry *domain.EventLogEntry) error {
	taskID := entry.PayloadString("task_id")
	if taskID == "" {
		return fmt.Errorf("%s event %s has no task_id", entry.Type, entry.ID)
	}

	removed, err := s.blockRepo.DeleteFutureScheduled(ctx, tx, taskID, s.now())
	if err != nil {
		return err
	}

	if removed > 0 {
		slog.Info("future schedule blocks removed",
			"task_id", taskID,
			"user_id", entry.UserID,
			"count", removed,
		)
	}

	return nil
}

// ownedBlock loads a block and fails closed unless userID owns it.
func (s *ScheduleService) ownedBlock(ctx context.Context, tx pgx.Tx, userID, blockID string) (*domain.ScheduleBlock, error) {
	block, err := s.blockRepo.GetByID(ctx, tx, blockID)
	if err != nil {
		return nil, err
	}
	if block.UserID != userID {
		return nil, fmt.Errorf("%w: schedule block %s", domain.ErrForbidden, blockID)
	}
	return block, nil
}

// Create places a block for a task the caller owns.
func (s *ScheduleService) Create(ctx context.Context, userID string, input CreateScheduleBlockInput) (*domain.ScheduleBlock, error) {
	if err := invariant.AssertValidTimeRange(input.StartTime, input.EndTime); err != nil {
		return nil, err
	}
	if input.Source == "" {
		input.Source = domain.ScheduleSourceManual
	}
	if !input.Source.IsValid() {
		return nil, fmt.Errorf("%w: unknown source %q", domain.ErrValidation, input.Source)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	if err := s.blockRepo.LockUser(ctx, tx, userID); err != nil {
		return nil, err
	}

	task, err := s.tasks.GetOwnedTask(ctx, tx, userID, input.TaskID)
	if err != nil {
		return nil, err
	}

	pending, err := s.tasks.CountIncompleteDependencies(ctx, tx, task.ID)
	if err != nil {
		return nil, err
	}
	if err := invariant.AssertTaskCanBeScheduled(task.Status, pending); err != nil {
		return nil, err
	}

	overlaps, err := s.blockRepo.CountOverlaps(ctx, tx, userID, input.StartTime, input.EndTime, nil)
	if err != nil {
		return nil, err
	}
	if err := invariant.AssertNoScheduleOverlap(overlaps); err != nil {
		return nil, err
	}

	block := &domain.ScheduleBlock{
		UserID:    userID,
		TaskID:    task.ID,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		Source:    input.Source,
		Status:    domain.ScheduleStatusScheduled,
	}
	if err := s.blockRepo.Create(ctx, tx, block); err != nil {
		return nil, err
	}

	err = logEventAndCommit(ctx, tx, s.events, userID, domain.EventScheduleCreated, map[string]any{
		"schedule_block_id": block.ID,
		"task_id":           task.ID,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("schedule block created",
		"schedule_block_id", block.ID,
		"task_id", task.ID,
		"user_id", userID,
	)

	return block, nil
}

// FindAll lists the caller's blocks ordered by start time.
func (s *ScheduleService) FindAll(ctx context.Context, userID string) ([]*domain.ScheduleBlock, error) {
	return s.blockRepo.FindAllByUser(ctx, userID)
}

// Update moves or relabels a scheduled block. Completion must go through Complete.
func (s *ScheduleService) Update(
	ctx context.Context,
	userID, blockID string,
	patch domain.SchedulePatch,
) (*domain.ScheduleBlock, error) {
	if (patch.Status != nil && *patch.Status == domain.ScheduleStatusCompleted) || patch.CompletedAt != nil {
		return nil, domain.ErrUseScheduleCompleteEndpoint
	}
	if patch.Source != nil && !patch.Source.IsValid() {
		return nil, fmt.Errorf("%w: unknown source %q", domain.ErrValidation, *patch.Source)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	if err := s.blockRepo.LockUser(ctx, tx, userID); err != nil {
		return nil, err
	}

	block, err := s.ownedBlock(ctx, tx, userID, blockID)
	if err != nil {
		return nil, err
	}
	if err := invariant.AssertScheduleBlockIsMutable(block.Status); err != nil {
		return nil, err
	}

	if patch.ChangesTimeRange() {
		if patch.StartTime != nil {
			block.StartTime = *patch.StartTime
		}
		if patch.EndTime != nil {
			block.EndTime = *patch.EndTime
		}

		if err := invariant.AssertValidTimeRange(block.StartTime, block.EndTime); err != nil {
			return nil, err
		}

		overlaps, err := s.blockRepo.CountOverlaps(ctx, tx, userID, block.StartTime, block.EndTime, &block.ID)
		if err != nil {
			return nil, err
		}
		if err := invariant.AssertNoScheduleOverlap(overlaps); err != nil {
			return nil, err
		}
	}

	if patch.Source != nil {
		block.Source = *patch.Source
	}

	updated, err := s.blockRepo.Update(ctx, tx, block)
	if err != nil {
		return nil, err
	}

	err = logEventAndCommit(ctx, tx, s.events, userID, domain.EventScheduleUpdated, map[string]any{
		"schedule_block_id": blockID,
		"task_id":           block.TaskID,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("schedule block updated", "schedule_block_id", blockID, "user_id", userID)

	return updated, nil
}

// Complete marks a scheduled block completed. The task's dependencies must
// all be done at completion time, not only when the block was placed.
func (s *ScheduleService) Complete(ctx context.Context, userID, blockID string) (*domain.ScheduleBlock, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	block, err := s.ownedBlock(ctx, tx, userID, blockID)
	if err != nil {
		return nil, err
	}
	if err := invariant.AssertScheduleBlockIsMutable(block.Status); err != nil {
		return nil, err
	}

	pending, err := s.tasks.CountIncompleteDependencies(ctx, tx, block.TaskID)
	if err != nil {
		return nil, err
	}
	if err := invariant.AssertTaskDependenciesComplete(pending); err != nil {
		return nil, err
	}

	completed, err := s.blockRepo.Complete(ctx, tx, blockID, s.now().Truncate(time.Microsecond))
	if err != nil {
		return nil, err
	}

	err = logEventAndCommit(ctx, tx, s.events, userID, domain.EventScheduleCompleted, map[string]any{
		"schedule_block_id": blockID,
		"task_id":           block.TaskID,
		"completed_at":      completed.CompletedAt,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("schedule block completed",
		"schedule_block_id", blockID,
		"task_id", block.TaskID,
		"user_id", userID,
	)

	return completed, nil
}

// Delete removes a scheduled block.
func (s *ScheduleService) Delete(ctx context.Context, userID, blockID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	block, err := s.ownedBlock(ctx, tx, userID, blockID)
	if err != nil {
		return err
	}
	if err := invariant.AssertScheduleBlockIsMutable(block.Status); err != nil {
		return err
	}

	if err := s.blockRepo.Delete(ctx, tx, blockID); err != nil {
		return err
	}

	err = logEventAndCommit(ctx, tx, s.events, userID, domain.EventScheduleDeleted, map[string]any{
		"schedule_block_id": blockID,
		"task_id":           block.TaskID,
	})
	if err != nil {
		return err
	}

	slog.Info("schedule block deleted", "schedule_block_id", blockID, "user_id", userID)

	return nil
}
