package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/goalflow/internal/domain"
	"github.com/mtlprog/goalflow/internal/repository"
)

// MilestoneService manages the ordered checkpoints of a goal.
type MilestoneService struct {
	pool          *pgxpool.Pool
	milestoneRepo *repository.MilestoneRepository
	goals         *GoalService
	events        EventSink
}

// NewMilestoneService creates a new MilestoneService.
func NewMilestoneService(
	pool *pgxpool.Pool,
	milestoneRepo *repository.MilestoneRepository,
	goals *GoalService,
	events EventSink,
) *MilestoneService {
	return &MilestoneService{
		pool:          pool,
		milestoneRepo: milestoneRepo,
		goals:         goals,
		events:        events,
	}
}

func (s *MilestoneService) ownedMilestone(
	ctx context.Context,
	q repository.DBTX,
	userID, milestoneID string,
) (*domain.Milestone, error) {
	m, err := s.milestoneRepo.GetByID(ctx, q, milestoneID)
	if err != nil {
		return nil, err
	}
	if _, err := s.goals.ownedGoal(ctx, q, userID, m.GoalID); err != nil {
		return nil, err
	}
	return m, nil
}

// Create adds a milestone. A nil sequence appends it after the existing ones.
func (s *MilestoneService) Create(ctx context.Context, userID, goalID, title string, sequence *int) (*domain.Milestone, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	if _, err := s.goals.ownedGoal(ctx, tx, userID, goalID); err != nil {
		return nil, err
	}

	m := &domain.Milestone{GoalID: goalID, Title: title}
	if sequence != nil {
		m.Sequence = *sequence
	} else {
		count, err := s.milestoneRepo.CountByGoal(ctx, tx, goalID)
		if err != nil {
			return nil, err
		}
		m.Sequence = count
	}

	if err := s.milestoneRepo.Create(ctx, tx, m); err != nil {
		return nil, err
	}

	err = logEventAndCommit(ctx, tx, s.events, userID, domain.EventMilestoneCreated, map[string]any{
		"milestone_id": m.ID,
		"goal_id":      goalID,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("milestone created", "milestone_id", m.ID, "goal_id", goalID, "sequence", m.Sequence)

	return m, nil
}

// ListByGoal returns a goal's milestones in sequence order.
func (s *MilestoneService) ListByGoal(ctx context.Context, userID, goalID string) ([]*domain.Milestone, error) {
	if _, err := s.goals.ownedGoal(ctx, nil, userID, goalID); err != nil {
		return nil, err
	}
	return s.milestoneRepo.ListByGoal(ctx, goalID)
}

// Update renames or reorders a milestone.
func (s *MilestoneService) Update(
	ctx context.Context,
	userID, milestoneID string,
	patch domain.MilestonePatch,
) (*domain.Milestone, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	m, err := s.ownedMilestone(ctx, tx, userID, milestoneID)
	if err != nil {
		return nil, err
	}

	updated, err := s.milestoneRepo.Update(ctx, tx, milestoneID, patch)
	if err != nil {
		return nil, err
	}

	err = logEventAndCommit(ctx, tx, s.events, userID, domain.EventMilestoneUpdated, map[string]any{
		"milestone_id": milestoneID,
		"goal_id":      m.GoalID,
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes a milestone. Its tasks stay in the goal.
func (s *MilestoneService) Delete(ctx context.Context, userID, milestoneID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	m, err := s.ownedMilestone(ctx, tx, userID, milestoneID)
	if err != nil {
		return err
	}

	if err := s.milestoneRepo.Delete(ctx, tx, milestoneID); err != nil {
		return err
	}

	err = logEventAndCommit(ctx, tx, s.events, userID, domain.EventMilestoneDeleted, map[string]any{
		"milestone_id": milestoneID,
		"goal_id":      m.GoalID,
	})
	if err != nil {
		return err
	}

	slog.Info("milestone deleted", "milestone_id", milestoneID, "user_id", userID)

	return nil
}
