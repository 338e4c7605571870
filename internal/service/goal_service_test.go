package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mtlprog/goalflow/internal/domain"
	"github.com/mtlprog/goalflow/internal/repository"
	"github.com/mtlprog/goalflow/internal/service"
)

// GoalServiceTestSuite covers goals and milestones.
type GoalServiceTestSuite struct {
	dbSuite
}

func TestGoalServiceSuite(t *testing.T) {
	suite.Run(t, new(GoalServiceTestSuite))
}

func (s *GoalServiceTestSuite) TestCreateAndList() {
	ctx := context.Background()
	category := "work"

	goal, err := s.goals.Create(ctx, s.userID, service.CreateGoalInput{
		Title:    "Learn Go",
		Deadline: testNow.AddDate(1, 0, 0),
		Category: &category,
	})
	s.Require().NoError(err)
	s.Equal(domain.GoalStatusActive, goal.Status)

	goals, err := s.goals.List(ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(goals, 2)
	s.Equal(goal.ID, goals[0].ID, "newest goal first")

	others, err := s.goals.List(ctx, s.otherUserID)
	s.Require().NoError(err)
	s.Empty(others)
}

func (s *GoalServiceTestSuite) TestGetIncludesMilestonesAndTasks() {
	ctx := context.Background()
	_, err := s.milestones.Create(ctx, s.userID, s.goalID, "Beta", nil)
	s.Require().NoError(err)
	task := s.createTask(s.goalID, "Cut the branch")

	detail, err := s.goals.Get(ctx, s.userID, s.goalID)
	s.Require().NoError(err)
	s.Equal(s.goalID, detail.Goal.ID)
	s.Len(detail.Milestones, 1)
	s.Require().Len(detail.Tasks, 1)
	s.Equal(task.ID, detail.Tasks[0].ID)

	_, err = s.goals.Get(ctx, s.otherUserID, s.goalID)
	s.ErrorIs(err, domain.ErrForbidden)
}

func (s *GoalServiceTestSuite) TestUpdate() {
	ctx := context.Background()
	title := "Ship 2.0"
	status := domain.GoalStatusCompleted

	goal, err := s.goals.Update(ctx, s.userID, s.goalID, domain.GoalPatch{Title: &title, Status: &status})
	s.Require().NoError(err)
	s.Equal("Ship 2.0", goal.Title)
	s.Equal(domain.GoalStatusCompleted, goal.Status)

	invalid := domain.GoalStatus("paused")
	_, err = s.goals.Update(ctx, s.userID, s.goalID, domain.GoalPatch{Status: &invalid})
	s.ErrorIs(err, domain.ErrValidation)

	_, err = s.goals.Update(ctx, s.otherUserID, s.goalID, domain.GoalPatch{Title: &title})
	s.ErrorIs(err, domain.ErrForbidden)
}

func (s *GoalServiceTestSuite) TestDeleteCascadesTasksAndFutureBlocks() {
	ctx := context.Background()
	task := s.createTask(s.goalID, "Planned")
	_, err := s.scheduleBlock(task.ID, at(10, 0), at(11, 0))
	s.Require().NoError(err)

	err = s.goals.Delete(ctx, s.otherUserID, s.goalID)
	s.ErrorIs(err, domain.ErrForbidden)

	s.Require().NoError(s.goals.Delete(ctx, s.userID, s.goalID))

	_, err = s.goals.Get(ctx, s.userID, s.goalID)
	s.ErrorIs(err, domain.ErrGoalNotFound)

	_, err = s.tasks.GetByID(ctx, s.userID, task.ID)
	s.ErrorIs(err, domain.ErrTaskNotFound)

	blocks, err := s.schedule.FindAll(ctx, s.userID)
	s.Require().NoError(err)
	s.Empty(blocks)

	types := s.eventTypes(s.userID)
	s.Contains(types, domain.EventTaskDeleted)
	s.Contains(types, domain.EventGoalDeleted)
}

func (s *GoalServiceTestSuite) TestDeleteWaitsForInFlightTaskCreate() {
	ctx := context.Background()

	tx, err := s.pool.Begin(ctx)
	s.Require().NoError(err)
	defer func() { _ = tx.Rollback(ctx) }()

	task, err := repository.NewTaskRepository(s.pool).Create(ctx, tx, &domain.Task{
		GoalID:           s.goalID,
		Description:      "Late arrival",
		EstimatedMinutes: 30,
	})
	s.Require().NoError(err)
	s.Require().NoError(repository.NewScheduleBlockRepository(s.pool).Create(ctx, tx, &domain.ScheduleBlock{
		UserID:    s.userID,
		TaskID:    task.ID,
		StartTime: at(10, 0),
		EndTime:   at(11, 0),
	}))

	deleted := make(chan error, 1)
	go func() {
		deleted <- s.goals.Delete(ctx, s.userID, s.goalID)
	}()

	// Delete must block on the uncommitted task insert.
	select {
	case err := <-deleted:
		s.FailNow("delete finished before task insert committed", "err: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	s.Require().NoError(tx.Commit(ctx))

	select {
	case err := <-deleted:
		s.Require().NoError(err)
	case <-time.After(5 * time.Second):
		s.FailNow("delete did not finish")
	}

	blocks, err := s.schedule.FindAll(ctx, s.userID)
	s.Require().NoError(err)
	s.Empty(blocks)

	entries, err := s.events.FindByUser(ctx, s.userID, 500)
	s.Require().NoError(err)
	var sawTask bool
	for _, e := range entries {
		if e.Type == domain.EventTaskDeleted && e.PayloadString("task_id") == task.ID {
			sawTask = true
		}
	}
	s.True(sawTask, "task.deleted not logged for task %s", task.ID)
}

func (s *GoalServiceTestSuite) TestRequestBreakdownChecksOwnership() {
	ctx := context.Background()

	_, err := s.goals.RequestBreakdown(ctx, s.otherUserID, s.goalID)
	s.ErrorIs(err, domain.ErrForbidden)

	_, err = s.goals.RequestBreakdown(ctx, s.userID, "00000000-0000-0000-0000-000000000009")
	s.ErrorIs(err, domain.ErrGoalNotFound)

	goal, err := s.goals.RequestBreakdown(ctx, s.userID, s.goalID)
	s.Require().NoError(err)
	s.Equal(s.goalID, goal.ID)
}

func (s *GoalServiceTestSuite) TestMilestoneSequence() {
	ctx := context.Background()

	first, err := s.milestones.Create(ctx, s.userID, s.goalID, "Alpha", nil)
	s.Require().NoError(err)
	second, err := s.milestones.Create(ctx, s.userID, s.goalID, "Beta", nil)
	s.Require().NoError(err)
	s.Equal(0, first.Sequence)
	s.Equal(1, second.Sequence)

	zero := 0
	renamed := "Alpha prime"
	updated, err := s.milestones.Update(ctx, s.userID, second.ID, domain.MilestonePatch{Title: &renamed, Sequence: &zero})
	s.Require().NoError(err)
	s.Equal("Alpha prime", updated.Title)
	s.Equal(0, updated.Sequence)

	list, err := s.milestones.ListByGoal(ctx, s.userID, s.goalID)
	s.Require().NoError(err)
	s.Len(list, 2)

	_, err = s.milestones.Create(ctx, s.otherUserID, s.goalID, "Intruder", nil)
	s.ErrorIs(err, domain.ErrForbidden)

	s.Require().NoError(s.milestones.Delete(ctx, s.userID, first.ID))
	err = s.milestones.Delete(ctx, s.userID, first.ID)
	s.ErrorIs(err, domain.ErrMilestoneNotFound)
}
