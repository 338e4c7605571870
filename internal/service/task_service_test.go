package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mtlprog/goalflow/internal/domain"
	"github.com/mtlprog/goalflow/internal/repository"
	"github.com/mtlprog/goalflow/internal/service"
)

// TaskServiceTestSuite is the test suite for TaskService.
type TaskServiceTestSuite struct {
	dbSuite
}

func TestTaskServiceSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}

func statusPtr(s domain.TaskStatus) *domain.TaskStatus {
	return &s
}

func (s *TaskServiceTestSuite) TestCreateStartsAsTodo() {
	task := s.createTask(s.goalID, "Write release notes")

	s.Equal(domain.TaskStatusTodo, task.Status)
	s.Equal(s.goalID, task.GoalID)
	s.Nil(task.ActualMinutes)
	s.Contains(s.eventTypes(s.userID), domain.EventTaskCreated)
}

func (s *TaskServiceTestSuite) TestCreateInForeignGoalForbidden() {
	_, err := s.tasks.Create(context.Background(), s.otherUserID, service.CreateTaskInput{
		GoalID:      s.goalID,
		Description: "Sneak in",
	})
	s.ErrorIs(err, domain.ErrForbidden)
}

func (s *TaskServiceTestSuite) TestCreateSubtaskMustShareGoal() {
	ctx := context.Background()
	otherGoal := s.createGoal(s.userID, "Another goal")
	parent := s.createTask(otherGoal, "Parent elsewhere")

	_, err := s.tasks.Create(ctx, s.userID, service.CreateTaskInput{
		GoalID:       s.goalID,
		ParentTaskID: &parent.ID,
		Description:  "Child",
	})
	s.ErrorIs(err, domain.ErrSubtaskGoalMismatch)

	sameGoalParent := s.createTask(s.goalID, "Parent here")
	child, err := s.tasks.Create(ctx, s.userID, service.CreateTaskInput{
		GoalID:       s.goalID,
		ParentTaskID: &sameGoalParent.ID,
		Description:  "Child",
	})
	s.Require().NoError(err)

	detail, err := s.tasks.GetByID(ctx, s.userID, sameGoalParent.ID)
	s.Require().NoError(err)
	s.Require().Len(detail.Subtasks, 1)
	s.Equal(child.ID, detail.Subtasks[0].ID)
}

func (s *TaskServiceTestSuite) TestCreateMilestoneMustShareGoal() {
	ctx := context.Background()
	otherGoal := s.createGoal(s.userID, "Another goal")
	milestone, err := s.milestones.Create(ctx, s.userID, otherGoal, "Elsewhere", nil)
	s.Require().NoError(err)

	_, err = s.tasks.Create(ctx, s.userID, service.CreateTaskInput{
		GoalID:      s.goalID,
		MilestoneID: &milestone.ID,
		Description: "Misfiled",
	})
	s.ErrorIs(err, domain.ErrMilestoneGoalMismatch)
}

func (s *TaskServiceTestSuite) TestUpdateToDoneRejected() {
	task := s.createTask(s.goalID, "Direct to done")

	_, err := s.tasks.Update(context.Background(), s.userID, task.ID, domain.TaskPatch{
		Status: statusPtr(domain.TaskStatusDone),
	})
	s.ErrorIs(err, domain.ErrUseCompleteEndpoint)
}

func (s *TaskServiceTestSuite) TestStatusTransitions() {
	ctx := context.Background()
	task := s.createTask(s.goalID, "Walk the state machine")

	_, err := s.tasks.Update(ctx, s.userID, task.ID, domain.TaskPatch{Status: statusPtr(domain.TaskStatusBlocked)})
	s.ErrorIs(err, domain.ErrInvalidTransition)

	steps := []domain.TaskStatus{
		domain.TaskStatusInProgress,
		domain.TaskStatusBlocked,
		domain.TaskStatusTodo,
	}
	for _, next := range steps {
		updated, err := s.tasks.Update(ctx, s.userID, task.ID, domain.TaskPatch{Status: statusPtr(next)})
		s.Require().NoError(err, "transition to %s", next)
		s.Equal(next, updated.Status)
	}
}

func (s *TaskServiceTestSuite) TestUpdateFieldsRecordsChanges() {
	ctx := context.Background()
	task := s.createTask(s.goalID, "Original")

	description := "Renamed"
	priority := 9.5
	updated, err := s.tasks.Update(ctx, s.userID, task.ID, domain.TaskPatch{
		Description:   &description,
		PriorityScore: &priority,
	})
	s.Require().NoError(err)
	s.Equal("Renamed", updated.Description)
	s.Equal(9.5, updated.PriorityScore)

	entries, err := s.events.FindByUser(ctx, s.userID, 1)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(domain.EventTaskUpdated, entries[0].Type)
	s.Equal(task.ID, entries[0].PayloadString("task_id"))
}

func (s *TaskServiceTestSuite) TestUpdateWithScheduleBlocksLogsWarnings() {
	ctx := context.Background()
	task := s.createTask(s.goalID, "Scheduled work")
	_, err := s.scheduleBlock(task.ID, at(10, 0), at(11, 0))
	s.Require().NoError(err)

	minutes := 90
	priority := 5.0
	_, err = s.tasks.Update(ctx, s.userID, task.ID, domain.TaskPatch{
		EstimatedMinutes: &minutes,
		PriorityScore:    &priority,
	})
	s.Require().NoError(err)

	types := s.eventTypes(s.userID)
	s.Contains(types, domain.EventTaskScheduleInvalidated)
	s.Contains(types, domain.EventTaskScheduleExecutionRisk)
}

func (s *TaskServiceTestSuite) TestUpdateWithoutScheduleBlocksLogsNoWarnings() {
	task := s.createTask(s.goalID, "Unscheduled work")

	minutes := 90
	_, err := s.tasks.Update(context.Background(), s.userID, task.ID, domain.TaskPatch{EstimatedMinutes: &minutes})
	s.Require().NoError(err)

	s.NotContains(s.eventTypes(s.userID), domain.EventTaskScheduleInvalidated)
}

func (s *TaskServiceTestSuite) TestCompleteAfterDependencyDone() {
	ctx := context.Background()
	a := s.createTask(s.goalID, "A")
	b := s.createTask(s.goalID, "B")

	_, err := s.tasks.AddDependency(ctx, s.userID, a.ID, b.ID)
	s.Require().NoError(err)

	minutes := 40
	_, err = s.tasks.Complete(ctx, s.userID, a.ID, &minutes)
	s.ErrorIs(err, domain.ErrIncompleteDependencies)

	s.completeTask(b.ID)

	done, err := s.tasks.Complete(ctx, s.userID, a.ID, &minutes)
	s.Require().NoError(err)
	s.Equal(domain.TaskStatusDone, done.Status)
	s.Require().NotNil(done.ActualMinutes)
	s.Equal(40, *done.ActualMinutes)
}

func (s *TaskServiceTestSuite) TestCompleteRequiresActualMinutes() {
	task := s.createTask(s.goalID, "No effort recorded")

	_, err := s.tasks.Complete(context.Background(), s.userID, task.ID, nil)
	s.ErrorIs(err, domain.ErrActualMinutesRequired)
}

func (s *TaskServiceTestSuite) TestDoneTaskIsTerminal() {
	ctx := context.Background()
	task := s.createTask(s.goalID, "Finish once")
	s.completeTask(task.ID)

	minutes := 10
	_, err := s.tasks.Complete(ctx, s.userID, task.ID, &minutes)
	s.ErrorIs(err, domain.ErrTaskAlreadyCompleted)

	_, err = s.tasks.Update(ctx, s.userID, task.ID, domain.TaskPatch{Status: statusPtr(domain.TaskStatusTodo)})
	s.ErrorIs(err, domain.ErrInvalidTransition)

	err = s.tasks.Delete(ctx, s.userID, task.ID)
	s.ErrorIs(err, domain.ErrCompletedTaskNotDeleted)
}

func (s *TaskServiceTestSuite) TestDeleteWithOpenDependentsRejected() {
	ctx := context.Background()
	a := s.createTask(s.goalID, "Dependent")
	b := s.createTask(s.goalID, "Prerequisite")

	_, err := s.tasks.AddDependency(ctx, s.userID, a.ID, b.ID)
	s.Require().NoError(err)

	err = s.tasks.Delete(ctx, s.userID, b.ID)
	s.ErrorIs(err, domain.ErrIncompleteDependents)

	s.Require().NoError(s.tasks.Delete(ctx, s.userID, a.ID))
	s.Require().NoError(s.tasks.Delete(ctx, s.userID, b.ID))

	_, err = s.tasks.GetByID(ctx, s.userID, b.ID)
	s.ErrorIs(err, domain.ErrTaskNotFound)
}

func (s *TaskServiceTestSuite) TestDependencyCycleRejected() {
	ctx := context.Background()
	a := s.createTask(s.goalID, "A")
	b := s.createTask(s.goalID, "B")
	c := s.createTask(s.goalID, "C")

	// C depends on B, B depends on A.
	_, err := s.tasks.AddDependency(ctx, s.userID, c.ID, b.ID)
	s.Require().NoError(err)
	_, err = s.tasks.AddDependency(ctx, s.userID, b.ID, a.ID)
	s.Require().NoError(err)

	_, err = s.tasks.AddDependency(ctx, s.userID, a.ID, c.ID)
	s.ErrorIs(err, domain.ErrCyclicDependency)
	s.ErrorIs(err, domain.ErrInvariantViolation)
}

func (s *TaskServiceTestSuite) TestDependencyRules() {
	ctx := context.Background()
	a := s.createTask(s.goalID, "A")
	b := s.createTask(s.goalID, "B")
	foreign := s.createTask(s.createGoal(s.userID, "Elsewhere"), "Foreign")

	_, err := s.tasks.AddDependency(ctx, s.userID, a.ID, a.ID)
	s.ErrorIs(err, domain.ErrSelfDependency)

	_, err = s.tasks.AddDependency(ctx, s.userID, a.ID, foreign.ID)
	s.ErrorIs(err, domain.ErrDependencyGoalMismatch)

	dep, err := s.tasks.AddDependency(ctx, s.userID, a.ID, b.ID)
	s.Require().NoError(err)
	s.Equal(a.ID, dep.TaskID)
	s.Equal(b.ID, dep.DependsOnTaskID)

	_, err = s.tasks.AddDependency(ctx, s.userID, a.ID, b.ID)
	s.ErrorIs(err, domain.ErrDependencyExists)

	_, err = s.tasks.AddDependency(ctx, s.otherUserID, a.ID, b.ID)
	s.ErrorIs(err, domain.ErrForbidden)
}

func (s *TaskServiceTestSuite) TestRemoveDependency() {
	ctx := context.Background()
	a := s.createTask(s.goalID, "A")
	b := s.createTask(s.goalID, "B")

	err := s.tasks.RemoveDependency(ctx, s.userID, a.ID, b.ID)
	s.ErrorIs(err, domain.ErrDependencyNotFound)

	_, err = s.tasks.AddDependency(ctx, s.userID, a.ID, b.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.tasks.RemoveDependency(ctx, s.userID, a.ID, b.ID))

	detail, err := s.tasks.GetByID(ctx, s.userID, a.ID)
	s.Require().NoError(err)
	s.Empty(detail.Dependencies)
	s.Contains(s.eventTypes(s.userID), domain.EventTaskDependencyRemoved)
}

func (s *TaskServiceTestSuite) TestConcurrentOppositeEdgesNeverFormCycle() {
	ctx := context.Background()
	a := s.createTask(s.goalID, "A")
	b := s.createTask(s.goalID, "B")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	pairs := [][2]string{{a.ID, b.ID}, {b.ID, a.ID}}

	for i, p := range pairs {
		wg.Add(1)
		go func(i int, from, to string) {
			defer wg.Done()
			_, errs[i] = s.tasks.AddDependency(ctx, s.userID, from, to)
		}(i, p[0], p[1])
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, domain.ErrCyclicDependency)
	}
	s.Equal(1, succeeded)
}

func (s *TaskServiceTestSuite) TestListByGoalFiltersAndOrder() {
	ctx := context.Background()

	low := s.createTask(s.goalID, "Low")
	high, err := s.tasks.Create(ctx, s.userID, service.CreateTaskInput{
		GoalID:        s.goalID,
		Description:   "High",
		PriorityScore: 10,
	})
	s.Require().NoError(err)
	s.completeTask(low.ID)

	all, err := s.tasks.ListByGoal(ctx, s.userID, repository.TaskListFilters{GoalID: s.goalID})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(high.ID, all[0].ID)

	again, err := s.tasks.ListByGoal(ctx, s.userID, repository.TaskListFilters{GoalID: s.goalID})
	s.Require().NoError(err)
	s.Equal(all, again)

	open, err := s.tasks.ListByGoal(ctx, s.userID, repository.TaskListFilters{
		GoalID:   s.goalID,
		Statuses: []domain.TaskStatus{domain.TaskStatusTodo},
	})
	s.Require().NoError(err)
	s.Require().Len(open, 1)
	s.Equal(high.ID, open[0].ID)

	_, err = s.tasks.ListByGoal(ctx, s.otherUserID, repository.TaskListFilters{GoalID: s.goalID})
	s.ErrorIs(err, domain.ErrForbidden)
}
