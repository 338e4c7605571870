package invariant_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/goalflow/internal/domain"
	"github.com/mtlprog/goalflow/internal/invariant"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func statusPtr(s domain.TaskStatus) *domain.TaskStatus { return &s }

func TestAssertValidTaskStatusTransition(t *testing.T) {
	statuses := []domain.TaskStatus{
		domain.TaskStatusTodo,
		domain.TaskStatusInProgress,
		domain.TaskStatusBlocked,
		domain.TaskStatusDone,
	}
	legal := map[[2]domain.TaskStatus]bool{
		{domain.TaskStatusTodo, domain.TaskStatusInProgress}:    true,
		{domain.TaskStatusInProgress, domain.TaskStatusDone}:    true,
		{domain.TaskStatusInProgress, domain.TaskStatusBlocked}: true,
		{domain.TaskStatusBlocked, domain.TaskStatusTodo}:       true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			err := invariant.AssertValidTaskStatusTransition(from, to)
			if legal[[2]domain.TaskStatus{from, to}] {
				assert.NoError(t, err, "%s -> %s", from, to)
				continue
			}
			assert.ErrorIs(t, err, domain.ErrInvalidTransition, "%s -> %s", from, to)
			assert.ErrorIs(t, err, domain.ErrInvariantViolation)
		}
	}
}

func TestAssertTaskCanBeCompleted(t *testing.T) {
	tests := []struct {
		name       string
		status     domain.TaskStatus
		incomplete int
		actual     *int
		wantErr    error
	}{
		{"in progress with minutes", domain.TaskStatusInProgress, 0, intPtr(30), nil},
		{"todo with minutes", domain.TaskStatusTodo, 0, intPtr(1), nil},
		{"already done", domain.TaskStatusDone, 0, intPtr(30), domain.ErrTaskAlreadyCompleted},
		{"open dependencies", domain.TaskStatusInProgress, 2, intPtr(30), domain.ErrIncompleteDependencies},
		{"missing minutes", domain.TaskStatusInProgress, 0, nil, domain.ErrActualMinutesRequired},
		{"zero minutes", domain.TaskStatusInProgress, 0, intPtr(0), domain.ErrActualMinutesRequired},
		{"negative minutes", domain.TaskStatusInProgress, 0, intPtr(-5), domain.ErrActualMinutesRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := invariant.AssertTaskCanBeCompleted(tt.status, tt.incomplete, tt.actual)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAssertTaskDeletable(t *testing.T) {
	assert.NoError(t, invariant.AssertTaskDeletable(domain.TaskStatusTodo, 0))
	assert.NoError(t, invariant.AssertTaskDeletable(domain.TaskStatusBlocked, 0))
	assert.ErrorIs(t, invariant.AssertTaskDeletable(domain.TaskStatusDone, 0), domain.ErrCompletedTaskNotDeleted)
	assert.ErrorIs(t, invariant.AssertTaskDeletable(domain.TaskStatusTodo, 1), domain.ErrIncompleteDependents)
}

func TestDependencyRules(t *testing.T) {
	assert.ErrorIs(t, invariant.AssertValidDependency("a", "a"), domain.ErrSelfDependency)
	assert.NoError(t, invariant.AssertValidDependency("a", "b"))

	assert.ErrorIs(t, invariant.AssertDependencyWithinSameGoal("g1", "g2"), domain.ErrDependencyGoalMismatch)
	assert.NoError(t, invariant.AssertDependencyWithinSameGoal("g1", "g1"))

	reachable := map[string]struct{}{"b": {}, "c": {}}
	err := invariant.AssertNoDependencyCycle("c", "a", reachable)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCyclicDependency)
	assert.NoError(t, invariant.AssertNoDependencyCycle("d", "a", reachable))
	assert.NoError(t, invariant.AssertNoDependencyCycle("d", "a", nil))
}

func TestAssertValidSubtask(t *testing.T) {
	assert.NoError(t, invariant.AssertValidSubtask("g1", "g1"))
	assert.ErrorIs(t, invariant.AssertValidSubtask("g1", "g2"), domain.ErrSubtaskGoalMismatch)
	assert.ErrorIs(t, invariant.AssertMilestoneWithinGoal("g1", "g2"), domain.ErrMilestoneGoalMismatch)
}

func TestDetectScheduleInvalidation(t *testing.T) {
	original := &domain.Task{EstimatedMinutes: 30, PriorityScore: 1, Status: domain.TaskStatusTodo}

	assert.False(t, invariant.DetectScheduleInvalidation(original, domain.TaskPatch{}))
	assert.False(t, invariant.DetectScheduleInvalidation(original, domain.TaskPatch{EstimatedMinutes: intPtr(30)}))
	assert.True(t, invariant.DetectScheduleInvalidation(original, domain.TaskPatch{EstimatedMinutes: intPtr(45)}))
	assert.False(t, invariant.DetectScheduleInvalidation(original, domain.TaskPatch{PriorityScore: floatPtr(9)}))
}

func TestDetectScheduleExecutionRisk(t *testing.T) {
	inProgress := &domain.Task{EstimatedMinutes: 30, PriorityScore: 1, Status: domain.TaskStatusInProgress}
	blocked := &domain.Task{EstimatedMinutes: 30, PriorityScore: 1, Status: domain.TaskStatusBlocked}

	assert.True(t, invariant.DetectScheduleExecutionRisk(inProgress, domain.TaskPatch{Status: statusPtr(domain.TaskStatusBlocked)}))
	assert.False(t, invariant.DetectScheduleExecutionRisk(blocked, domain.TaskPatch{Status: statusPtr(domain.TaskStatusBlocked)}))
	assert.True(t, invariant.DetectScheduleExecutionRisk(inProgress, domain.TaskPatch{PriorityScore: floatPtr(2)}))
	assert.False(t, invariant.DetectScheduleExecutionRisk(inProgress, domain.TaskPatch{PriorityScore: floatPtr(1)}))
	assert.False(t, invariant.DetectScheduleExecutionRisk(inProgress, domain.TaskPatch{EstimatedMinutes: intPtr(90)}))
}
