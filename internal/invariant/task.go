// Package invariant holds the pure business-rule predicates for tasks and
// schedule blocks. Every function returns nil when the rule holds and a
// *domain.InvariantError (possibly wrapped with detail) when it does not.
// Nothing here touches storage; callers load the state and pass it in.
package invariant

import (
	"fmt"

	"github.com/mtlprog/goalflow/internal/domain"
)

// allowedTransitions is the task state machine. done has no exits.
var allowedTransitions = map[domain.TaskStatus][]domain.TaskStatus{
	domain.TaskStatusTodo:       {domain.TaskStatusInProgress},
	domain.TaskStatusInProgress: {domain.TaskStatusDone, domain.TaskStatusBlocked},
	domain.TaskStatusBlocked:    {domain.TaskStatusTodo},
	domain.TaskStatusDone:       {},
}

// AssertTaskCanBeCompleted checks that a task is open, unblocked by dependencies
// and that the actual effort is known.
func AssertTaskCanBeCompleted(status domain.TaskStatus, incompleteDependencyCount int, actualMinutes *int) error {
	if status == domain.TaskStatusDone {
		return domain.ErrTaskAlreadyCompleted
	}
	if incompleteDependencyCount > 0 {
		return fmt.Errorf("%w: %d dependencies still open", domain.ErrIncompleteDependencies, incompleteDependencyCount)
	}
	if actualMinutes == nil || *actualMinutes <= 0 {
		return domain.ErrActualMinutesRequired
	}
	return nil
}

// AssertTaskDeletable checks that a task is not done and nothing open depends on it.
func AssertTaskDeletable(status domain.TaskStatus, incompleteDependentsCount int) error {
	if status == domain.TaskStatusDone {
		return domain.ErrCompletedTaskNotDeleted
	}
	if incompleteDependentsCount > 0 {
		return fmt.Errorf("%w: %d dependents still open", domain.ErrIncompleteDependents, incompleteDependentsCount)
	}
	return nil
}

// AssertValidDependency rejects self-loops.
func AssertValidDependency(taskID, dependsOnTaskID string) error {
	if taskID == dependsOnTaskID {
		return domain.ErrSelfDependency
	}
	return nil
}

// AssertDependencyWithinSameGoal rejects edges that cross goals.
func AssertDependencyWithinSameGoal(goalIDA, goalIDB string) error {
	if goalIDA != goalIDB {
		return domain.ErrDependencyGoalMismatch
	}
	return nil
}

// AssertNoDependencyCycle rejects the edge taskID -> dependsOnTaskID when taskID is
// already among the tasks dependsOnTaskID transitively requires.
func AssertNoDependencyCycle(taskID, dependsOnTaskID string, transitiveDependencyIDs map[string]struct{}) error {
	if _, ok := transitiveDependencyIDs[taskID]; ok {
		return fmt.Errorf("%w: %s already depends on %s", domain.ErrCyclicDependency, dependsOnTaskID, taskID)
	}
	return nil
}

// AssertValidTaskStatusTransition checks the edge from -> to against the state machine.
func AssertValidTaskStatusTransition(from, to domain.TaskStatus) error {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
}

// AssertValidSubtask requires a subtask to live in its parent's goal.
func AssertValidSubtask(parentGoalID, subtaskGoalID string) error {
	if parentGoalID != subtaskGoalID {
		return domain.ErrSubtaskGoalMismatch
	}
	return nil
}

// AssertMilestoneWithinGoal requires a task's milestone to live in the task's goal.
func AssertMilestoneWithinGoal(milestoneGoalID, taskGoalID string) error {
	if milestoneGoalID != taskGoalID {
		return domain.ErrMilestoneGoalMismatch
	}
	return nil
}

// DetectScheduleInvalidation reports whether the patch changes the estimate,
// which makes existing schedule blocks for the task stale.
func DetectScheduleInvalidation(original *domain.Task, patch domain.TaskPatch) bool {
	return patch.EstimatedMinutes != nil && *patch.EstimatedMinutes != original.EstimatedMinutes
}

// DetectScheduleExecutionRisk reports whether the patch newly blocks the task or
// reprioritises it.
func DetectScheduleExecutionRisk(original *domain.Task, patch domain.TaskPatch) bool {
	if patch.Status != nil && *patch.Status == domain.TaskStatusBlocked && original.Status != domain.TaskStatusBlocked {
		return true
	}
	return patch.PriorityScore != nil && *patch.PriorityScore != original.PriorityScore
}
