package invariant

import (
	"fmt"
	"time"

	"github.com/mtlprog/goalflow/internal/domain"
)

// AssertValidTimeRange requires start < end.
func AssertValidTimeRange(start, end time.Time) error {
	if !start.Before(end) {
		return fmt.Errorf("%w: %s >= %s", domain.ErrInvalidTimeRange,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

// AssertNoScheduleOverlap fails on any overlapping block. The caller counts
// blocks intersecting [start, end), excluding the block being updated.
func AssertNoScheduleOverlap(overlappingCount int) error {
	if overlappingCount != 0 {
		return domain.ErrScheduleOverlap
	}
	return nil
}

// AssertTaskCanBeScheduled is the hard gate applied when a block is placed.
func AssertTaskCanBeScheduled(taskStatus domain.TaskStatus, incompleteDependencyCount int) error {
	if taskStatus == domain.TaskStatusDone {
		return domain.ErrCompletedTaskNotScheduled
	}
	return AssertTaskDependenciesComplete(incompleteDependencyCount)
}

// AssertTaskDependenciesComplete fails while the task still waits on other tasks.
func AssertTaskDependenciesComplete(incompleteDependencyCount int) error {
	if incompleteDependencyCount > 0 {
		return fmt.Errorf("%w: %d open", domain.ErrTaskDependenciesPending, incompleteDependencyCount)
	}
	return nil
}

// AssertScheduleBlockIsMutable rejects edits, completion and deletion of completed blocks.
func AssertScheduleBlockIsMutable(status domain.ScheduleStatus) error {
	if status == domain.ScheduleStatusCompleted {
		return domain.ErrScheduleBlockImmutable
	}
	return nil
}
