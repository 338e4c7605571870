package invariant_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mtlprog/goalflow/internal/domain"
	"github.com/mtlprog/goalflow/internal/invariant"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

func TestAssertValidTimeRange(t *testing.T) {
	assert.NoError(t, invariant.AssertValidTimeRange(at(10, 0), at(10, 30)))
	assert.ErrorIs(t, invariant.AssertValidTimeRange(at(10, 30), at(10, 30)), domain.ErrInvalidTimeRange)
	assert.ErrorIs(t, invariant.AssertValidTimeRange(at(11, 0), at(10, 30)), domain.ErrInvalidTimeRange)
}

func TestAssertNoScheduleOverlap(t *testing.T) {
	assert.NoError(t, invariant.AssertNoScheduleOverlap(0))
	assert.ErrorIs(t, invariant.AssertNoScheduleOverlap(1), domain.ErrScheduleOverlap)
	assert.ErrorIs(t, invariant.AssertNoScheduleOverlap(3), domain.ErrInvariantViolation)
}

func TestAssertTaskCanBeScheduled(t *testing.T) {
	assert.NoError(t, invariant.AssertTaskCanBeScheduled(domain.TaskStatusTodo, 0))
	assert.NoError(t, invariant.AssertTaskCanBeScheduled(domain.TaskStatusBlocked, 0))
	assert.ErrorIs(t, invariant.AssertTaskCanBeScheduled(domain.TaskStatusDone, 0), domain.ErrCompletedTaskNotScheduled)
	assert.ErrorIs(t, invariant.AssertTaskCanBeScheduled(domain.TaskStatusTodo, 1), domain.ErrTaskDependenciesPending)
}

func TestAssertScheduleBlockIsMutable(t *testing.T) {
	assert.NoError(t, invariant.AssertScheduleBlockIsMutable(domain.ScheduleStatusScheduled))
	assert.ErrorIs(t, invariant.AssertScheduleBlockIsMutable(domain.ScheduleStatusCompleted), domain.ErrScheduleBlockImmutable)
}
