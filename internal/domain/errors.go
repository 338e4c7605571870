package domain

import "errors"

// ErrInvariantViolation matches every *InvariantError via errors.Is.
var ErrInvariantViolation = errors.New("invariant violation")

// InvariantError is a broken business rule. It aborts the operation that
// triggered it and is never retried.
type InvariantError struct {
	msg string
}

// NewInvariant creates a new invariant sentinel with the given message.
func NewInvariant(msg string) *InvariantError {
	return &InvariantError{msg: msg}
}

func (e *InvariantError) Error() string {
	return e.msg
}

// Is reports whether target is the ErrInvariantViolation root.
func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariantViolation
}

// Task invariants
var (
	ErrTaskAlreadyCompleted    = NewInvariant("task is already completed")
	ErrIncompleteDependencies  = NewInvariant("task cannot be completed until all dependencies are done")
	ErrActualMinutesRequired   = NewInvariant("actual minutes must be provided to complete a task")
	ErrCompletedTaskNotDeleted = NewInvariant("completed tasks cannot be deleted")
	ErrIncompleteDependents    = NewInvariant("task cannot be deleted while dependent tasks are incomplete")
	ErrSelfDependency          = NewInvariant("task cannot depend on itself")
	ErrDependencyGoalMismatch  = NewInvariant("tasks may only depend on other tasks within the same goal")
	ErrCyclicDependency        = NewInvariant("adding this dependency would create a circular dependency")
	ErrDependencyExists        = NewInvariant("dependency already exists")
	ErrInvalidTransition       = NewInvariant("invalid task status transition")
	ErrSubtaskGoalMismatch     = NewInvariant("subtasks must belong to the same goal as their parent task")
	ErrMilestoneGoalMismatch   = NewInvariant("milestone must belong to the same goal as the task")
)

// Schedule invariants
var (
	ErrInvalidTimeRange          = NewInvariant("schedule block start_time must be before end_time")
	ErrScheduleOverlap           = NewInvariant("schedule block overlaps with an existing block")
	ErrCompletedTaskNotScheduled = NewInvariant("completed tasks cannot be scheduled")
	ErrTaskDependenciesPending   = NewInvariant("task has incomplete dependencies")
	ErrScheduleBlockImmutable    = NewInvariant("completed schedule blocks cannot be modified")
)

// Lookup errors
var (
	ErrTaskNotFound          = errors.New("task not found")
	ErrGoalNotFound          = errors.New("goal not found")
	ErrMilestoneNotFound     = errors.New("milestone not found")
	ErrScheduleBlockNotFound = errors.New("schedule block not found")
	ErrDependencyNotFound    = errors.New("dependency not found")
	ErrUserNotFound          = errors.New("user not found")
)

// Permission errors
var (
	ErrForbidden = errors.New("access denied")
)

// Request errors
var (
	ErrUseCompleteEndpoint         = errors.New("tasks must be completed using the complete endpoint")
	ErrUseScheduleCompleteEndpoint = errors.New("schedule blocks must be completed using the complete endpoint")
	ErrValidation                  = errors.New("validation failed")
)

// Auth errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidToken       = errors.New("invalid authentication token")
)
