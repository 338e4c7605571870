package dto

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mtlprog/goalflow/internal/domain"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResponse creates a new error response.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// invariantCodes gives every invariant a stable error code.
var invariantCodes = []struct {
	err  error
	code string
}{
	{domain.ErrTaskAlreadyCompleted, "TASK_ALREADY_COMPLETED"},
	{domain.ErrIncompleteDependencies, "INCOMPLETE_DEPENDENCIES"},
	{domain.ErrActualMinutesRequired, "ACTUAL_MINUTES_REQUIRED"},
	{domain.ErrCompletedTaskNotDeleted, "COMPLETED_TASK_NOT_DELETABLE"},
	{domain.ErrIncompleteDependents, "INCOMPLETE_DEPENDENTS"},
	{domain.ErrSelfDependency, "SELF_DEPENDENCY"},
	{domain.ErrDependencyGoalMismatch, "DEPENDENCY_GOAL_MISMATCH"},
	{domain.ErrCyclicDependency, "CYCLIC_DEPENDENCY"},
	{domain.ErrDependencyExists, "DEPENDENCY_EXISTS"},
	{domain.ErrInvalidTransition, "INVALID_TRANSITION"},
	{domain.ErrSubtaskGoalMismatch, "SUBTASK_GOAL_MISMATCH"},
	{domain.ErrMilestoneGoalMismatch, "MILESTONE_GOAL_MISMATCH"},
	{domain.ErrInvalidTimeRange, "INVALID_TIME_RANGE"},
	{domain.ErrScheduleOverlap, "SCHEDULE_OVERLAP"},
	{domain.ErrCompletedTaskNotScheduled, "COMPLETED_TASK_NOT_SCHEDULABLE"},
	{domain.ErrTaskDependenciesPending, "TASK_DEPENDENCIES_PENDING"},
	{domain.ErrScheduleBlockImmutable, "SCHEDULE_BLOCK_IMMUTABLE"},
}

// MapDomainError maps domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code string, message string) {
	message = err.Error()

	if errors.Is(err, domain.ErrInvariantViolation) {
		for _, ic := range invariantCodes {
			if errors.Is(err, ic.err) {
				return http.StatusConflict, ic.code, message
			}
		}
		return http.StatusConflict, "INVARIANT_VIOLATION", message
	}

	switch {
	// Lookup errors
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, "TASK_NOT_FOUND", message
	case errors.Is(err, domain.ErrGoalNotFound):
		return http.StatusNotFound, "GOAL_NOT_FOUND", message
	case errors.Is(err, domain.ErrMilestoneNotFound):
		return http.StatusNotFound, "MILESTONE_NOT_FOUND", message
	case errors.Is(err, domain.ErrScheduleBlockNotFound):
		return http.StatusNotFound, "SCHEDULE_BLOCK_NOT_FOUND", message
	case errors.Is(err, domain.ErrDependencyNotFound):
		return http.StatusNotFound, "DEPENDENCY_NOT_FOUND", message
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "USER_NOT_FOUND", message

	// Permission errors
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", message

	// Request errors
	case errors.Is(err, domain.ErrUseCompleteEndpoint):
		return http.StatusBadRequest, "USE_COMPLETE_ENDPOINT", message
	case errors.Is(err, domain.ErrUseScheduleCompleteEndpoint):
		return http.StatusBadRequest, "USE_COMPLETE_ENDPOINT", message
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message

	// Auth errors
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", message
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "INVALID_TOKEN", message
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return http.StatusConflict, "EMAIL_ALREADY_EXISTS", message

	// Default: internal server error
	default:
		slog.Error("unmapped domain error returned to client",
			"error", err,
			"error_type", fmt.Sprintf("%T", err),
		)
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}
