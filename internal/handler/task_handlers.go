package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mtlprog/goalflow/internal/domain"
	"github.com/mtlprog/goalflow/internal/handler/dto"
	"github.com/mtlprog/goalflow/internal/repository"
	"github.com/mtlprog/goalflow/internal/service"
)

// handleCreateTask creates a new task.
// @Summary Create a new task
// @Description Creates a task in a goal, optionally under a milestone or a parent task.
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body dto.CreateTaskRequest true "Task creation request"
// @Success 201 {object} dto.TaskResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks [post]
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.taskService.Create(r.Context(), userID, service.CreateTaskInput{
		GoalID:              req.GoalID,
		MilestoneID:         req.MilestoneID,
		ParentTaskID:        req.ParentTaskID,
		Description:         req.Description,
		EstimatedMinutes:    req.EstimatedMinutes,
		EstimatedConfidence: req.EstimatedConfidence,
		PriorityScore:       req.PriorityScore,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToTaskResponse(task))
}

// handleListTasks lists the tasks of a goal.
// @Summary List goal tasks
// @Description Tasks of a goal sorted by priority_score desc, then created_at
// @Tags tasks
// @Produce json
// @Param id path string true "Goal ID"
// @Param status query string false "Comma-separated statuses: todo,in_progress,blocked,done"
// @Param milestone_id query string false "Filter by milestone UUID"
// @Success 200 {array} dto.TaskResponse
// @Security BearerAuth
// @Router /goals/{id}/tasks [get]
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	goalID, ok := extractID(w, r, "id")
	if !ok {
		return
	}

	filters := repository.TaskListFilters{GoalID: goalID}
	query := r.URL.Query()

	if statusParam := query.Get("status"); statusParam != "" {
		for _, s := range strings.Split(statusParam, ",") {
			status := domain.TaskStatus(strings.TrimSpace(s))
			if !status.IsValid() {
				respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid status filter: "+s)
				return
			}
			filters.Statuses = append(filters.Statuses, status)
		}
	}

	if milestoneID := query.Get("milestone_id"); milestoneID != "" {
		if _, err := uuid.Parse(milestoneID); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "milestone_id must be a valid UUID")
			return
		}
		filters.MilestoneID = &milestoneID
	}

	tasks, err := h.taskService.ListByGoal(r.Context(), userID, filters)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskList(tasks))
}

// handleGetTask retrieves task details.
// @Summary Get task details
// @Description Task with its dependencies, dependents and subtasks
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} dto.TaskDetailResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [get]
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.taskService.GetByID(r.Context(), userID, taskID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskDetail(detail))
}

// handleUpdateTask applies a partial update to a task.
// @Summary Update a task
// @Description Partial update. Setting status to done is rejected; use the complete endpoint.
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body dto.UpdateTaskRequest true "Fields to change"
// @Success 200 {object} dto.TaskResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [patch]
func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r, "id")
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.taskService.Update(r.Context(), userID, taskID, req.ToPatch())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskResponse(task))
}

// handleDeleteTask deletes a task.
// @Summary Delete a task
// @Description Deletes a task that is not done and has no incomplete dependents. Future schedule blocks are removed.
// @Tags tasks
// @Param id path string true "Task ID"
// @Success 204
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [delete]
func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r, "id")
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), userID, taskID); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleCompleteTask marks a task done.
// @Summary Complete a task
// @Description Requires actual_minutes and all dependencies done.
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body dto.CompleteTaskRequest true "Actual minutes spent"
// @Success 200 {object} dto.TaskResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id}/complete [post]
func (h *Handler) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r, "id")
	if !ok {
		return
	}

	var req dto.CompleteTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.taskService.Complete(r.Context(), userID, taskID, req.ActualMinutes)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskResponse(task))
}

// handleAddDependency makes a task depend on another task of the same goal.
// @Summary Add a dependency
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Dependent task ID"
// @Param request body dto.AddDependencyRequest true "Prerequisite task"
// @Success 201 {object} dto.DependencyResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id}/dependencies [post]
func (h *Handler) handleAddDependency(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r, "id")
	if !ok {
		return
	}

	var req dto.AddDependencyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	dep, err := h.taskService.AddDependency(r.Context(), userID, taskID, req.DependsOnTaskID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToDependencyResponse(*dep))
}

// handleRemoveDependency removes a dependency edge.
// @Summary Remove a dependency
// @Tags tasks
// @Param id path string true "Dependent task ID"
// @Param dependsOnId path string true "Prerequisite task ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id}/dependencies/{dependsOnId} [delete]
func (h *Handler) handleRemoveDependency(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r, "id")
	if !ok {
		return
	}
	dependsOnID, ok := extractID(w, r, "dependsOnId")
	if !ok {
		return
	}

	if err := h.taskService.RemoveDependency(r.Context(), userID, taskID, dependsOnID); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
