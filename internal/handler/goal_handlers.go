package handler

import (
	"net/http"

	"github.com/mtlprog/goalflow/internal/handler/dto"
	"github.com/mtlprog/goalflow/internal/service"
)

// handleCreateGoal creates a goal.
// @Summary Create a goal
// @Tags goals
// @Accept json
// @Produce json
// @Param request body dto.CreateGoalRequest true "Goal to create"
// @Success 201 {object} dto.GoalResponse
// @Failure 422 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /goals [post]
func (h *Handler) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var req dto.CreateGoalRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	goal, err := h.goalService.Create(r.Context(), userID, service.CreateGoalInput{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		Category:    req.Category,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToGoalResponse(goal))
}

// handleListGoals lists the caller's goals, newest first.
// @Summary List goals
// @Tags goals
// @Produce json
// @Success 200 {array} dto.GoalResponse
// @Security BearerAuth
// @Router /goals [get]
func (h *Handler) handleListGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	goals, err := h.goalService.List(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToGoalList(goals))
}

// handleGetGoal returns a goal with its milestones and tasks.
// @Summary Get a goal
// @Tags goals
// @Produce json
// @Param id path string true "Goal ID"
// @Success 200 {object} dto.GoalDetailResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /goals/{id} [get]
func (h *Handler) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	goalID, ok := extractID(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.goalService.Get(r.Context(), userID, goalID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToGoalDetail(detail))
}

// handleUpdateGoal applies a partial update to a goal.
// @Summary Update a goal
// @Tags goals
// @Accept json
// @Produce json
// @Param id path string true "Goal ID"
// @Param request body dto.UpdateGoalRequest true "Fields to change"
// @Success 200 {object} dto.GoalResponse
// @Security BearerAuth
// @Router /goals/{id} [patch]
func (h *Handler) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	goalID, ok := extractID(w, r, "id")
	if !ok {
		return
	}

	var req dto.UpdateGoalRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	goal, err := h.goalService.Update(r.Context(), userID, goalID, req.ToPatch())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToGoalResponse(goal))
}

// handleBreakdownGoal queues a goal breakdown.
// @Summary Request a goal breakdown
// @Tags goals
// @Produce json
// @Param id path string true "Goal ID"
// @Success 202 {object} dto.GoalBreakdownResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /goals/{id}/breakdown [post]
func (h *Handler) handleBreakdownGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	goalID, ok := extractID(w, r, "id")
	if !ok {
		return
	}

	goal, err := h.goalService.RequestBreakdown(r.Context(), userID, goalID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, dto.GoalBreakdownResponse{
		Message: "goal breakdown queued",
		GoalID:  goal.ID,
	})
}

// handleDeleteGoal deletes a goal with its milestones and tasks.
// @Summary Delete a goal
// @Tags goals
// @Param id path string true "Goal ID"
// @Success 204
// @Security BearerAuth
// @Router /goals/{id} [delete]
func (h *Handler) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	goalID, ok := extractID(w, r, "id")
	if !ok {
		return
	}

	if err := h.goalService.Delete(r.Context(), userID, goalID); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
