package handler

import (
	"net/http"

	"github.com/mtlprog/goalflow/internal/handler/dto"
)

// handleCreateMilestone adds a milestone to a goal.
// @Summary Create a milestone
// @Description Sequence defaults to the number of existing milestones.
// @Tags milestones
// @Accept json
// @Produce json
// @Param id path string true "Goal ID"
// @Param request body dto.CreateMilestoneRequest true "Milestone to create"
// @Success 201 {object} dto.MilestoneResponse
// @Security BearerAuth
// @Router /goals/{id}/milestones [post]
func (h *Handler) handleCreateMilestone(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	goalID, ok := extractID(w, r, "id")
	if !ok {
		return
	}

	var req dto.CreateMilestoneRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	milestone, err := h.milestoneService.Create(r.Context(), userID, goalID, req.Title, req.Sequence)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToMilestoneResponse(milestone))
}

// handleListMilestones lists the milestones of a goal in sequence order.
// @Summary List milestones
// @Tags milestones
// @Produce json
// @Param id path string true "Goal ID"
// @Success 200 {array} dto.MilestoneResponse
// @Security BearerAuth
// @Router /goals/{id}/milestones [get]
func (h *Handler) handleListMilestones(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	goalID, ok := extractID(w, r, "id")
	if !ok {
		return
	}

	milestones, err := h.milestoneService.ListByGoal(r.Context(), userID, goalID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToMilestoneList(milestones))
}

// @Summary Update a milestone
// @Tags milestones
// @Accept json
// @Produce json
// @Param id path string true "Milestone ID"
// @Param request body dto.UpdateMilestoneRequest true "Fields to change"
// @Success 200 {object} dto.MilestoneResponse
// @Security BearerAuth
// @Router /milestones/{id} [patch]
func (h *Handler) handleUpdateMilestone(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	milestoneID, ok := extractID(w, r, "id")
	if !ok {
		return
	}

	var req dto.UpdateMilestoneRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	milestone, err := h.milestoneService.Update(r.Context(), userID, milestoneID, req.ToPatch())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToMilestoneResponse(milestone))
}

// @Summary Delete a milestone
// @Tags milestones
// @Param id path string true "Milestone ID"
// @Success 204
// @Security BearerAuth
// @Router /milestones/{id} [delete]
func (h *Handler) handleDeleteMilestone(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	milestoneID, ok := extractID(w, r, "id")
	if !ok {
		return
	}

	if err := h.milestoneService.Delete(r.Context(), userID, milestoneID); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
