package handler

import (
	"net/http"

	"github.com/mtlprog/goalflow/internal/domain"
	"github.com/mtlprog/goalflow/internal/handler/dto"
	"github.com/mtlprog/goalflow/internal/service"
)

// handleCreateScheduleBlock reserves time for a task.
// @Summary Create a schedule block
// @Description Rejects overlapping blocks, done tasks and tasks with incomplete dependencies.
// @Tags schedule
// @Accept json
// @Produce json
// @Param request body dto.CreateScheduleBlockRequest true "Block to create"
// @Success 201 {object} dto.ScheduleBlockResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /schedule-blocks [post]
func (h *Handler) handleCreateScheduleBlock(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	var req dto.CreateScheduleBlockRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	block, err := h.scheduleService.Create(r.Context(), userID, service.CreateScheduleBlockInput{
		TaskID:    req.TaskID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Source:    domain.ScheduleSource(req.Source),
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToScheduleBlockResponse(block))
}

// handleListScheduleBlocks lists the caller's schedule.
// @Summary List schedule blocks
// @Tags schedule
// @Produce json
// @Success 200 {array} dto.ScheduleBlockResponse
// @Security BearerAuth
// @Router /schedule-blocks [get]
func (h *Handler) handleListScheduleBlocks(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	blocks, err := h.scheduleService.FindAll(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToScheduleBlockList(blocks))
}

// handleUpdateScheduleBlock moves or relabels a scheduled block.
// @Summary Update a schedule block
// @Description Completed blocks are immutable; completion goes through the complete endpoint.
// @Tags schedule
// @Accept json
// @Produce json
// @Param id path string true "Schedule block ID"
// @Param request body dto.UpdateScheduleBlockRequest true "Fields to change"
// @Success 200 {object} dto.ScheduleBlockResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /schedule-blocks/{id} [patch]
func (h *Handler) handleUpdateScheduleBlock(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	blockID, ok := extractID(w, r, "id")
	if !ok {
		return
	}

	var req dto.UpdateScheduleBlockRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	block, err := h.scheduleService.Update(r.Context(), userID, blockID, req.ToPatch())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToScheduleBlockResponse(block))
}

// handleCompleteScheduleBlock marks a block completed.
// @Summary Complete a schedule block
// @Tags schedule
// @Produce json
// @Param id path string true "Schedule block ID"
// @Success 200 {object} dto.ScheduleBlockResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /schedule-blocks/{id}/complete [post]
func (h *Handler) handleCompleteScheduleBlock(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	blockID, ok := extractID(w, r, "id")
	if !ok {
		return
	}

	block, err := h.scheduleService.Complete(r.Context(), userID, blockID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToScheduleBlockResponse(block))
}

// handleDeleteScheduleBlock removes a scheduled block.
// @Summary Delete a schedule block
// @Tags schedule
// @Param id path string true "Schedule block ID"
// @Success 204
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /schedule-blocks/{id} [delete]
func (h *Handler) handleDeleteScheduleBlock(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}
	blockID, ok := extractID(w, r, "id")
	if !ok {
		return
	}

	if err := h.scheduleService.Delete(r.Context(), userID, blockID); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
