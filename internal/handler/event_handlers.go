package handler

import (
	"net/http"
	"strconv"

	"github.com/mtlprog/goalflow/internal/config"
	"github.com/mtlprog/goalflow/internal/handler/dto"
)

// handleListEvents returns the caller's event log, newest first.
// @Summary List events
// @Tags events
// @Produce json
// @Param limit query int false "Max entries (1-500, default 100)"
// @Success 200 {array} dto.EventResponse
// @Security BearerAuth
// @Router /events [get]
func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	limit := config.DefaultEventsLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 || parsed > config.MaxEventsLimit {
			respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be between 1 and 500")
			return
		}
		limit = parsed
	}

	entries, err := h.events.FindByUser(r.Context(), userID, limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToEventList(entries))
}
