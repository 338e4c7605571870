package handler

import (
	"net/http"
	"time"

	"github.com/mtlprog/goalflow/internal/domain"
	"github.com/mtlprog/goalflow/internal/handler/dto"
	"github.com/mtlprog/goalflow/internal/repository"
)

// periodStart returns the beginning of the named period ending at now.
func periodStart(period string, now time.Time) (time.Time, bool) {
	switch period {
	case "day":
		return now.AddDate(0, 0, -1), true
	case "week":
		return now.AddDate(0, 0, -7), true
	case "month":
		return now.AddDate(0, -1, 0), true
	case "all":
		return time.Time{}, true // Beginning of time
	default:
		return time.Time{}, false
	}
}

// handleGetStats returns productivity statistics.
// @Summary Get statistics
// @Description Task and schedule statistics for a given period
// @Tags stats
// @Produce json
// @Param period query string false "Period: day, week (default), month, all"
// @Success 200 {object} dto.StatsResponse
// @Security BearerAuth
// @Router /stats [get]
func (h *Handler) handleGetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := authenticatedUser(w, r)
	if !ok {
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = "week"
	}

	now := time.Now().UTC()
	start, ok := periodStart(period, now)
	if !ok {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid period, must be: day, week, month, all")
		return
	}

	filters := repository.StatsFilters{
		UserID:      userID,
		PeriodStart: start,
		PeriodEnd:   now,
	}

	taskStats, err := h.statsRepo.GetTaskStats(ctx, filters)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch task stats")
		return
	}

	scheduleStats, err := h.statsRepo.GetScheduleStats(ctx, filters)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch schedule stats")
		return
	}

	// Calculate completion rate
	totalTasks := 0
	for _, count := range taskStats.TasksByStatus {
		totalTasks += count
	}
	completionRate := 0.0
	if totalTasks > 0 {
		doneCount := taskStats.TasksByStatus[string(domain.TaskStatusDone)]
		completionRate = float64(doneCount) / float64(totalTasks) * 100
	}

	respondJSON(w, http.StatusOK, dto.StatsResponse{
		Period:      period,
		PeriodStart: start,
		PeriodEnd:   now,
		Tasks: dto.TaskStats{
			TasksByStatus:             taskStats.TasksByStatus,
			TasksCompleted:            taskStats.TasksCompleted,
			EstimatedMinutesCompleted: taskStats.EstimatedMinutesCompleted,
			ActualMinutesCompleted:    taskStats.ActualMinutesCompleted,
			CompletionRatePercent:     completionRate,
		},
		Schedule: dto.ScheduleStats{
			BlocksScheduled:  scheduleStats.BlocksScheduled,
			BlocksCompleted:  scheduleStats.BlocksCompleted,
			MinutesScheduled: scheduleStats.MinutesScheduled,
			MinutesCompleted: scheduleStats.MinutesCompleted,
		},
	})
}
