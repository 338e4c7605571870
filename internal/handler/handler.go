package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/goalflow/internal/eventlog"
	"github.com/mtlprog/goalflow/internal/handler/dto"
	"github.com/mtlprog/goalflow/internal/middleware"
	"github.com/mtlprog/goalflow/internal/repository"
	"github.com/mtlprog/goalflow/internal/service"
	"github.com/mtlprog/goalflow/internal/static"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	pool             *pgxpool.Pool
	authService      *service.AuthService
	goalService      *service.GoalService
	milestoneService *service.MilestoneService
	taskService      *service.TaskService
	scheduleService  *service.ScheduleService
	events           *eventlog.Log
	statsRepo        *repository.StatsRepository
	authMiddleware   *middleware.AuthMiddleware
}

// New creates a new Handler instance with all dependencies.
func New(pool *pgxpool.Pool, jwtSecret string, jwtExpiry time.Duration) *Handler {
	// Create repositories
	userRepo := repository.NewUserRepository(pool)
	goalRepo := repository.NewGoalRepository(pool)
	milestoneRepo := repository.NewMilestoneRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	depRepo := repository.NewTaskDependencyRepository(pool)
	blockRepo := repository.NewScheduleBlockRepository(pool)
	eventRepo := repository.NewEventLogRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	// Event log with its dispatcher
	dispatcher := eventlog.NewDispatcher()
	events := eventlog.New(eventRepo, dispatcher)

	// Create services
	authService := service.NewAuthService(userRepo, jwtSecret, jwtExpiry)
	goalService := service.NewGoalService(pool, goalRepo, milestoneRepo, taskRepo, events)
	milestoneService := service.NewMilestoneService(pool, milestoneRepo, goalService, events)
	taskService := service.NewTaskService(pool, taskRepo, depRepo, goalRepo, milestoneRepo, blockRepo, events)
	scheduleService := service.NewScheduleService(pool, blockRepo, taskService, events)
	scheduleService.RegisterHandlers(dispatcher)

	// Create middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)

	return &Handler{
		pool:             pool,
		authService:      authService,
		goalService:      goalService,
		milestoneService: milestoneService,
		taskService:      taskService,
		scheduleService:  scheduleService,
		events:           events,
		statsRepo:        statsRepo,
		authMiddleware:   authMiddleware,
	}
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	// API reference
	mux.HandleFunc("GET /api.md", h.handleAPIMd)

	// Public auth routes
	mux.HandleFunc("POST /api/v1/auth/signup", h.handleSignup)
	mux.HandleFunc("POST /api/v1/auth/login", h.handleLogin)

	// API v1 routes with authentication
	h.protect(mux, "GET /api/v1/auth/me", h.handleMe)

	h.protect(mux, "POST /api/v1/goals", h.handleCreateGoal)
	h.protect(mux, "GET /api/v1/goals", h.handleListGoals)
	h.protect(mux, "GET /api/v1/goals/{id}", h.handleGetGoal)
	h.protect(mux, "PATCH /api/v1/goals/{id}", h.handleUpdateGoal)
	h.protect(mux, "DELETE /api/v1/goals/{id}", h.handleDeleteGoal)
	h.protect(mux, "POST /api/v1/goals/{id}/breakdown", h.handleBreakdownGoal)
	h.protect(mux, "POST /api/v1/goals/{id}/milestones", h.handleCreateMilestone)
	h.protect(mux, "GET /api/v1/goals/{id}/milestones", h.handleListMilestones)
	h.protect(mux, "GET /api/v1/goals/{id}/tasks", h.handleListTasks)

	h.protect(mux, "PATCH /api/v1/milestones/{id}", h.handleUpdateMilestone)
	h.protect(mux, "DELETE /api/v1/milestones/{id}", h.handleDeleteMilestone)

	h.protect(mux, "POST /api/v1/tasks", h.handleCreateTask)
	h.protect(mux, "GET /api/v1/tasks/{id}", h.handleGetTask)
	h.protect(mux, "PATCH /api/v1/tasks/{id}", h.handleUpdateTask)
	h.protect(mux, "DELETE /api/v1/tasks/{id}", h.handleDeleteTask)
	h.protect(mux, "POST /api/v1/tasks/{id}/complete", h.handleCompleteTask)
	h.protect(mux, "POST /api/v1/tasks/{id}/dependencies", h.handleAddDependency)
	h.protect(mux, "DELETE /api/v1/tasks/{id}/dependencies/{dependsOnId}", h.handleRemoveDependency)

	h.protect(mux, "POST /api/v1/schedule-blocks", h.handleCreateScheduleBlock)
	h.protect(mux, "GET /api/v1/schedule-blocks", h.handleListScheduleBlocks)
	h.protect(mux, "PATCH /api/v1/schedule-blocks/{id}", h.handleUpdateScheduleBlock)
	h.protect(mux, "POST /api/v1/schedule-blocks/{id}/complete", h.handleCompleteScheduleBlock)
	h.protect(mux, "DELETE /api/v1/schedule-blocks/{id}", h.handleDeleteScheduleBlock)

	h.protect(mux, "GET /api/v1/events", h.handleListEvents)
	h.protect(mux, "GET /api/v1/stats", h.handleGetStats)
}

func (h *Handler) protect(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	mux.Handle(pattern, h.authMiddleware.Authenticate(fn))
}

// handleHealthz returns 200 OK if the database is reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.pool.Ping(ctx); err != nil {
		slog.Error("database health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleAPIMd serves the embedded API reference.
func (h *Handler) handleAPIMd(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(static.APIMd))
}

// Ping checks if the database is reachable (used for testing).
func (h *Handler) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}

// respondDomainError maps a service error to its HTTP representation.
func respondDomainError(w http.ResponseWriter, err error) {
	status, code, message := dto.MapDomainError(err)
	respondError(w, status, code, message)
}

// decodeJSON parses the request body into v.
// Returns false if the body is invalid (error already sent to client).
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	return true
}

// validator is implemented by every request DTO.
type validator interface {
	Validate() error
}

// decodeAndValidate decodes the body and runs its Validate method.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v validator) bool {
	if !decodeJSON(w, r, v) {
		return false
	}
	if err := v.Validate(); err != nil {
		respondDomainError(w, err)
		return false
	}
	return true
}

// authenticatedUser extracts the user ID placed by the auth middleware.
func authenticatedUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return "", false
	}
	return userID, true
}

// extractID extracts and validates a UUID path parameter.
// Returns (id, true) if valid, ("", false) if invalid (error already sent to client).
func extractID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := r.PathValue(name)
	if id == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", name+" is required")
		return "", false
	}

	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", name+" must be a valid UUID")
		return "", false
	}

	return id, true
}
