package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/goalflow/internal/domain"
	"github.com/mtlprog/goalflow/internal/handler"
	"github.com/mtlprog/goalflow/internal/service"
)

// These requests are rejected before any database access, so the handler is
// built without a pool.
func TestRequestsRejectedBeforeStorage(t *testing.T) {
	mux := http.NewServeMux()
	handler.New(nil, testSecret, time.Hour).RegisterRoutes(mux)

	token, err := service.NewAuthService(nil, testSecret, time.Hour).
		GenerateJWT(&domain.User{ID: "00000000-0000-0000-0000-000000000001", Email: "a@example.com"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"no token", "GET", "/api/v1/goals", "", "", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"forged token", "GET", "/api/v1/goals", "abc.def.ghi", "", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"bad task id", "GET", "/api/v1/tasks/not-a-uuid", token, "", http.StatusBadRequest, "INVALID_REQUEST"},
		{"bad dependency id", "DELETE", "/api/v1/tasks/00000000-0000-0000-0000-000000000002/dependencies/x", token, "", http.StatusBadRequest, "INVALID_REQUEST"},
		{"malformed json", "POST", "/api/v1/tasks", token, "{", http.StatusBadRequest, "INVALID_JSON"},
		{"missing description", "POST", "/api/v1/tasks", token, `{"goal_id":"00000000-0000-0000-0000-000000000003"}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"bad source", "POST", "/api/v1/schedule-blocks", token, `{"task_id":"00000000-0000-0000-0000-000000000004","start_time":"2031-01-01T10:00:00Z","end_time":"2031-01-01T11:00:00Z","source":"calendar"}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"missing estimate", "POST", "/api/v1/tasks", token, `{"goal_id":"00000000-0000-0000-0000-000000000003","description":"write report"}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"zero estimate", "POST", "/api/v1/tasks", token, `{"goal_id":"00000000-0000-0000-0000-000000000003","description":"write report","estimated_minutes":0}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"zero estimate update", "PATCH", "/api/v1/tasks/00000000-0000-0000-0000-000000000005", token, `{"estimated_minutes":0}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"non-positive minutes", "POST", "/api/v1/tasks/00000000-0000-0000-0000-000000000005/complete", token, `{"actual_minutes":0}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"events limit", "GET", "/api/v1/events?limit=501", token, "", http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"stats period", "GET", "/api/v1/stats?period=year", token, "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"short password", "POST", "/api/v1/auth/signup", "", `{"email":"a@example.com","password":"short"}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantCode)
		})
	}
}

func TestAPIReferenceServed(t *testing.T) {
	mux := http.NewServeMux()
	handler.New(nil, testSecret, time.Hour).RegisterRoutes(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api.md", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, w.Body.String(), "/api/v1/schedule-blocks")
}
