package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mtlprog/goalflow/internal/domain"
	"github.com/mtlprog/goalflow/internal/handler/dto"
)

func TestTaskRequestsRequirePositiveEstimate(t *testing.T) {
	const goalID = "00000000-0000-0000-0000-000000000003"
	zero := 0
	negative := -5
	ten := 10

	tests := []struct {
		name    string
		req     interface{ Validate() error }
		wantErr bool
	}{
		{"create without estimate", dto.CreateTaskRequest{GoalID: goalID, Description: "write report"}, true},
		{"create with negative estimate", dto.CreateTaskRequest{GoalID: goalID, Description: "write report", EstimatedMinutes: -1}, true},
		{"create with estimate", dto.CreateTaskRequest{GoalID: goalID, Description: "write report", EstimatedMinutes: 30}, false},
		{"update to zero", dto.UpdateTaskRequest{EstimatedMinutes: &zero}, true},
		{"update to negative", dto.UpdateTaskRequest{EstimatedMinutes: &negative}, true},
		{"update to positive", dto.UpdateTaskRequest{EstimatedMinutes: &ten}, false},
		{"update without estimate", dto.UpdateTaskRequest{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}
