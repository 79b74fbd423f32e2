package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	err := NewNotFoundError("lead")
	assert.Equal(t, "NOT_FOUND: lead not found", err.Error())

	wrapped := NewInternalError(errors.New("connection reset"))
	assert.Equal(t, "INTERNAL_ERROR: An internal error occurred: connection reset", wrapped.Error())
}

func TestHelpers_SeeThroughWrapping(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", NewNotFoundError("lead"), IsNotFound},
		{"validation", NewValidationError("bad email"), IsValidation},
		{"plan limit", NewPlanLimitError("Starter", 500, "leads"), IsPlanLimitExceeded},
		{"unauthorized", NewUnauthorizedError(), IsUnauthorized},
		{"forbidden", NewForbiddenError("nope"), IsForbidden},
		{"conflict", NewConflictError("exists"), IsConflict},
		{"bad request", NewBadRequestError("huh"), IsBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(fmt.Errorf("failed to do thing: %w", tt.err)))
		})
	}
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, "", CodeOf(errors.New("plain")))
	assert.False(t, IsNotFound(nil))
}

func TestNewPlanLimitError_Message(t *testing.T) {
	err := NewPlanLimitError("Starter", 500, "leads")
	var de *DomainError
	assert.True(t, errors.As(err, &de))
	assert.Contains(t, de.Message, "500 leads")
}
