package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDatabaseError(t *testing.T) {
	tests := []struct {
		name   string
		cause  error
		status int
		is     error
	}{
		{"unique", fmt.Errorf("slug: %w", ErrUniqueConstraintViolation), http.StatusConflict, ErrAlreadyExists},
		{"postgres duplicate", errors.New(`ERROR: duplicate key value violates unique constraint "projects_slug_key"`), http.StatusConflict, ErrAlreadyExists},
		{"foreign key", fmt.Errorf("insert: %w", ErrForeignKeyConstraint), http.StatusBadRequest, ErrForeignKeyConstraint},
		{"not found", fmt.Errorf("project 4: %w", ErrNotFound), http.StatusNotFound, ErrNotFound},
		{"read only", ErrReadOnly, http.StatusServiceUnavailable, ErrReadOnly},
		{"connection", fmt.Errorf("dial: %w", ErrDatabaseConnection), http.StatusServiceUnavailable, ErrDatabaseConnection},
		{"anything else", errors.New("syntax error"), http.StatusInternalServerError, ErrDatabaseQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDatabaseError("save", "project", tt.cause)
			assert.Equal(t, tt.status, err.StatusCode)
			assert.ErrorIs(t, err, tt.is)
		})
	}
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("blog post 9: %w", ErrNotFound)))
	assert.True(t, IsNotFound(NewNotFoundError("skill not found")))
	assert.False(t, IsNotFound(nil))

	assert.True(t, IsDatabaseConnectionError(NewDatabaseError("list", "projects", ErrDatabaseConnection)))
	assert.False(t, IsDatabaseConnectionError(ErrNotFound))

	assert.True(t, IsValidationError(NewValidationError(map[string]string{"title": "required"})))
	assert.True(t, IsSubmissionInFlightError(NewSubmissionInFlightError("update:project:1")))
}

func TestApiErr_Message(t *testing.T) {
	err := NewInvalidFieldError("sort", "unknown sort key")
	assert.Equal(t, "invalid field", err.Message())
	assert.Equal(t, "invalid field: Invalid field sort: unknown sort key", err.Error())

	wrapped := NewDatabaseError("find", "project", errors.New("boom"))
	assert.Contains(t, wrapped.GetFullError(), "-> boom")
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError(map[string]string{"title": "required", "description": "required"})
	assert.Equal(t, http.StatusUnprocessableEntity, err.StatusCode)
	assert.Equal(t, "description", err.Field)
	assert.Equal(t, "Invalid fields: description, title", err.Details)
}
