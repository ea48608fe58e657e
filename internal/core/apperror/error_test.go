package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConflictsUseBadRequest(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, NewOperationClosed("op").HTTPStatus)
	assert.Equal(t, http.StatusBadRequest, NewNoScrapLot("S1").HTTPStatus)
	assert.Equal(t, CodeNoScrapLot, NewNoScrapLot("S1").Code)
}

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationCode(CodeZeroWeight, "zero"), http.StatusBadRequest},
		{"not found", NewNotFound("operation", "x"), http.StatusNotFound},
		{"store", NewStore(errors.New("conn reset")), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("register: %w", NewUnauthorized("bad")), http.StatusUnauthorized},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.err))
		})
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("tx: %w", NewOperationClosed("op"))
	assert.True(t, HasCode(err, CodeOperationClosed))
	assert.False(t, HasCode(err, CodeNoScrapLot))
	assert.False(t, IsNotFound(err))
}

func TestStoreErrorUnwraps(t *testing.T) {
	cause := errors.New("deadlock detected")
	err := NewStore(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "deadlock detected")
}
