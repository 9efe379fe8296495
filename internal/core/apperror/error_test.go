package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFieldValidation(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string][]string
		message string
	}{
		{
			name:    "empty",
			fields:  nil,
			message: "Validation failed",
		},
		{
			name: "single field",
			fields: map[string][]string{
				"quantity": {"must be positive"},
			},
			message: "quantity: must be positive",
		},
		{
			name: "fields are sorted and messages joined",
			fields: map[string][]string{
				"rate":   {"required"},
				"itemId": {"required", "unknown item"},
			},
			message: "itemId: required, unknown item; rate: required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewFieldValidation(tt.fields)
			assert.Equal(t, CodeValidation, err.Code)
			assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
			assert.Equal(t, tt.message, err.Message)
		})
	}
}

func TestAsAppError_Wrapped(t *testing.T) {
	base := NewInsufficientStock("item-1", "loc-1", "5.0000", "2.0000")
	wrapped := fmt.Errorf("process fulfillments: %w", base)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeInsufficientStock, appErr.Code)
	assert.Equal(t, "item-1", appErr.Details["item_id"])
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(wrapped))
}

func TestGetHTTPStatus_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("boom")))
}

func TestHasCode(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFound("purchase_order", "x")))
	assert.False(t, IsNotFound(NewConflict("x")))
	assert.True(t, IsConcurrentModification(fmt.Errorf("save: %w", NewConcurrentModification("item_receipt", "x"))))
	assert.True(t, HasCode(NewUnsupportedOperation("receipt processor", "edit"), CodeUnsupportedOperation))
}

func TestWithCause_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewUnavailable("gl service", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}
