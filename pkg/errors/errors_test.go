package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentity(t *testing.T) {
	err := Clone(ErrInvalidTransition, "appointment 4 is not pending")
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "invalid appointment status transition", ErrInvalidTransition.Message)

	wrapped := fmt.Errorf("approve: %w", err)
	assert.True(t, errors.Is(wrapped, ErrInvalidTransition))
	assert.Equal(t, http.StatusConflict, FromError(wrapped).Status)
}

func TestFromErrorWrapsPlainErrors(t *testing.T) {
	assert.Nil(t, FromError(nil))

	err := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, "internal error: boom", err.Error())
}

func TestWithFields(t *testing.T) {
	err := WithFields(ErrValidation, "", map[string]string{"otp": "required"})
	assert.True(t, err.HasFields())
	assert.False(t, ErrValidation.HasFields())
	assert.Equal(t, "validation failed", err.Message)
}

func TestFromStatus(t *testing.T) {
	cases := map[int]*Error{
		http.StatusUnauthorized:        ErrUnauthorized,
		http.StatusForbidden:           ErrForbidden,
		http.StatusNotFound:            ErrNotFound,
		http.StatusConflict:            ErrConflict,
		http.StatusUnprocessableEntity: ErrValidation,
		http.StatusBadGateway:          ErrInternal,
	}
	for status, want := range cases {
		assert.Same(t, want, FromStatus(status), "status %d", status)
	}
}
