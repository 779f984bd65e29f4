package apperror_test

import (
	"errors"
	"fmt"
	"testing"

	"marketplace/internal/apperror"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := apperror.Invalid("quantity", "must be greater than %d", 0)

	assert.True(t, errors.Is(err, apperror.ErrValidation))
	assert.Equal(t, "quantity: must be greater than 0", err.Error())

	var ve *apperror.ValidationError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &ve))
	assert.Equal(t, "quantity", ve.Field)

	assert.Equal(t, "cannot delete own account", apperror.Invalid("", "cannot delete own account").Error())
}

func TestOrderFailedError_Unwraps(t *testing.T) {
	cause := fmt.Errorf("product 3: %w", apperror.ErrInsufficientStock)
	err := &apperror.OrderFailedError{Cause: cause}

	assert.True(t, errors.Is(err, apperror.ErrInsufficientStock))
	assert.False(t, errors.Is(err, apperror.ErrNotFound))
	assert.Equal(t, "order failed: product 3: insufficient stock", err.Error())
}
