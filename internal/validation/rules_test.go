package validation

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/commerce-saga/internal/errors"
)

func TestWrapValidationError(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.Nil(t, WrapValidationError(nil))
	})

	t.Run("non-nil error", func(t *testing.T) {
		err := WrapValidationError(errors.New("name: cannot be blank"))

		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Contains(t, err.Error(), "name: cannot be blank")
	})
}

func TestEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last@example.com",
		"user+tag@sub.example.co",
	}
	for _, email := range valid {
		assert.NoError(t, validation.Validate(email, Email), "expected %s to be valid", email)
	}

	invalid := []string{
		"not-an-email",
		"@example.com",
		"user@",
		"user@example",
		"user @example.com",
	}
	for _, email := range invalid {
		assert.Error(t, validation.Validate(email, Email), "expected %s to be invalid", email)
	}
}

func TestNotBlank(t *testing.T) {
	assert.NoError(t, validation.Validate("value", NotBlank))
	assert.NoError(t, validation.Validate(" padded ", NotBlank))

	assert.Error(t, validation.Validate("   ", NotBlank))
	assert.Error(t, validation.Validate("\t\n", NotBlank))
}

func TestRequiredUUID(t *testing.T) {
	assert.NoError(t, validation.Validate(uuid.Must(uuid.NewV7()), RequiredUUID))

	assert.Error(t, validation.Validate(uuid.Nil, RequiredUUID))
	assert.Error(t, validation.Validate("not-a-uuid", RequiredUUID))
}
