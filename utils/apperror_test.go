package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  *AppError
		want int
	}{
		{ErrUnauthorized("x"), fiber.StatusUnauthorized},
		{ErrForbidden("x"), fiber.StatusForbidden},
		{ErrNotFound("x"), fiber.StatusNotFound},
		{ErrConflict("x"), fiber.StatusBadRequest},
		{ErrInvalidState("x"), fiber.StatusBadRequest},
		{ErrValidation(FieldError{Field: "name", Message: "name is required"}), fiber.StatusUnprocessableEntity},
		{ErrInternal("x", errors.New("boom")), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.StatusCode(), string(tc.err.Kind))
	}
}

func TestAsAppError(t *testing.T) {
	assert.Nil(t, AsAppError(nil))

	wrapped := fmt.Errorf("loading: %w", ErrNotFound("Project not found"))
	got := AsAppError(wrapped)
	assert.Equal(t, KindNotFound, got.Kind)
	assert.Equal(t, "Project not found", got.Message)

	assert.Equal(t, KindNotFound, AsAppError(gorm.ErrRecordNotFound).Kind)
	assert.Equal(t, KindConflict, AsAppError(gorm.ErrDuplicatedKey).Kind)
	assert.Equal(t, KindUnauthorized, AsAppError(fiber.ErrUnauthorized).Kind)
	assert.Equal(t, KindInvalidState, AsAppError(fiber.ErrTooManyRequests).Kind)

	internal := AsAppError(errors.New("disk full"))
	assert.Equal(t, KindInternal, internal.Kind)
	assert.Equal(t, "Internal server error", internal.Message)
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("wrap: %w", ErrForbidden("nope"))
	assert.True(t, IsKind(err, KindForbidden))
	assert.False(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(errors.New("plain"), KindForbidden))
}
