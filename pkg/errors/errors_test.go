package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorMessage(t *testing.T) {
	plain := New(ErrCodeConflict, "already registered")
	assert.Equal(t, "CONFLICT: already registered", plain.Error())

	cause := errors.New("disk full")
	wrapped := Wrap(ErrCodeInternalError, "failed to save", cause)
	assert.Equal(t, "INTERNAL_ERROR: failed to save (disk full)", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestCodeOfFollowsWrapping(t *testing.T) {
	err := fmt.Errorf("moderate: %w", New(ErrCodeNotFound, "file not found"))

	assert.Equal(t, ErrCodeNotFound, CodeOf(err))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsConflict(err))
	assert.Equal(t, ErrCodeInternalError, CodeOf(errors.New("boom")))
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsBadRequest(New(ErrCodeBadRequest, "x")))
	assert.True(t, IsUnauthorized(New(ErrCodeUnauthorized, "x")))
	assert.True(t, IsForbidden(New(ErrCodeForbidden, "x")))
	assert.True(t, IsPreconditionFailed(New(ErrCodePreconditionFailed, "x")))
	assert.False(t, IsNotFound(nil))
}
