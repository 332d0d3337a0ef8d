package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	require.Equal(t, CodeValidation, CodeOf(Validation("bad input")))
	require.Equal(t, CodeNotFound, CodeOf(ErrMessageNotFound))
	require.Equal(t, CodeConflict, CodeOf(ErrUsernameTaken))
	require.Equal(t, CodeInternal, CodeOf(errors.New("plain error")))
	require.Equal(t, CodeInternal, CodeOf(nil))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := ExternalService("failed to upload", cause)

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "failed to upload")
	require.Contains(t, err.Error(), "connection refused")
	require.Equal(t, CodeExternalService, CodeOf(err))
}

func TestCodeSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("posting message: %w", ErrNotParticipant)
	require.Equal(t, CodeForbidden, CodeOf(err))

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, CodeForbidden, appErr.Code)
}

func TestNewWithoutCause(t *testing.T) {
	err := Conflict("already there")
	require.Equal(t, "already there", err.Error())
	require.Nil(t, errors.Unwrap(err))
}
