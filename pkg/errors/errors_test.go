package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrForbidden, "not your request"))

	appErr := FromError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
	assert.Equal(t, "not your request", appErr.Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Nil(t, FromError(nil))
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrNotFound, "speaker not found")
	assert.Equal(t, "speaker not found", clone.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestHelpersUnwrap(t *testing.T) {
	cause := errors.New("db down")
	err := Internal(cause, "failed to load")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load: db down", err.Error())

	v := Validation(cause, "bad payload")
	assert.Equal(t, http.StatusBadRequest, v.Status)
}
