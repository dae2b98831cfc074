package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	t.Parallel()

	err := NotFoundError("report %s not found", "x")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, "report x not found", err.Error())

	wrapped := fmt.Errorf("loading: %w", ConflictError("busy"))
	assert.ErrorIs(t, wrapped, ErrConflict)
	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "invalid_state", KindInvalidState.String())
	assert.Equal(t, "internal", Kind(99).String())
	assert.Equal(t, "permission", ErrPermission.Error())
}
