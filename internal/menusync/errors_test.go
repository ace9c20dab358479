package menusync

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	err := notFoundError("get", 9)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Contains(t, err.Error(), "menu item 9 not found")

	wrapped := fmt.Errorf("handler: %w", validationError("create", "nome is required"))
	assert.ErrorIs(t, wrapped, ErrValidation)
	assert.Equal(t, KindValidation, KindOf(wrapped))

	cause := errors.New("dial tcp: refused")
	unavailable := unavailableError("refresh", cause)
	assert.ErrorIs(t, unavailable, ErrBackendUnavailable)
	assert.ErrorIs(t, unavailable, cause)

	assert.Equal(t, Kind(""), KindOf(cause))
}
