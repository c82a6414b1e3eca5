package clierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeOf(t *testing.T) {
	assert.Equal(t, 0, ExitCodeOf(nil))
	assert.Equal(t, 1, ExitCodeOf(errors.New("plain")))
	assert.Equal(t, 2, ExitCodeOf(New(2, "bad config")))

	wrapped := fmt.Errorf("outer: %w", Wrap(3, "inner", errors.New("cause")))
	assert.Equal(t, 3, ExitCodeOf(wrapped))
}

func TestWrap_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	err := Wrap(2, "context", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "context: cause", err.Error())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, 1, ExitCodeOf(New(0, "zero is not an error code")))
	assert.Equal(t, 1, ExitCodeOf(New(-5, "negative either")))
}
