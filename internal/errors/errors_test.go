package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOfUnwrapsChain(t *testing.T) {
	inner := New(ErrAuthRequired, "not signed in")
	wrapped := fmt.Errorf("calling api: %w", inner)

	assert.Equal(t, ErrAuthRequired, CodeOf(wrapped))
	assert.True(t, Is(wrapped, ErrAuthRequired))
	assert.False(t, Is(wrapped, ErrAuthFailed))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, ErrInternal, CodeOf(fmt.Errorf("plain")))
	assert.Equal(t, ErrInternal, CodeOf(nil))
}

func TestErrorFormatting(t *testing.T) {
	plain := New(ErrStorage, "writing row")
	assert.Equal(t, "[STORAGE_ERROR] writing row", plain.Error())

	wrapped := Wrap(ErrNetwork, "request failed", fmt.Errorf("dial tcp: refused"))
	assert.Equal(t, "[NETWORK_ERROR] request failed: dial tcp: refused", wrapped.Error())
	assert.EqualError(t, wrapped.Unwrap(), "dial tcp: refused")
}
