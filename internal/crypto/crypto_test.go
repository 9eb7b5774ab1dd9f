package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	key := []byte("any length works as a key")
	sealed, err := Seal([]byte("token-secret-value"), key)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "token-secret-value")

	plain, err := Open(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, "token-secret-value", string(plain))
}

func TestOpenWrongKey(t *testing.T) {
	sealed, err := Seal([]byte("secret"), []byte("key one"))
	require.NoError(t, err)

	_, err = Open(sealed, []byte("key two"))
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestOpenGarbage(t *testing.T) {
	for _, in := range []string{"", "not base64!!!", "aGVsbG8="} {
		_, err := Open(in, []byte("key"))
		assert.ErrorIs(t, err, ErrInvalidCiphertext, "input %q", in)
	}
}

func TestLoadOrCreateKeyStable(t *testing.T) {
	dir := t.TempDir()
	first, err := LoadOrCreateKey(dir)
	require.NoError(t, err)
	require.Len(t, first, 32)

	second, err := LoadOrCreateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
