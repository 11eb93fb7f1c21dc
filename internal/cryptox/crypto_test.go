package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_VerifyRoundtrip(t *testing.T) {
	encoded, err := HashPassword([]byte("correct horse"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(encoded, "argon2id$"))

	ok, err := VerifyPassword([]byte("correct horse"), encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword([]byte("wrong"), encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_SaltedPerCall(t *testing.T) {
	a, err := HashPassword([]byte("p"))
	require.NoError(t, err)
	b, err := HashPassword([]byte("p"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "hashes must differ because salts differ")
}

func TestVerifyPassword_Malformed(t *testing.T) {
	for _, encoded := range []string{"", "nonsense", "argon2id$only-two", "md5$a$b"} {
		_, err := VerifyPassword([]byte("p"), encoded)
		assert.ErrorIs(t, err, ErrMalformedHash, "input %q", encoded)
	}
}

func TestEncryptor_Roundtrip(t *testing.T) {
	e, err := NewEncryptor(make([]byte, 32))
	require.NoError(t, err)

	ciphertext, err := e.Encrypt("s3cret-value")
	require.NoError(t, err)
	assert.NotContains(t, ciphertext, "s3cret-value")

	plaintext, err := e.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "s3cret-value", plaintext)
}

func TestEncryptor_FreshNoncePerCall(t *testing.T) {
	e, err := NewEncryptor(make([]byte, 32))
	require.NoError(t, err)

	a, err := e.Encrypt("v")
	require.NoError(t, err)
	b, err := e.Encrypt("v")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestEncryptor_BadKeySize(t *testing.T) {
	_, err := NewEncryptor(make([]byte, 5))
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestEncryptor_DecryptErrors(t *testing.T) {
	e, err := NewEncryptor(make([]byte, 32))
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
	}{
		{"not base64", "%%%"},
		{"too short", "YWJj"},
		{"tampered", func() string {
			c, _ := e.Encrypt("v")
			return c[:len(c)-4] + "AAA="
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Decrypt(tt.input)
			assert.ErrorIs(t, err, ErrInvalidCiphertext)
		})
	}
}
