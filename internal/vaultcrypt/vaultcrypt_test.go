package vaultcrypt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKeyDeterministic(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	k1, err := DeriveKey("correct horse battery staple", salt, DefaultIterations)
	require.NoError(t, err)
	k2, err := DeriveKey("correct horse battery staple", salt, DefaultIterations)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.Len(t, k1, KeySize)
}

func TestDeriveKeyDistinctPasswords(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	k1, err := DeriveKey("password-one", salt, DefaultIterations)
	require.NoError(t, err)
	k2, err := DeriveKey("password-two", salt, DefaultIterations)
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2)
}

func TestDeriveKeyDistinctSalts(t *testing.T) {
	s1, err := GenerateSalt()
	require.NoError(t, err)
	s2, err := GenerateSalt()
	require.NoError(t, err)
	require.NotEqual(t, s1, s2)

	k1, err := DeriveKey("same password", s1, DefaultIterations)
	require.NoError(t, err)
	k2, err := DeriveKey("same password", s2, DefaultIterations)
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2)
}

func TestDeriveKeyRejectsMalformedInputs(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	tests := []struct {
		name       string
		password   string
		salt       []byte
		iterations int
	}{
		{"empty password", "", salt, DefaultIterations},
		{"short salt", "password", salt[:8], DefaultIterations},
		{"nil salt", "password", nil, DefaultIterations},
		{"iterations below minimum", "password", salt, MinIterations - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveKey(tt.password, tt.salt, tt.iterations)
			assert.Error(t, err)
		})
	}
}

func TestGenerateSaltLengthAndUniqueness(t *testing.T) {
	s1, err := GenerateSalt()
	require.NoError(t, err)
	s2, err := GenerateSalt()
	require.NoError(t, err)

	assert.Len(t, s1, SaltSize)
	assert.NotEqual(t, s1, s2)
}

func testKey(t *testing.T) []byte {
	t.Helper()
	salt, err := GenerateSalt()
	require.NoError(t, err)
	key, err := DeriveKey("test master password", salt, MinIterations)
	require.NoError(t, err)
	return key
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey(t)
	plaintext := []byte(`{"current_balance":"1234.56","interest_rate":"4.1"}`)

	blob, err := Encrypt(key, plaintext)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, blob)

	got, err := Decrypt(key, blob)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestEncryptIsRandomized(t *testing.T) {
	key := testKey(t)
	plaintext := []byte("same balance twice")

	b1, err := Encrypt(key, plaintext)
	require.NoError(t, err)
	b2, err := Encrypt(key, plaintext)
	require.NoError(t, err)

	assert.NotEqual(t, b1, b2)
}

func TestDecryptWrongKeyFailsAuthentication(t *testing.T) {
	blob, err := Encrypt(testKey(t), []byte("secret"))
	require.NoError(t, err)

	_, err = Decrypt(testKey(t), blob)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestDecryptTamperedCiphertextFailsAuthentication(t *testing.T) {
	key := testKey(t)
	blob, err := Encrypt(key, []byte("ledger entry"))
	require.NoError(t, err)

	// Flip one bit at every byte position; every variant must be rejected.
	for i := range blob {
		tampered := bytes.Clone(blob)
		tampered[i] ^= 0x01

		_, err := Decrypt(key, tampered)
		assert.ErrorIs(t, err, ErrAuthenticationFailed, "bit flip at byte %d went undetected", i)
	}
}

func TestDecryptTruncatedBlobFailsAuthentication(t *testing.T) {
	key := testKey(t)

	_, err := Decrypt(key, []byte("short"))
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, err = Decrypt(key, nil)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestEncryptRejectsBadKeyLength(t *testing.T) {
	_, err := Encrypt([]byte("tiny"), []byte("data"))
	assert.Error(t, err)
}

func TestZero(t *testing.T) {
	key := testKey(t)
	Zero(key)
	assert.Equal(t, make([]byte, KeySize), key)
}
