package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/networthvault/internal/domain/port/driven"
	"github.com/ericfisherdev/networthvault/internal/vaultcrypt"
)

func TestSettingRepo_PutGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSettingRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "kdf_iterations", "100000"))

	got, err := repo.Get(ctx, "kdf_iterations")
	require.NoError(t, err)
	assert.Equal(t, "100000", got)

	// Overwrite.
	require.NoError(t, repo.Put(ctx, "kdf_iterations", "200000"))
	got, err = repo.Get(ctx, "kdf_iterations")
	require.NoError(t, err)
	assert.Equal(t, "200000", got)
}

func TestSettingRepo_Get_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSettingRepo(db)
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, driven.ErrSettingNotFound)
}

func TestSettingRepo_Encrypted_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSettingRepo(db)
	key := testKey(0xAA)
	ctx := context.Background()

	require.NoError(t, repo.PutEncrypted(ctx, key, "auth_sentinel", []byte("vault-check")))

	got, err := repo.GetEncrypted(ctx, key, "auth_sentinel")
	require.NoError(t, err)
	assert.Equal(t, []byte("vault-check"), got)

	// An encrypted key has no plaintext value.
	_, err = repo.Get(ctx, "auth_sentinel")
	assert.ErrorIs(t, err, driven.ErrSettingNotFound)
}

func TestSettingRepo_Encrypted_WrongKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSettingRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.PutEncrypted(ctx, testKey(0xAA), "auth_sentinel", []byte("vault-check")))

	_, err := repo.GetEncrypted(ctx, testKey(0xBB), "auth_sentinel")
	require.Error(t, err)
	assert.ErrorIs(t, err, vaultcrypt.ErrAuthenticationFailed)
}

func TestSettingRepo_Encrypted_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSettingRepo(db)
	key := testKey(0xAA)
	ctx := context.Background()

	_, err := repo.GetEncrypted(ctx, key, "missing")
	assert.ErrorIs(t, err, driven.ErrSettingNotFound)

	// A plaintext key has no encrypted value.
	require.NoError(t, repo.Put(ctx, "kdf_iterations", "100000"))
	_, err = repo.GetEncrypted(ctx, key, "kdf_iterations")
	assert.ErrorIs(t, err, driven.ErrSettingNotFound)
}

func TestSettingRepo_PutClearsEncrypted(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSettingRepo(db)
	key := testKey(0xAA)
	ctx := context.Background()

	require.NoError(t, repo.PutEncrypted(ctx, key, "flag", []byte("secret")))
	require.NoError(t, repo.Put(ctx, "flag", "plain"))

	got, err := repo.Get(ctx, "flag")
	require.NoError(t, err)
	assert.Equal(t, "plain", got)

	_, err = repo.GetEncrypted(ctx, key, "flag")
	assert.ErrorIs(t, err, driven.ErrSettingNotFound, "writing a plaintext value clears the encrypted one")
}

func TestSettingRepo_ListPlain(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSettingRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "theme", "dark"))
	require.NoError(t, repo.Put(ctx, "currency", "USD"))
	require.NoError(t, repo.PutEncrypted(ctx, testKey(0xAA), "auth_sentinel", []byte("vault-check")))

	settings, err := repo.ListPlain(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"theme": "dark", "currency": "USD"}, settings)
}

func TestSettingRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSettingRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "theme", "dark"))
	require.NoError(t, repo.Delete(ctx, "theme"))

	_, err := repo.Get(ctx, "theme")
	assert.ErrorIs(t, err, driven.ErrSettingNotFound)

	require.NoError(t, repo.Delete(ctx, "theme"), "deleting a missing key is a no-op")
}
