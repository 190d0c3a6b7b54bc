package driven

import (
	"context"
	"errors"
)

// ErrSettingNotFound indicates the requested settings key does not exist.
var ErrSettingNotFound = errors.New("setting not found")

// SettingStore persists small key/value application state. Plaintext values
// (the KDF salt, the iteration count) use Put/Get; secret values (the auth
// sentinel) are sealed with the vault key via the Encrypted variants.
type SettingStore interface {
	Put(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)

	PutEncrypted(ctx context.Context, aeadKey []byte, key string, plaintext []byte) error
	GetEncrypted(ctx context.Context, aeadKey []byte, key string) ([]byte, error)

	// ListPlain returns every key with a plaintext value.
	ListPlain(ctx context.Context) (map[string]string, error)

	Delete(ctx context.Context, key string) error
}
