package application

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ericfisherdev/networthvault/internal/domain/model"
	"github.com/ericfisherdev/networthvault/internal/domain/port/driven"
	"github.com/ericfisherdev/networthvault/internal/vaultcrypt"
)

// Settings keys owned by the auth layer. They never appear in exports.
const (
	settingKDFSalt       = "kdf_salt"
	settingKDFIterations = "kdf_iterations"
	settingAuthSentinel  = "auth_sentinel"
)

// authSentinelValue is the known plaintext sealed at vault creation. A
// password is correct exactly when the stored sentinel decrypts back to it.
const authSentinelValue = "networthvault sentinel v1"

const minPasswordLength = 8

var (
	// ErrNotInitialized means the database has no vault in it yet.
	ErrNotInitialized = errors.New("vault is not initialized")

	// ErrAlreadyInitialized means Initialize was called on a live vault.
	ErrAlreadyInitialized = errors.New("vault is already initialized")
)

// AuthService creates vaults, authenticates master passwords, and rotates
// them. It owns the KDF parameters stored in app_settings.
type AuthService struct {
	settings   driven.SettingStore
	rekeyer    driven.Rekeyer
	iterations int
	sessionTTL time.Duration
	logger     *slog.Logger
}

// NewAuthService creates a new AuthService. iterations is the KDF work
// factor for new vaults and rotations; existing vaults use whatever count
// they were created with.
func NewAuthService(settings driven.SettingStore, rekeyer driven.Rekeyer, iterations int, sessionTTL time.Duration) *AuthService {
	if iterations < vaultcrypt.MinIterations {
		iterations = vaultcrypt.DefaultIterations
	}
	return &AuthService{
		settings:   settings,
		rekeyer:    rekeyer,
		iterations: iterations,
		sessionTTL: sessionTTL,
		logger:     slog.Default(),
	}
}

// Initialized reports whether the database already holds a vault.
func (s *AuthService) Initialized(ctx context.Context) (bool, error) {
	_, err := s.settings.Get(ctx, settingKDFSalt)
	if errors.Is(err, driven.ErrSettingNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Initialize creates a new vault: generates the salt, stores the KDF
// parameters, seals the auth sentinel, and returns an unlocked session.
func (s *AuthService) Initialize(ctx context.Context, password string) (*Session, error) {
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	initialized, err := s.Initialized(ctx)
	if err != nil {
		return nil, err
	}
	if initialized {
		return nil, ErrAlreadyInitialized
	}

	salt, err := vaultcrypt.GenerateSalt()
	if err != nil {
		return nil, err
	}

	key, err := vaultcrypt.DeriveKey(password, salt, s.iterations)
	if err != nil {
		return nil, err
	}

	if err := s.settings.Put(ctx, settingKDFSalt, base64.StdEncoding.EncodeToString(salt)); err != nil {
		return nil, err
	}
	if err := s.settings.Put(ctx, settingKDFIterations, strconv.Itoa(s.iterations)); err != nil {
		return nil, err
	}
	if err := s.settings.PutEncrypted(ctx, key, settingAuthSentinel, []byte(authSentinelValue)); err != nil {
		return nil, err
	}

	s.logger.Info("vault initialized", "kdf_iterations", s.iterations)

	return newSession(key, s.sessionTTL), nil
}

// Authenticate derives a key from the password and the stored KDF parameters
// and proves it by opening the sealed sentinel. A wrong password surfaces as
// model.ErrAuthentication; nothing distinguishes it from a tampered sentinel.
func (s *AuthService) Authenticate(ctx context.Context, password string) (*Session, error) {
	salt, iterations, err := s.kdfParams(ctx)
	if err != nil {
		return nil, err
	}

	key, err := vaultcrypt.DeriveKey(password, salt, iterations)
	if err != nil {
		return nil, err
	}

	sentinel, err := s.settings.GetEncrypted(ctx, key, settingAuthSentinel)
	if errors.Is(err, driven.ErrSettingNotFound) {
		vaultcrypt.Zero(key)
		return nil, ErrNotInitialized
	}
	if errors.Is(err, vaultcrypt.ErrAuthenticationFailed) {
		vaultcrypt.Zero(key)
		return nil, model.ErrAuthentication
	}
	if err != nil {
		vaultcrypt.Zero(key)
		return nil, err
	}

	if subtle.ConstantTimeCompare(sentinel, []byte(authSentinelValue)) != 1 {
		vaultcrypt.Zero(key)
		return nil, model.ErrAuthentication
	}

	return newSession(key, s.sessionTTL), nil
}

// ChangePassword rotates the master password: every sealed blob is reopened
// with the session key and resealed under the new password's key. The salt
// set at vault creation is reused; only the key changes. The vault adopts
// the configured iteration count, persisted in the same transaction as the
// re-encryption. The session keeps working under the new key.
func (s *AuthService) ChangePassword(ctx context.Context, session *Session, newPassword string) error {
	if err := checkPassword(newPassword); err != nil {
		return err
	}

	oldKey, err := session.Key()
	if err != nil {
		return err
	}

	salt, _, err := s.kdfParams(ctx)
	if err != nil {
		return err
	}

	newKey, err := vaultcrypt.DeriveKey(newPassword, salt, s.iterations)
	if err != nil {
		return err
	}

	resealed, err := s.rekeyer.Rekey(ctx, oldKey, newKey, map[string]string{
		settingKDFIterations: strconv.Itoa(s.iterations),
	})
	if err != nil {
		vaultcrypt.Zero(newKey)
		return fmt.Errorf("rotate password: %w", err)
	}

	session.replaceKey(newKey)
	s.logger.Info("master password rotated", "blobs_resealed", resealed, "kdf_iterations", s.iterations)

	return nil
}

// kdfParams loads the salt and iteration count stored at vault creation.
func (s *AuthService) kdfParams(ctx context.Context) ([]byte, int, error) {
	saltB64, err := s.settings.Get(ctx, settingKDFSalt)
	if errors.Is(err, driven.ErrSettingNotFound) {
		return nil, 0, ErrNotInitialized
	}
	if err != nil {
		return nil, 0, err
	}

	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return nil, 0, fmt.Errorf("decode stored salt: %w", err)
	}

	rawIterations, err := s.settings.Get(ctx, settingKDFIterations)
	if errors.Is(err, driven.ErrSettingNotFound) {
		return nil, 0, ErrNotInitialized
	}
	if err != nil {
		return nil, 0, err
	}

	iterations, err := strconv.Atoi(rawIterations)
	if err != nil {
		return nil, 0, fmt.Errorf("decode stored iteration count %q: %w", rawIterations, err)
	}

	return salt, iterations, nil
}

func checkPassword(password string) error {
	if len(password) < minPasswordLength {
		return model.NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	return nil
}
