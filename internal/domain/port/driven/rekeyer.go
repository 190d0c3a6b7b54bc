package driven

import "context"

// Rekeyer re-encrypts every sealed blob in the vault under a new key. Used by
// password rotation. The settings map holds plaintext settings (the KDF
// iteration count in use) written in the same transaction, so the stored
// parameters can never disagree with the key the data is sealed under.
type Rekeyer interface {
	// Rekey opens every encrypted blob with oldKey, reseals it with newKey,
	// and replaces the given plaintext settings, all in one transaction.
	// Any blob that fails to open aborts the whole rotation. Returns the
	// number of blobs resealed.
	Rekey(ctx context.Context, oldKey, newKey []byte, settings map[string]string) (int64, error)
}
