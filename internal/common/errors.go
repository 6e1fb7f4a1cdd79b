// Package common defines shared constants and sentinel errors used across
// the journal core. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Expected pipeline outcomes. Callers branch on these; they are never
	// retried automatically.
	ErrValidation          = errors.New("validation error")
	ErrKeyMissing          = errors.New("encryption key material missing")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrDecryptionFailed    = errors.New("decryption failed")

	// ErrStorage marks transaction failures where nothing was durably
	// applied. The only error in the taxonomy that is safe to retry.
	ErrStorage = errors.New("storage failure")
)
