// Package common defines shared constants and sentinel errors used across
// PassGuard components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
	ErrVersionConflict = errors.New("version conflict")

	// Service-level errors (generic/internal flow control).
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")

	// Authentication errors. Wrong password and unknown user are deliberately
	// collapsed into the same value so callers cannot tell them apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrRateLimited        = errors.New("too many attempts")

	// Second-factor errors.
	ErrTotpRejected      = errors.New("totp code rejected")
	ErrTotpLockout       = errors.New("totp verification locked")
	ErrTotpNotConfigured = errors.New("totp not configured")

	// Vault errors. Decryption fails closed: wrong key and corrupted
	// ciphertext are indistinguishable.
	ErrDecryptionFailure = errors.New("decryption failure")
)
