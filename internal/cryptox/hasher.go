// Package cryptox implements the cryptographic core of the vault: master-key
// derivation, the stored master-secret verifier, and authenticated
// encryption of account passwords.
//
// The master secret is never stored. Login derives a 32-byte key with
// argon2id over the user's salt; the database keeps only SHA-256 of that key
// (the verifier), while the key itself doubles as the AES-256-GCM key for
// the user's account passwords. A leaked store therefore discloses nothing
// reversible.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/passguard/passguard/internal/common"
	"golang.org/x/crypto/argon2"
)

// SaltSize is the per-user salt length in bytes.
const SaltSize = 32

// KeySize is the derived master key length (AES-256).
const KeySize = 32

// argon2id parameters: 1 pass, 64 MiB, 4 lanes.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// NewSalt returns a fresh random per-user salt.
func NewSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// DeriveMasterKey stretches the master secret into the cipher key using
// argon2id. Deterministic for a given (secret, salt) pair.
func DeriveMasterKey(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, argonTime, argonMemory, argonThreads, KeySize)
}

// MakeVerifier returns the one-way digest stored for login checks:
// SHA-256 of the derived master key.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// HashMasterSecret derives the stored verifier directly from the secret and
// salt. Equivalent to MakeVerifier(DeriveMasterKey(secret, salt)).
func HashMasterSecret(secret, salt []byte) []byte {
	key := DeriveMasterKey(secret, salt)
	defer common.WipeByteArray(key)
	return MakeVerifier(key)
}

// VerifyMasterSecret reports whether the secret matches the stored digest.
// The comparison is constant-time. It never errors: any mismatch, including
// a digest of the wrong length, yields false.
func VerifyMasterSecret(secret, salt, digest []byte) bool {
	candidate := HashMasterSecret(secret, salt)
	return subtle.ConstantTimeCompare(candidate, digest) == 1
}

// CheckVerifier compares an already-derived verifier candidate against the
// stored digest in constant time.
func CheckVerifier(digest, candidate []byte) bool {
	return subtle.ConstantTimeCompare(digest, candidate) == 1
}
