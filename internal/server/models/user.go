package models

import "time"

// User is one vault owner. Verifier is the one-way digest of the argon2id
// master key; the master secret itself is never stored in any form.
type User struct {
	ID            string
	Username      string
	Salt          []byte
	Verifier      []byte
	RecoveryEmail string
	TOTPSecret    string
	TOTPEnabled   bool
	CreatedAt     time.Time
	LastLoginAt   *time.Time
}

// TOTPState reports where the user sits in the second-factor lifecycle.
type TOTPState int

const (
	// TOTPUnconfigured means no secret exists.
	TOTPUnconfigured TOTPState = iota
	// TOTPSecretIssued means a secret was provisioned but never verified.
	TOTPSecretIssued
	// TOTPActive means the secret is confirmed and required at login.
	TOTPActive
)

// TOTPStatus derives the lifecycle state from the stored columns.
func (u *User) TOTPStatus() TOTPState {
	switch {
	case u.TOTPSecret == "":
		return TOTPUnconfigured
	case !u.TOTPEnabled:
		return TOTPSecretIssued
	default:
		return TOTPActive
	}
}
