package models

import "time"

// Account is one stored website credential. The password exists only as
// AES-GCM ciphertext plus its nonce; Strength, Breached, and BreachChecked
// are posture values cached at the last write. Version is the optimistic
// concurrency stamp checked on every update.
type Account struct {
	ID            string
	UserID        string
	Service       string
	Username      string
	Ciphertext    []byte
	Nonce         []byte
	Strength      int
	Breached      bool
	BreachChecked bool
	Has2FA        bool
	LastChanged   time.Time
	Version       int64
}
