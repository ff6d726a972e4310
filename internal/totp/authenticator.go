// Package totp implements the second authentication factor: secret
// provisioning, time-window code verification with bounded clock-drift
// tolerance, replay protection, and brute-force throttling.
//
// Per-user lifecycle: Unconfigured → SecretIssued (secret stored, not yet
// trusted) → Active (first successful verification). Disable returns to
// Unconfigured; re-setup overwrites the secret so old and new are never
// valid at the same time. The lifecycle flags themselves live on the user
// record; this package owns code verification and the only shared mutable
// state of the engine — the replay tracker and the failure counters.
package totp

import (
	"sync"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/passguard/passguard/internal/common"
)

// Period is the TOTP time step.
const Period = 30 * time.Second

const (
	secretSize     = 20 // bytes, 160-bit secret
	digits         = otp.DigitsSix
	lockoutAfter   = 5
	lockoutBase    = 30 * time.Second
	lockoutCeiling = 15 * time.Minute
)

type failureState struct {
	count       int
	lockedUntil time.Time
}

// Authenticator verifies TOTP codes. Safe for concurrent use; state is
// keyed by user id so unrelated users never contend on outcomes, only on
// the short critical section around the maps.
type Authenticator struct {
	issuer string

	mu       sync.Mutex
	consumed map[string]int64 // user id -> last successfully consumed time step
	failures map[string]*failureState
}

// NewAuthenticator creates an Authenticator issuing secrets under the given
// issuer name (shown by authenticator apps).
func NewAuthenticator(issuer string) *Authenticator {
	return &Authenticator{
		issuer:   issuer,
		consumed: make(map[string]int64),
		failures: make(map[string]*failureState),
	}
}

// GenerateSecret mints a fresh 160-bit secret for the account and returns
// the base32 secret plus the otpauth:// provisioning URI
// (otpauth://totp/{issuer}:{account}?secret=...&issuer=...).
func (a *Authenticator) GenerateSecret(account string) (secret, uri string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      a.issuer,
		AccountName: account,
		SecretSize:  secretSize,
		Digits:      digits,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

// Verify checks a submitted 6-digit code for the user's secret at the given
// time. A code is accepted if it matches the time step containing at or the
// immediately preceding step; anything further off fails. Each (user, step)
// is consumable once — resubmitting a code for an already-consumed step is
// rejected as a replay.
//
// Returns nil on success, common.ErrTotpLockout while the user is throttled,
// and common.ErrTotpRejected otherwise. Five consecutive failures trigger an
// exponentially growing lockout (30s doubling per extra failure, capped at
// 15 minutes); any success resets the counter.
func (a *Authenticator) Verify(userID, secret, code string, at time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if fs, ok := a.failures[userID]; ok && at.Before(fs.lockedUntil) {
		return common.ErrTotpLockout
	}

	step, ok := matchStep(secret, code, at)
	if !ok {
		return a.recordFailure(userID, at)
	}
	if last, seen := a.consumed[userID]; seen && step <= last {
		return a.recordFailure(userID, at)
	}

	a.consumed[userID] = step
	delete(a.failures, userID)
	return nil
}

// Reset clears replay and throttling state for the user. Called when TOTP
// is disabled or the secret is re-issued.
func (a *Authenticator) Reset(userID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.consumed, userID)
	delete(a.failures, userID)
}

func (a *Authenticator) recordFailure(userID string, at time.Time) error {
	fs := a.failures[userID]
	if fs == nil {
		fs = &failureState{}
		a.failures[userID] = fs
	}
	fs.count++
	if fs.count >= lockoutAfter {
		d := lockoutBase << (fs.count - lockoutAfter)
		if d > lockoutCeiling || d <= 0 {
			d = lockoutCeiling
		}
		fs.lockedUntil = at.Add(d)
		return common.ErrTotpLockout
	}
	return common.ErrTotpRejected
}

// matchStep reports which time step the code matches: the step containing
// at, or the one before it. Future steps are not accepted.
func matchStep(secret, code string, at time.Time) (int64, bool) {
	opts := totp.ValidateOpts{
		Period:    uint(Period / time.Second),
		Skew:      0,
		Digits:    digits,
		Algorithm: otp.AlgorithmSHA1,
	}

	step := at.Unix() / int64(Period/time.Second)
	if ok, _ := totp.ValidateCustom(code, secret, at, opts); ok {
		return step, true
	}
	if ok, _ := totp.ValidateCustom(code, secret, at.Add(-Period), opts); ok {
		return step - 1, true
	}
	return 0, false
}
