package totp

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passguard/passguard/internal/common"
)

// base is 20 seconds into a 30-second step, so base-25s falls in the
// previous step and base+65s is two steps later.
var base = time.Unix(1700000000, 0)

func newTestAuth(t *testing.T) (*Authenticator, string) {
	t.Helper()
	a := NewAuthenticator("PassGuard")
	secret, uri, err := a.GenerateSecret("alice")
	require.NoError(t, err)
	require.NotEmpty(t, uri)
	return a, secret
}

func code(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	c, err := totp.GenerateCode(secret, at)
	require.NoError(t, err)
	return c
}

func TestGenerateSecret(t *testing.T) {
	a := NewAuthenticator("PassGuard")

	s1, uri, err := a.GenerateSecret("alice")
	require.NoError(t, err)
	// 20 random bytes base32-encode to 32 characters.
	assert.Len(t, s1, 32)
	assert.True(t, strings.HasPrefix(uri, "otpauth://totp/"))
	assert.Contains(t, uri, "issuer=PassGuard")
	assert.Contains(t, uri, "alice")
	assert.Contains(t, uri, "secret="+s1)

	s2, _, err := a.GenerateSecret("alice")
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2)
}

func TestVerify_CurrentWindow(t *testing.T) {
	a, secret := newTestAuth(t)
	assert.NoError(t, a.Verify("u1", secret, code(t, secret, base), base))
}

func TestVerify_PreviousWindowTolerated(t *testing.T) {
	a, secret := newTestAuth(t)
	// Code generated 25s ago, in the prior step, still validates now.
	assert.NoError(t, a.Verify("u1", secret, code(t, secret, base.Add(-25*time.Second)), base))
}

func TestVerify_TwoWindowsOldRejected(t *testing.T) {
	a, secret := newTestAuth(t)
	c := code(t, secret, base)
	err := a.Verify("u1", secret, c, base.Add(65*time.Second))
	assert.ErrorIs(t, err, common.ErrTotpRejected)
}

func TestVerify_ReplayRejected(t *testing.T) {
	a, secret := newTestAuth(t)
	c := code(t, secret, base)

	require.NoError(t, a.Verify("u1", secret, c, base))
	err := a.Verify("u1", secret, c, base.Add(time.Second))
	assert.ErrorIs(t, err, common.ErrTotpRejected)
}

func TestVerify_ReplayIsPerUser(t *testing.T) {
	a, secret := newTestAuth(t)
	c := code(t, secret, base)

	require.NoError(t, a.Verify("u1", secret, c, base))
	assert.NoError(t, a.Verify("u2", secret, c, base))
}

func TestVerify_LockoutAfterRepeatedFailures(t *testing.T) {
	a, secret := newTestAuth(t)

	for i := 0; i < lockoutAfter-1; i++ {
		err := a.Verify("u1", secret, "000000", base)
		assert.ErrorIs(t, err, common.ErrTotpRejected)
	}
	// Fifth failure flips to lockout.
	err := a.Verify("u1", secret, "000000", base)
	assert.ErrorIs(t, err, common.ErrTotpLockout)

	// Even a correct code is refused while locked.
	err = a.Verify("u1", secret, code(t, secret, base), base.Add(10*time.Second))
	assert.ErrorIs(t, err, common.ErrTotpLockout)

	// After the lockout window passes, a correct code goes through.
	later := base.Add(lockoutBase + time.Second)
	assert.NoError(t, a.Verify("u1", secret, code(t, secret, later), later))
}

func TestVerify_SuccessResetsFailures(t *testing.T) {
	a, secret := newTestAuth(t)

	for i := 0; i < lockoutAfter-1; i++ {
		require.ErrorIs(t, a.Verify("u1", secret, "000000", base), common.ErrTotpRejected)
	}
	require.NoError(t, a.Verify("u1", secret, code(t, secret, base), base))

	// Counter starts over: the next failure is a plain rejection.
	next := base.Add(Period)
	assert.ErrorIs(t, a.Verify("u1", secret, "000000", next), common.ErrTotpRejected)
}

func TestReset_ClearsReplayState(t *testing.T) {
	a, secret := newTestAuth(t)
	c := code(t, secret, base)

	require.NoError(t, a.Verify("u1", secret, c, base))
	a.Reset("u1")
	assert.NoError(t, a.Verify("u1", secret, c, base))
}
