package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passguard/passguard/internal/common"
)

var secret = []byte("test-signing-secret")

func TestIssueAndVerify(t *testing.T) {
	i := NewIssuer(secret, time.Hour)

	token, err := i.Issue("user-1", "alice")
	require.NoError(t, err)

	claims, err := i.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.False(t, claims.Pending)
}

func TestVerify_Expired(t *testing.T) {
	i := NewIssuer(secret, -time.Minute)

	token, err := i.Issue("user-1", "alice")
	require.NoError(t, err)

	_, err = i.Verify(token)
	assert.ErrorIs(t, err, common.ErrTokenInvalid)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := NewIssuer(secret, time.Hour).Issue("user-1", "alice")
	require.NoError(t, err)

	_, err = NewIssuer([]byte("rotated"), time.Hour).Verify(token)
	assert.ErrorIs(t, err, common.ErrTokenInvalid)
}

func TestVerify_Tampered(t *testing.T) {
	i := NewIssuer(secret, time.Hour)
	token, err := i.Issue("user-1", "alice")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + ".eyJzdWIiOiJ1c2VyLTIifQ." + parts[2]

	_, err = i.Verify(tampered)
	assert.ErrorIs(t, err, common.ErrTokenInvalid)
}

func TestVerify_Garbage(t *testing.T) {
	i := NewIssuer(secret, time.Hour)
	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := i.Verify(tok)
		assert.ErrorIs(t, err, common.ErrTokenInvalid)
	}
}

func TestPendingToken_NotASession(t *testing.T) {
	i := NewIssuer(secret, time.Hour)

	pending, err := i.IssuePending("user-1", "alice")
	require.NoError(t, err)

	_, err = i.Verify(pending)
	assert.ErrorIs(t, err, common.ErrTokenInvalid)

	claims, err := i.VerifyPending(pending)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.True(t, claims.Pending)
}

func TestSessionToken_NotPending(t *testing.T) {
	i := NewIssuer(secret, time.Hour)

	token, err := i.Issue("user-1", "alice")
	require.NoError(t, err)

	_, err = i.VerifyPending(token)
	assert.ErrorIs(t, err, common.ErrTokenInvalid)
}

func TestDefaultTTL(t *testing.T) {
	i := NewIssuer(secret, 0)
	token, err := i.Issue("user-1", "alice")
	require.NoError(t, err)

	claims, err := i.Verify(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultTTL), claims.ExpiresAt.Time, time.Minute)
}
