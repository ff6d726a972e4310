// Package session issues and verifies the stateless bearer tokens handed to
// clients after authentication. Tokens are HS256-signed JWTs carrying the
// subject user id, username, issued-at, and expiry; the server keeps no
// session table. Rotating the signing secret invalidates every outstanding
// token at once, which is the documented recourse for a compromise.
package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/passguard/passguard/internal/common"
)

// DefaultTTL is the session lifetime when none is configured.
const DefaultTTL = 24 * time.Hour

// pendingTTL bounds the window between the password phase and the TOTP
// phase of a login.
const pendingTTL = 5 * time.Minute

// Claims are the token claims. Pending marks an intermediate token issued
// after password verification while a TOTP code is still owed; pending
// tokens are never accepted as sessions.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Pending  bool   `json:"totp_pending,omitempty"`
}

// Issuer signs and verifies tokens with a shared HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer creates an Issuer. A non-positive ttl falls back to DefaultTTL.
func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: secret, ttl: ttl}
}

// Issue mints a session token for the authenticated user.
func (i *Issuer) Issue(userID, username string) (string, error) {
	return i.sign(userID, username, i.ttl, false)
}

// IssuePending mints the short-lived token bridging the two login phases
// when TOTP is active. It is not a session: Verify rejects it.
func (i *Issuer) IssuePending(userID, username string) (string, error) {
	return i.sign(userID, username, pendingTTL, true)
}

func (i *Issuer) sign(userID, username string, ttl time.Duration, pending bool) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: username,
		Pending:  pending,
	})
	return token.SignedString(i.secret)
}

// Verify validates a session token. Every failure mode — bad signature,
// expiry, malformed input, or a pending token smuggled in as a session —
// collapses into common.ErrTokenInvalid so the result cannot be used as a
// forgery oracle.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims, err := i.parse(tokenString)
	if err != nil {
		return nil, common.ErrTokenInvalid
	}
	if claims.Pending {
		return nil, common.ErrTokenInvalid
	}
	return claims, nil
}

// VerifyPending validates a phase-two login token. Regular session tokens
// are rejected here, so a session can never be replayed into the TOTP phase.
func (i *Issuer) VerifyPending(tokenString string) (*Claims, error) {
	claims, err := i.parse(tokenString)
	if err != nil || !claims.Pending {
		return nil, common.ErrTokenInvalid
	}
	return claims, nil
}

func (i *Issuer) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, common.ErrTokenInvalid
	}
	return claims, nil
}
