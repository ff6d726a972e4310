// Package authgate drives login as an explicit state machine:
//
//	AwaitingCredentials --(username, master secret)--> PasswordVerified
//	PasswordVerified    --> AwaitingTotp    (user's TOTP is Active)
//	PasswordVerified    --> Authenticated   (no second factor)
//	AwaitingTotp        --(code)--> Authenticated
//	any state           --> Rejected        (on terminal failure)
//
// Once a user's TOTP is Active the second phase cannot be skipped, and the
// password-phase response is byte-identical for unknown users and wrong
// secrets. Because sessions are stateless, the two HTTP phases are bridged
// by a short-lived pending token; Resume rebuilds a gate in AwaitingTotp
// from it.
package authgate

import (
	"context"
	"errors"
	"time"

	"github.com/passguard/passguard/internal/common"
	"github.com/passguard/passguard/internal/server/models"
	"github.com/passguard/passguard/internal/server/users"
	"github.com/passguard/passguard/internal/session"
	"github.com/passguard/passguard/internal/totp"
)

// State is the gate's position in the login flow.
type State int

const (
	AwaitingCredentials State = iota
	PasswordVerified
	AwaitingTotp
	Authenticated
	Rejected
)

// ErrInvalidTransition is returned when a phase is submitted out of order,
// e.g. a TOTP code before credentials.
var ErrInvalidTransition = errors.New("invalid login phase")

// Result is the outcome of a successful transition.
type Result struct {
	// TOTPRequired is set after the password phase when a second factor is
	// still owed; PendingToken then bridges to the TOTP phase.
	TOTPRequired bool
	PendingToken string

	// Token is the session token, present only once Authenticated.
	Token string
	User  *models.User
}

// Gate is a single login attempt. It is not safe for concurrent use; each
// login constructs its own gate.
type Gate struct {
	users    *users.Service
	totp     *totp.Authenticator
	sessions *session.Issuer

	state State
	user  *models.User
}

func New(userService *users.Service, totpAuth *totp.Authenticator, sessions *session.Issuer) *Gate {
	return &Gate{
		users:    userService,
		totp:     totpAuth,
		sessions: sessions,
		state:    AwaitingCredentials,
	}
}

// Resume reconstructs a gate in the AwaitingTotp state from a pending
// token. Any problem with the token yields common.ErrTokenInvalid.
func Resume(ctx context.Context, userService *users.Service, totpAuth *totp.Authenticator, sessions *session.Issuer, pendingToken string) (*Gate, error) {
	claims, err := sessions.VerifyPending(pendingToken)
	if err != nil {
		return nil, common.ErrTokenInvalid
	}

	user, err := userService.GetByID(ctx, claims.Subject)
	if err != nil || user.TOTPStatus() != models.TOTPActive {
		return nil, common.ErrTokenInvalid
	}

	return &Gate{
		users:    userService,
		totp:     totpAuth,
		sessions: sessions,
		state:    AwaitingTotp,
		user:     user,
	}, nil
}

func (g *Gate) State() State { return g.state }

// SubmitCredentials runs the password phase. On failure the gate moves to
// Rejected and the error is always common.ErrInvalidCredentials, whether
// the user exists or not.
func (g *Gate) SubmitCredentials(ctx context.Context, username, masterSecret string) (*Result, error) {
	if g.state != AwaitingCredentials {
		return nil, ErrInvalidTransition
	}

	user, key, err := g.users.Authenticate(ctx, username, masterSecret)
	if err != nil {
		g.state = Rejected
		if errors.Is(err, common.ErrInvalidCredentials) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}
	// The gate never needs the cipher key; account operations re-derive it
	// per request.
	common.WipeByteArray(key)

	g.user = user
	g.state = PasswordVerified

	if user.TOTPStatus() == models.TOTPActive {
		g.state = AwaitingTotp
		pending, err := g.sessions.IssuePending(user.ID, user.Username)
		if err != nil {
			g.state = Rejected
			return nil, common.ErrorInternal
		}
		return &Result{TOTPRequired: true, PendingToken: pending}, nil
	}

	return g.complete(ctx)
}

// SubmitTOTP runs the second phase. A rejected code keeps the gate in
// AwaitingTotp so the client may retry until the authenticator's failure
// cap locks the user out, which moves the gate to Rejected.
func (g *Gate) SubmitTOTP(ctx context.Context, code string, at time.Time) (*Result, error) {
	if g.state != AwaitingTotp {
		return nil, ErrInvalidTransition
	}

	err := g.totp.Verify(g.user.ID, g.user.TOTPSecret, code, at)
	switch {
	case errors.Is(err, common.ErrTotpLockout):
		g.state = Rejected
		return nil, err
	case err != nil:
		return nil, err
	}

	return g.complete(ctx)
}

func (g *Gate) complete(ctx context.Context) (*Result, error) {
	token, err := g.sessions.Issue(g.user.ID, g.user.Username)
	if err != nil {
		g.state = Rejected
		return nil, common.ErrorInternal
	}

	g.state = Authenticated
	g.users.StampLastLogin(ctx, g.user.ID)
	return &Result{Token: token, User: g.user}, nil
}
