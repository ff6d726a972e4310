package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/passguard/passguard/internal/api/metrics"
	"github.com/passguard/passguard/internal/ratelimit"
	"github.com/passguard/passguard/internal/server/authgate"
	"github.com/passguard/passguard/internal/server/models"
	"github.com/passguard/passguard/internal/server/users"
	"github.com/passguard/passguard/internal/session"
	"github.com/passguard/passguard/internal/totp"
)

// AuthHandler serves registration and the two-phase login flow.
type AuthHandler struct {
	users    *users.Service
	totp     *totp.Authenticator
	sessions *session.Issuer
	limiter  ratelimit.Limiter
}

func NewAuthHandler(userService *users.Service, totpAuth *totp.Authenticator, sessions *session.Issuer, limiter ratelimit.Limiter) *AuthHandler {
	return &AuthHandler{
		users:    userService,
		totp:     totpAuth,
		sessions: sessions,
		limiter:  limiter,
	}
}

// Register creates a vault owner.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	user, err := h.users.Register(c.Request().Context(), req.Username, req.MasterSecret, req.RecoveryEmail)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login runs the password phase. When the user has TOTP active the response
// carries a pending token instead of a session, and the client finishes at
// /login/totp. Attempts are throttled per username and client IP.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	ctx := c.Request().Context()
	limitKey := req.Username + "|" + c.RealIP()
	if err := h.limiter.Allow(ctx, limitKey); err != nil {
		metrics.LoginsTotal.WithLabelValues("rate_limited").Inc()
		return fail(c, err)
	}

	gate := authgate.New(h.users, h.totp, h.sessions)
	res, err := gate.SubmitCredentials(ctx, req.Username, req.MasterSecret)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return fail(c, err)
	}

	if res.TOTPRequired {
		metrics.LoginsTotal.WithLabelValues("totp_required").Inc()
		return c.JSON(http.StatusOK, loginResponse{TOTPRequired: true, PendingToken: res.PendingToken})
	}

	h.limiter.Reset(ctx, limitKey)
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, loginResponse{Token: res.Token, User: toUserResponse(res.User)})
}

// LoginTOTP runs the second phase from a pending token.
func (h *AuthHandler) LoginTOTP(c echo.Context) error {
	var req loginTOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	ctx := c.Request().Context()
	gate, err := authgate.Resume(ctx, h.users, h.totp, h.sessions, req.PendingToken)
	if err != nil {
		return fail(c, err)
	}

	res, err := gate.SubmitTOTP(ctx, req.Code, time.Now())
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("totp_rejected").Inc()
		return fail(c, err)
	}

	h.limiter.Reset(ctx, res.User.Username+"|"+c.RealIP())
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, loginResponse{Token: res.Token, User: toUserResponse(res.User)})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	user, err := h.users.GetByID(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

func toUserResponse(u *models.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{
		ID:            u.ID,
		Username:      u.Username,
		RecoveryEmail: u.RecoveryEmail,
		TOTPEnabled:   u.TOTPEnabled,
		CreatedAt:     u.CreatedAt,
		LastLoginAt:   u.LastLoginAt,
	}
}
