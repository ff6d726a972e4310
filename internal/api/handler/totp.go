package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/passguard/passguard/internal/server/users"
)

// TOTPHandler serves the second-factor lifecycle for an authenticated user.
type TOTPHandler struct {
	users *users.Service
}

func NewTOTPHandler(userService *users.Service) *TOTPHandler {
	return &TOTPHandler{users: userService}
}

// Setup provisions a fresh secret and returns it with the otpauth:// URI.
// The secret stays untrusted until Activate confirms a first code.
func (h *TOTPHandler) Setup(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	secret, uri, err := h.users.SetupTOTP(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, totpSetupResponse{Secret: secret, URI: uri})
}

// Activate confirms the pending secret with a first code.
func (h *TOTPHandler) Activate(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req totpCodeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	if err := h.users.ActivateTOTP(c.Request().Context(), userID, req.Code, time.Now()); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Disable turns the second factor off after verifying a current code.
func (h *TOTPHandler) Disable(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req totpCodeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	if err := h.users.DisableTOTP(c.Request().Context(), userID, req.Code, time.Now()); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
