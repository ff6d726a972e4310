package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/passguard/passguard/internal/common"
)

// fail maps the engine's sentinel errors onto HTTP statuses and writes the
// standard error envelope. Unknown errors collapse to a generic 500 so
// internal detail never reaches the client.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrTotpNotConfigured):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrTokenInvalid),
		errors.Is(err, common.ErrTotpRejected):
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrDecryptionFailure):
		// Wrong master secret on a vault operation.
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: common.ErrInvalidCredentials.Error()})
	case errors.Is(err, common.ErrorNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrorAlreadyExists):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrVersionConflict):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrTotpLockout):
		return c.JSON(http.StatusLocked, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrRateLimited):
		return c.JSON(http.StatusTooManyRequests, errorResponse{Error: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
