package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Context keys set by the session middleware.
const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
)

// ctxUserID extracts the authenticated user id injected by the session
// middleware. An empty id means the middleware did not run on this route.
func ctxUserID(c echo.Context) (string, error) {
	id, _ := c.Get(CtxUserID).(string)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}
