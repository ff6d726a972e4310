// Package api wires the HTTP surface: routes, session middleware, request
// metrics, and the Prometheus and health endpoints.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/passguard/passguard/internal/api/handler"
	"github.com/passguard/passguard/internal/api/metrics"
	"github.com/passguard/passguard/internal/api/middleware"
	"github.com/passguard/passguard/internal/ratelimit"
	"github.com/passguard/passguard/internal/server/accounts"
	"github.com/passguard/passguard/internal/server/users"
	"github.com/passguard/passguard/internal/session"
	"github.com/passguard/passguard/internal/totp"
)

// NewRouter builds the Echo instance with all routes registered.
func NewRouter(
	userService *users.Service,
	accountService *accounts.Service,
	totpAuth *totp.Authenticator,
	sessions *session.Issuer,
	limiter ratelimit.Limiter,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(observeDuration)

	authHandler := handler.NewAuthHandler(userService, totpAuth, sessions, limiter)
	totpHandler := handler.NewTOTPHandler(userService)
	accountHandler := handler.NewAccountHandler(accountService, userService)

	// Public routes.
	e.POST("/api/auth/register", authHandler.Register)
	e.POST("/api/auth/login", authHandler.Login)
	e.POST("/api/auth/login/totp", authHandler.LoginTOTP)

	// Everything below requires a session.
	g := e.Group("/api", middleware.Session(sessions))
	g.GET("/auth/me", authHandler.Me)

	g.POST("/totp/setup", totpHandler.Setup)
	g.POST("/totp/activate", totpHandler.Activate)
	g.POST("/totp/disable", totpHandler.Disable)

	g.GET("/accounts", accountHandler.List)
	g.POST("/accounts", accountHandler.Create)
	g.PUT("/accounts/:service", accountHandler.Update)
	g.DELETE("/accounts/:service", accountHandler.Delete)
	g.POST("/accounts/:service/reveal", accountHandler.Reveal)
	g.POST("/analysis", accountHandler.Analyze)
	g.GET("/passwords/generate", accountHandler.Generate)

	// Operational endpoints.
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

// observeDuration records per-route request latency. The label uses the
// registered route pattern so path parameters do not explode cardinality.
func observeDuration(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if err != nil {
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
		}
		metrics.RequestDuration.
			WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}
