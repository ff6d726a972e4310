package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/passguard/passguard/internal/analyzer"
	"github.com/passguard/passguard/internal/api/metrics"
	"github.com/passguard/passguard/internal/common"
	"github.com/passguard/passguard/internal/server/accounts"
	"github.com/passguard/passguard/internal/server/models"
	"github.com/passguard/passguard/internal/server/users"
	"github.com/passguard/passguard/internal/strength"
)

// AccountHandler serves the credential vault. Operations that touch
// plaintext re-supply the master secret in the request body; the derived key
// lives only for the duration of the call.
type AccountHandler struct {
	accounts *accounts.Service
	users    *users.Service
}

func NewAccountHandler(accountService *accounts.Service, userService *users.Service) *AccountHandler {
	return &AccountHandler{accounts: accountService, users: userService}
}

// List returns the user's accounts with posture metadata only; nothing is
// decrypted.
func (h *AccountHandler) List(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	rows, err := h.accounts.List(c.Request().Context(), userID)
	if err != nil {
		return fail(c, err)
	}

	out := make([]accountResponse, 0, len(rows))
	for _, a := range rows {
		out = append(out, toAccountResponse(a))
	}
	return c.JSON(http.StatusOK, out)
}

// Create stores a new credential, returning the stored row and its posture.
func (h *AccountHandler) Create(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req createAccountRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	ctx := c.Request().Context()
	key, err := h.users.UnlockKey(ctx, userID, req.MasterSecret)
	if err != nil {
		return fail(c, err)
	}
	defer common.WipeByteArray(key)

	account, posture, err := h.accounts.Add(ctx, userID, key, accounts.Input{
		Service:  req.Service,
		Username: req.Username,
		Password: req.Password,
		Has2FA:   req.Has2FA,
	})
	if err != nil {
		return fail(c, err)
	}

	metrics.AccountWritesTotal.WithLabelValues("create").Inc()
	return c.JSON(http.StatusCreated, writeAccountResponse{
		Account: toAccountResponse(account),
		Posture: toPostureResponse(posture),
	})
}

// Update rewrites a credential. The request carries the version the client
// read; a stale version is rejected with a conflict.
func (h *AccountHandler) Update(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	service := c.Param("service")

	var req updateAccountRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	ctx := c.Request().Context()
	key, err := h.users.UnlockKey(ctx, userID, req.MasterSecret)
	if err != nil {
		return fail(c, err)
	}
	defer common.WipeByteArray(key)

	account, posture, err := h.accounts.Update(ctx, userID, key, service, req.Version, accounts.Input{
		Username: req.Username,
		Password: req.Password,
		Has2FA:   req.Has2FA,
	})
	if err != nil {
		return fail(c, err)
	}

	metrics.AccountWritesTotal.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, writeAccountResponse{
		Account: toAccountResponse(account),
		Posture: toPostureResponse(posture),
	})
}

// Delete removes a credential.
func (h *AccountHandler) Delete(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.accounts.Delete(c.Request().Context(), userID, c.Param("service")); err != nil {
		return fail(c, err)
	}
	metrics.AccountWritesTotal.WithLabelValues("delete").Inc()
	return c.NoContent(http.StatusNoContent)
}

// Reveal decrypts one stored password for the user.
func (h *AccountHandler) Reveal(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	service := c.Param("service")

	var req revealRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	ctx := c.Request().Context()
	key, err := h.users.UnlockKey(ctx, userID, req.MasterSecret)
	if err != nil {
		return fail(c, err)
	}
	defer common.WipeByteArray(key)

	password, err := h.accounts.Reveal(ctx, userID, key, service)
	if err != nil {
		return fail(c, err)
	}

	metrics.RevealsTotal.Inc()
	return c.JSON(http.StatusOK, revealResponse{Service: service, Password: password})
}

// Analyze runs the reuse and aging checks across the user's vault.
func (h *AccountHandler) Analyze(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req analysisRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	if req.ThresholdDays == 0 {
		req.ThresholdDays = analyzer.DefaultAgingThresholdDays
	}

	ctx := c.Request().Context()
	key, err := h.users.UnlockKey(ctx, userID, req.MasterSecret)
	if err != nil {
		return fail(c, err)
	}
	defer common.WipeByteArray(key)

	analysis, err := h.accounts.Analyze(ctx, userID, key, req.ThresholdDays)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, analysis)
}

// Generate mints a random password; ?length= overrides the 16-char default.
func (h *AccountHandler) Generate(c echo.Context) error {
	if _, err := ctxUserID(c); err != nil {
		return err
	}

	length := 0
	if raw := c.QueryParam("length"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 128 {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "length must be a number between 8 and 128"})
		}
		length = n
	}

	password, err := accounts.GeneratePassword(length)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, generateResponse{Password: password, Strength: strength.Score(password)})
}

func toAccountResponse(a *models.Account) accountResponse {
	return accountResponse{
		Service:       a.Service,
		Username:      a.Username,
		Strength:      a.Strength,
		Breached:      a.Breached,
		BreachChecked: a.BreachChecked,
		Has2FA:        a.Has2FA,
		LastChanged:   a.LastChanged,
		Version:       a.Version,
	}
}

func toPostureResponse(p *accounts.Posture) postureResponse {
	return postureResponse{
		Strength:      p.Strength,
		Breached:      p.Breached,
		BreachChecked: p.BreachChecked,
		BreachCount:   p.BreachCount,
	}
}
