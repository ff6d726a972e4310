package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passguard/passguard/internal/session"
)

func callWith(t *testing.T, issuer *session.Issuer, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := Session(issuer)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, c
}

func TestSession_ValidToken(t *testing.T) {
	issuer := session.NewIssuer([]byte("secret"), time.Hour)
	token, err := issuer.Issue("u-1", "alice")
	require.NoError(t, err)

	rec, c := callWith(t, issuer, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1", c.Get("user_id"))
	assert.Equal(t, "alice", c.Get("username"))
}

func TestSession_MissingOrMalformedHeader(t *testing.T) {
	issuer := session.NewIssuer([]byte("secret"), time.Hour)

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearertoken"} {
		rec, _ := callWith(t, issuer, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestSession_RejectsForgedAndPendingTokens(t *testing.T) {
	issuer := session.NewIssuer([]byte("secret"), time.Hour)

	forged, err := session.NewIssuer([]byte("other"), time.Hour).Issue("u-1", "alice")
	require.NoError(t, err)
	rec, _ := callWith(t, issuer, "Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	pending, err := issuer.IssuePending("u-1", "alice")
	require.NoError(t, err)
	rec, _ = callWith(t, issuer, "Bearer "+pending)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = callWith(t, issuer, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
