package handler

import "time"

// errorResponse is the error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Username      string `json:"username"       validate:"required,max=64"`
	MasterSecret  string `json:"master_secret"  validate:"required,min=8"`
	RecoveryEmail string `json:"recovery_email" validate:"omitempty,email"`
}

type loginRequest struct {
	Username     string `json:"username"      validate:"required"`
	MasterSecret string `json:"master_secret" validate:"required"`
}

type loginTOTPRequest struct {
	PendingToken string `json:"pending_token" validate:"required"`
	Code         string `json:"code"          validate:"required,len=6,numeric"`
}

type userResponse struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	RecoveryEmail string     `json:"recovery_email,omitempty"`
	TOTPEnabled   bool       `json:"totp_enabled"`
	CreatedAt     time.Time  `json:"created_at"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
}

type loginResponse struct {
	Token        string        `json:"token,omitempty"`
	TOTPRequired bool          `json:"totp_required,omitempty"`
	PendingToken string        `json:"pending_token,omitempty"`
	User         *userResponse `json:"user,omitempty"`
}

// --- TOTP lifecycle ---

type totpSetupResponse struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
}

type totpCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// --- Accounts ---

// Write operations re-supply the master secret: the cipher key is derived
// per request and never kept server-side.

type createAccountRequest struct {
	MasterSecret string `json:"master_secret" validate:"required"`
	Service      string `json:"service"       validate:"required,max=255"`
	Username     string `json:"username"      validate:"max=255"`
	Password     string `json:"password"      validate:"required"`
	Has2FA       bool   `json:"has_2fa"`
}

type updateAccountRequest struct {
	MasterSecret string `json:"master_secret" validate:"required"`
	Username     string `json:"username"      validate:"max=255"`
	Password     string `json:"password"      validate:"required"`
	Has2FA       bool   `json:"has_2fa"`
	Version      int64  `json:"version"       validate:"required,gt=0"`
}

type postureResponse struct {
	Strength      int  `json:"strength"`
	Breached      bool `json:"breached"`
	BreachChecked bool `json:"breach_checked"`
	BreachCount   int  `json:"breach_count,omitempty"`
}

type accountResponse struct {
	Service       string    `json:"service"`
	Username      string    `json:"username,omitempty"`
	Strength      int       `json:"strength"`
	Breached      bool      `json:"breached"`
	BreachChecked bool      `json:"breach_checked"`
	Has2FA        bool      `json:"has_2fa"`
	LastChanged   time.Time `json:"last_changed"`
	Version       int64     `json:"version"`
}

type writeAccountResponse struct {
	Account accountResponse `json:"account"`
	Posture postureResponse `json:"posture"`
}

type revealRequest struct {
	MasterSecret string `json:"master_secret" validate:"required"`
}

type revealResponse struct {
	Service  string `json:"service"`
	Password string `json:"password"`
}

type analysisRequest struct {
	MasterSecret  string `json:"master_secret"        validate:"required"`
	ThresholdDays int    `json:"aging_threshold_days" validate:"omitempty,gt=0"`
}

// --- Password generator ---

type generateResponse struct {
	Password string `json:"password"`
	Strength int    `json:"strength"`
}
