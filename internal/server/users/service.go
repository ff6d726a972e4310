// Package users implements registration, master-secret authentication, and
// the TOTP lifecycle for vault owners.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/passguard/passguard/internal/common"
	"github.com/passguard/passguard/internal/cryptox"
	"github.com/passguard/passguard/internal/logging"
	usersrepo "github.com/passguard/passguard/internal/server/repositories/users"
	"github.com/passguard/passguard/internal/totp"

	"github.com/passguard/passguard/internal/server/models"
)

const (
	minSecretLength   = 8
	maxUsernameLength = 64
)

type Service struct {
	repo   usersrepo.Repository
	totp   *totp.Authenticator
	logger logging.Logger
}

func NewService(repo usersrepo.Repository, totpAuth *totp.Authenticator, logger logging.Logger) *Service {
	return &Service{
		repo:   repo,
		totp:   totpAuth,
		logger: logger.With("module", "user_service"),
	}
}

// Register creates a user. Only the salt and the one-way verifier of the
// master secret are persisted.
func (s *Service) Register(ctx context.Context, username, masterSecret, recoveryEmail string) (*models.User, error) {
	if username == "" || len(username) > maxUsernameLength {
		return nil, fmt.Errorf("%w: username must be 1-%d characters", common.ErrorValidation, maxUsernameLength)
	}
	if len(masterSecret) < minSecretLength {
		return nil, fmt.Errorf("%w: master secret must be at least %d characters", common.ErrorValidation, minSecretLength)
	}

	salt := cryptox.NewSalt()
	user := &models.User{
		Username:      username,
		Salt:          salt,
		Verifier:      cryptox.HashMasterSecret([]byte(masterSecret), salt),
		RecoveryEmail: recoveryEmail,
	}

	user, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		s.logger.Error(ctx, "user creation failed", "error", err.Error())
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Authenticate checks the master secret for a username and, on success,
// returns the user together with the derived cipher key. Unknown user and
// wrong secret are indistinguishable: both cost one KDF pass and both yield
// common.ErrInvalidCredentials. The caller owns the key and must wipe it.
func (s *Service) Authenticate(ctx context.Context, username, masterSecret string) (*models.User, []byte, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Burn a derivation on a throwaway salt so a missing user is
			// not observable through response timing.
			cryptox.HashMasterSecret([]byte(masterSecret), cryptox.NewSalt())
			return nil, nil, common.ErrInvalidCredentials
		}
		return nil, nil, common.ErrorInternal
	}

	key := cryptox.DeriveMasterKey([]byte(masterSecret), user.Salt)
	if !cryptox.CheckVerifier(user.Verifier, cryptox.MakeVerifier(key)) {
		common.WipeByteArray(key)
		return nil, nil, common.ErrInvalidCredentials
	}

	return user, key, nil
}

// UnlockKey re-verifies the master secret for an already-authenticated user
// and returns the cipher key. Account operations call this per request; the
// key never outlives the request.
func (s *Service) UnlockKey(ctx context.Context, userID, masterSecret string) ([]byte, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, common.ErrorInternal
	}

	key := cryptox.DeriveMasterKey([]byte(masterSecret), user.Salt)
	if !cryptox.CheckVerifier(user.Verifier, cryptox.MakeVerifier(key)) {
		common.WipeByteArray(key)
		return nil, common.ErrInvalidCredentials
	}
	return key, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// SetupTOTP provisions a fresh secret and moves the user to SecretIssued.
// The secret is stored immediately but stays untrusted until the first
// successful verification. Re-setup overwrites any previous secret, so the
// old one stops being valid the moment the new one exists.
func (s *Service) SetupTOTP(ctx context.Context, userID string) (secret, uri string, err error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return "", "", common.ErrorInternal
	}

	secret, uri, err = s.totp.GenerateSecret(user.Username)
	if err != nil {
		s.logger.Error(ctx, "totp secret generation failed", "error", err.Error())
		return "", "", common.ErrorInternal
	}

	if err := s.repo.UpdateTOTP(ctx, userID, secret, false); err != nil {
		return "", "", common.ErrorInternal
	}
	s.totp.Reset(userID)

	s.logger.Info(ctx, "totp secret issued", "user_id", userID)
	return secret, uri, nil
}

// ActivateTOTP confirms the pending secret with a first code and flips the
// user to Active.
func (s *Service) ActivateTOTP(ctx context.Context, userID, code string, at time.Time) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return common.ErrorInternal
	}
	if user.TOTPStatus() == models.TOTPUnconfigured {
		return common.ErrTotpNotConfigured
	}

	if err := s.totp.Verify(userID, user.TOTPSecret, code, at); err != nil {
		return err
	}

	if err := s.repo.UpdateTOTP(ctx, userID, user.TOTPSecret, true); err != nil {
		return common.ErrorInternal
	}
	s.logger.Info(ctx, "totp activated", "user_id", userID)
	return nil
}

// DisableTOTP turns the second factor off after verifying a current code,
// returning the user to Unconfigured and discarding the secret.
func (s *Service) DisableTOTP(ctx context.Context, userID, code string, at time.Time) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return common.ErrorInternal
	}
	if user.TOTPStatus() == models.TOTPUnconfigured {
		return common.ErrTotpNotConfigured
	}

	if err := s.totp.Verify(userID, user.TOTPSecret, code, at); err != nil {
		return err
	}

	if err := s.repo.UpdateTOTP(ctx, userID, "", false); err != nil {
		return common.ErrorInternal
	}
	s.totp.Reset(userID)

	s.logger.Info(ctx, "totp disabled", "user_id", userID)
	return nil
}

// StampLastLogin records a successful authentication. Failure is logged,
// not surfaced: the login itself already succeeded.
func (s *Service) StampLastLogin(ctx context.Context, userID string) {
	if err := s.repo.StampLastLogin(ctx, userID, time.Now().UTC()); err != nil {
		s.logger.Warn(ctx, "last login stamp failed", "user_id", userID, "error", err.Error())
	}
}
