// Package accounts implements storage and analysis of website credentials:
// every write scores the submitted password, checks it against the breach
// corpus, and encrypts it under the caller's cipher key before anything
// touches the repository. Plaintext exists only inside a single call.
package accounts

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/passguard/passguard/internal/analyzer"
	"github.com/passguard/passguard/internal/breach"
	"github.com/passguard/passguard/internal/common"
	"github.com/passguard/passguard/internal/cryptox"
	"github.com/passguard/passguard/internal/logging"
	"github.com/passguard/passguard/internal/server/models"
	accountsrepo "github.com/passguard/passguard/internal/server/repositories/accounts"
	"github.com/passguard/passguard/internal/strength"
)

type Service struct {
	repo   accountsrepo.Repository
	breach *breach.Checker
	logger logging.Logger
	now    func() time.Time
}

func NewService(repo accountsrepo.Repository, checker *breach.Checker, logger logging.Logger) *Service {
	return &Service{
		repo:   repo,
		breach: checker,
		logger: logger.With("module", "account_service"),
		now:    time.Now,
	}
}

// Input carries the fields of an account write. Password is plaintext and
// must not be retained by the caller after the call returns.
type Input struct {
	Service  string
	Username string
	Password string
	Has2FA   bool
}

// Posture is the security assessment computed at write time.
type Posture struct {
	Strength      int  `json:"strength"`
	Breached      bool `json:"breached"`
	BreachChecked bool `json:"breach_checked"`
	BreachCount   int  `json:"breach_count,omitempty"`
}

// Analysis aggregates the cross-account checks for a dashboard view.
type Analysis struct {
	Reuse map[string][]string    `json:"reuse"`
	Aging []analyzer.AgingReport `json:"aging"`
}

// Add stores a new credential for the user. The password is scored, checked
// against the breach corpus, and sealed under key before insert.
func (s *Service) Add(ctx context.Context, userID string, key []byte, in Input) (*models.Account, *Posture, error) {
	if in.Service == "" || in.Password == "" {
		return nil, nil, fmt.Errorf("%w: service and password are required", common.ErrorValidation)
	}

	posture := s.assess(ctx, in.Password)
	bundle, err := cryptox.Encrypt([]byte(in.Password), key)
	if err != nil {
		s.logger.Error(ctx, "account encryption failed", "error", err.Error())
		return nil, nil, common.ErrorInternal
	}

	account := &models.Account{
		UserID:        userID,
		Service:       in.Service,
		Username:      in.Username,
		Ciphertext:    bundle.Ciphertext,
		Nonce:         bundle.Nonce,
		Strength:      posture.Strength,
		Breached:      posture.Breached,
		BreachChecked: posture.BreachChecked,
		Has2FA:        in.Has2FA,
		LastChanged:   s.now().UTC(),
	}

	account, err = s.repo.Create(ctx, account)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info(ctx, "account added", "user_id", userID, "service", in.Service)
	return account, posture, nil
}

// Update rewrites a credential, re-running the posture checks and producing
// a fresh nonce even when the password is unchanged. version is the
// optimistic stamp the caller read; a mismatch yields ErrVersionConflict.
func (s *Service) Update(ctx context.Context, userID string, key []byte, service string, version int64, in Input) (*models.Account, *Posture, error) {
	if in.Password == "" {
		return nil, nil, fmt.Errorf("%w: password is required", common.ErrorValidation)
	}

	posture := s.assess(ctx, in.Password)
	bundle, err := cryptox.Encrypt([]byte(in.Password), key)
	if err != nil {
		s.logger.Error(ctx, "account encryption failed", "error", err.Error())
		return nil, nil, common.ErrorInternal
	}

	account := &models.Account{
		UserID:        userID,
		Service:       service,
		Username:      in.Username,
		Ciphertext:    bundle.Ciphertext,
		Nonce:         bundle.Nonce,
		Strength:      posture.Strength,
		Breached:      posture.Breached,
		BreachChecked: posture.BreachChecked,
		Has2FA:        in.Has2FA,
		LastChanged:   s.now().UTC(),
		Version:       version,
	}

	account, err = s.repo.Update(ctx, account)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info(ctx, "account updated", "user_id", userID, "service", service)
	return account, posture, nil
}

func (s *Service) Delete(ctx context.Context, userID, service string) error {
	return s.repo.Delete(ctx, userID, service)
}

// List returns the user's accounts with ciphertext and posture metadata.
// Nothing is decrypted here.
func (s *Service) List(ctx context.Context, userID string) ([]*models.Account, error) {
	return s.repo.List(ctx, userID)
}

// Reveal decrypts one stored password under the caller's key.
func (s *Service) Reveal(ctx context.Context, userID string, key []byte, service string) (string, error) {
	account, err := s.repo.GetByService(ctx, userID, service)
	if err != nil {
		return "", err
	}

	plaintext, err := cryptox.Decrypt(&cryptox.Bundle{Ciphertext: account.Ciphertext, Nonce: account.Nonce}, key)
	if err != nil {
		return "", err
	}
	password := string(plaintext)
	common.WipeByteArray(plaintext)
	return password, nil
}

// Analyze decrypts the user's accounts in memory and runs the reuse and
// aging checks. The decrypted values never leave this call and are never
// written anywhere.
func (s *Service) Analyze(ctx context.Context, userID string, key []byte, thresholdDays int) (*Analysis, error) {
	rows, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	decrypted := make([]analyzer.Account, 0, len(rows))
	for _, row := range rows {
		plaintext, err := cryptox.Decrypt(&cryptox.Bundle{Ciphertext: row.Ciphertext, Nonce: row.Nonce}, key)
		if err != nil {
			return nil, err
		}
		decrypted = append(decrypted, analyzer.Account{
			Service:     row.Service,
			Password:    string(plaintext),
			LastChanged: row.LastChanged,
		})
		common.WipeByteArray(plaintext)
	}

	return &Analysis{
		Reuse: analyzer.Reuse(decrypted),
		Aging: analyzer.Aging(decrypted, thresholdDays, s.now()),
	}, nil
}

func (s *Service) assess(ctx context.Context, password string) *Posture {
	res := s.breach.Check(ctx, password)
	if !res.Checked {
		s.logger.Warn(ctx, "breach status unknown for submitted password")
	}
	return &Posture{
		Strength:      strength.Score(password),
		Breached:      res.Breached,
		BreachChecked: res.Checked,
		BreachCount:   res.Count,
	}
}

const (
	genLowercase = "abcdefghijklmnopqrstuvwxyz"
	genUppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	genDigits    = "0123456789"
	genSymbols   = "!@#$%^&*(),.?\":{}|<>_"
)

// GeneratePassword produces a random password containing at least one
// character from each class. Lengths below 8 are raised to 8; the default
// when length is zero is 16.
func GeneratePassword(length int) (string, error) {
	if length == 0 {
		length = 16
	}
	if length < strength.MinLength {
		length = strength.MinLength
	}

	all := genLowercase + genUppercase + genDigits + genSymbols
	chars := make([]byte, 0, length)
	for _, class := range []string{genLowercase, genUppercase, genDigits, genSymbols} {
		c, err := pickRandom(class)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}
	for len(chars) < length {
		c, err := pickRandom(all)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	// Fisher–Yates so the guaranteed class characters are not positional.
	for i := len(chars) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		chars[i], chars[j.Int64()] = chars[j.Int64()], chars[i]
	}

	return string(chars), nil
}

func pickRandom(set string) (byte, error) {
	i, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[i.Int64()], nil
}
