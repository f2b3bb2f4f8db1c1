// Package services contains server-side business logic. This file implements
// AuthService, which handles registration, login verification, and the
// password-reset flow (issuing reset tokens by mail and redeeming them).
package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angel-serrato/authweb/internal/common"
	"github.com/angel-serrato/authweb/internal/dbx"
	"github.com/angel-serrato/authweb/internal/logging"
	"github.com/angel-serrato/authweb/internal/server/auth"
	"github.com/angel-serrato/authweb/internal/server/config"
	"github.com/angel-serrato/authweb/internal/server/mail"
	"github.com/angel-serrato/authweb/internal/server/models"
	"github.com/angel-serrato/authweb/internal/server/repositories/repomanager"
)

// PurposePasswordReset tags reset tokens so they cannot be replayed against
// other token-consuming features.
const PurposePasswordReset = "password-reset"

// AuthService provides the credential-lifecycle operations:
// - Register: create accounts (welcome mail is best-effort)
// - Login: verify credentials
// - ForgotPassword: issue a reset token and mail the reset link
// - ResetPassword: redeem a token exactly once and replace the stored hash
// - GetUser: load the record behind an authenticated session
type AuthService struct {
	db               *sql.DB
	repomanager      repomanager.RepositoryManager
	notifier         mail.Notifier
	logger           logging.Logger
	secret           []byte
	resetTokenMaxAge time.Duration
	baseURL          string
}

// NewAuthService constructs an AuthService using repositories and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, n mail.Notifier, l logging.Logger, cfg *config.Config) *AuthService {
	return &AuthService{
		db:               db,
		repomanager:      m,
		notifier:         n,
		logger:           l.With("module", "auth_service"),
		secret:           []byte(cfg.SecretKey),
		resetTokenMaxAge: cfg.ResetTokenMaxAge,
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// NormalizeEmail applies the single normalization policy used everywhere an
// email crosses a service boundary: trim surrounding space, lower-case.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new account. The unique index on email is the
// authoritative duplicate check (common.ErrorDuplicateEmail). When the
// account is created but the welcome mail cannot be sent, the created user
// is returned together with common.ErrNotificationFailure so callers can
// warn without rolling back the account.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, common.ErrorInvalidInput
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	if err := s.notifier.Send(ctx, mail.TemplateWelcome, u.Email, nil); err != nil {
		s.logger.Warn(ctx, "welcome mail not sent", "email", u.Email, "error", err.Error())
		return u, common.ErrNotificationFailure
	}

	return u, nil
}

// Login verifies the provided credentials and returns the matching user.
// Unknown email and wrong password both yield common.ErrorInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidCredentials
		}
		return nil, common.ErrorInternal
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, common.ErrorInvalidCredentials
	}

	return user, nil
}

// ForgotPassword issues a reset token and mails the reset link. For an
// unknown email it returns nil all the same: callers render one generic
// message either way, so responses do not reveal whether an account exists.
// Mail failures are logged but also hidden behind the generic outcome.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return common.ErrorInvalidInput
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Debug(ctx, "password reset requested for unknown email")
			return nil
		}
		return common.ErrorInternal
	}

	token, err := auth.IssueToken(user.Email, PurposePasswordReset, s.secret)
	if err != nil {
		return common.ErrorInternal
	}

	data := map[string]string{"ResetURL": s.baseURL + "/reset_password/" + token}
	if err := s.notifier.Send(ctx, mail.TemplateResetPassword, user.Email, data); err != nil {
		s.logger.Warn(ctx, "reset mail not sent", "email", user.Email, "error", err.Error())
	}

	return nil
}

// ResetPassword redeems a reset token and replaces the stored hash. The
// token digest is recorded in the same transaction as the password update,
// so each token changes a password at most once within its validity window.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return common.ErrorInvalidInput
	}

	email, err := auth.RedeemToken(token, PurposePasswordReset, s.resetTokenMaxAge, s.secret)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return common.ErrorInternal
	}

	digest := tokenDigest(token)
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.ResetTokens(tx).MarkUsed(ctx, digest, s.resetTokenMaxAge); err != nil {
			return err
		}
		return s.repomanager.Users(tx).UpdatePassword(ctx, email, hash)
	}); err != nil {
		if errors.Is(err, common.ErrTokenConsumed) || errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("error resetting password: %w", err)
	}

	// Digests of tokens past their window are dead weight; sweep them while
	// we are here.
	if n, err := s.repomanager.ResetTokens(s.db).PurgeExpired(ctx); err == nil && n > 0 {
		s.logger.Debug(ctx, "purged expired reset-token digests", "count", n)
	}

	return nil
}

// GetUser loads the user behind an authenticated session. The record may
// have vanished between session issuance and lookup; that surfaces as
// common.ErrorNotFound.
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
