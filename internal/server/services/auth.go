// Package services contains server-side business logic. This file implements
// AuthService, which handles signup and password-reset verification flows,
// login, and issuing/refreshing JWTs plus server-stored refresh tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmaltsev/tasklist/internal/common"
	"github.com/dmaltsev/tasklist/internal/dbx"
	"github.com/dmaltsev/tasklist/internal/logging"
	"github.com/dmaltsev/tasklist/internal/server/auth"
	"github.com/dmaltsev/tasklist/internal/server/config"
	"github.com/dmaltsev/tasklist/internal/server/mail"
	"github.com/dmaltsev/tasklist/internal/server/models"
	"github.com/dmaltsev/tasklist/internal/server/repositories/repomanager"
	"github.com/dmaltsev/tasklist/internal/server/repositories/users"
	"github.com/dmaltsev/tasklist/internal/server/verification"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService orchestrates credential verification, token issuance and
// rotation, and the email verification-code flows.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codes       *verification.Store
	mailer      mail.Dispatcher
	logger      logging.Logger

	secretKey                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	reissueThreshold             time.Duration

	// seams for tests
	now    func() time.Time
	withTx func(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error
}

// NewAuthService constructs an AuthService using repositories and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, codes *verification.Store,
	mailer mail.Dispatcher, logger logging.Logger, cfg *config.Config) *AuthService {
	return &AuthService{
		db:                           db,
		repomanager:                  m,
		codes:                        codes,
		mailer:                       mailer,
		logger:                       logger,
		secretKey:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		reissueThreshold:             cfg.AccessTokenReissueThreshold,
		now:                          time.Now,
		withTx: func(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
			return dbx.WithTx(ctx, db, nil, fn)
		},
	}
}

// ExistsByEmail reports whether a non-deleted account holds the email address.
func (s *AuthService) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	repo := s.repomanager.Users(s.db)
	if _, err := repo.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return false, common.ErrInternal
	}
	return true, nil
}

// Login verifies the credentials and mints a token pair. Bad credentials are
// reported uniformly as ErrUnauthorized so callers cannot probe which emails
// are registered.
func (s *AuthService) Login(ctx context.Context, email, password, clientOS string) (*TokenPair, error) {
	userRepo := s.repomanager.Users(s.db)

	user, err := userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrInternal
	}
	if !auth.VerifyPassword(password, user.Password) {
		return nil, common.ErrUnauthorized
	}

	accessToken, err := auth.GenerateAccessToken(user.UserNo, user.Email, user.Role, s.secretKey, s.accessTokenValidityDuration)
	if err != nil {
		s.logger.Error(ctx, "access token generation failed", "error", err)
		return nil, common.ErrInternal
	}
	refreshToken, err := auth.NewRefreshToken()
	if err != nil {
		s.logger.Error(ctx, "refresh token generation failed", "error", err)
		return nil, common.ErrInternal
	}

	now := s.now()
	record := &models.RefreshToken{
		UserNo:                user.UserNo,
		RefreshToken:          refreshToken,
		ClientOS:              clientOS,
		AccessTokenExpiresAt:  now.Add(s.accessTokenValidityDuration),
		RefreshTokenExpiresAt: now.Add(s.refreshTokenValidityDuration),
		CreatedAt:             now,
	}
	if _, err := s.repomanager.Tokens(s.db).Create(ctx, record); err != nil {
		s.logger.Error(ctx, "token record creation failed", "error", err)
		return nil, common.ErrInternal
	}

	if err := userRepo.UpdateLastLoginAt(ctx, user.UserNo); err != nil {
		// non-fatal, the session is already established
		s.logger.Warn(ctx, "last login stamp failed", "error", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// SendSignupCode generates a 6-digit code, emails it, and stores it under the
// signup purpose. The code is stored only after the dispatch succeeded, so a
// failed send never leaves a live code the user cannot know.
func (s *AuthService) SendSignupCode(ctx context.Context, email string) error {
	exists, err := s.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return common.ErrConflict
	}

	code, err := common.MakeSixDigitCode()
	if err != nil {
		s.logger.Error(ctx, "code generation failed", "error", err)
		return common.ErrInternal
	}

	if err := s.mailer.Send(ctx, email, mail.SignupSubject, mail.CodeBody(code)); err != nil {
		s.logger.Error(ctx, "signup code dispatch failed", "error", err)
		return common.ErrInternal
	}

	if err := s.codes.Save(ctx, verification.PurposeSignup, email, code); err != nil {
		s.logger.Error(ctx, "signup code store failed", "error", err)
		return common.ErrInternal
	}
	return nil
}

// VerifySignupCode checks the code without consuming it. The authoritative
// check happens again inside Signup.
func (s *AuthService) VerifySignupCode(ctx context.Context, email, code string) error {
	return s.verifyCode(ctx, verification.PurposeSignup, email, code)
}

// Signup registers a new account. The code is consumed here, at the point of
// account creation, not in VerifySignupCode. The conflict check and the insert
// share one transaction.
func (s *AuthService) Signup(ctx context.Context, email, password, displayName, code string) error {
	return s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		if _, err := repo.FindByEmail(ctx, email); err == nil {
			return common.ErrConflict
		} else if !errors.Is(err, common.ErrNotFound) {
			s.logger.Error(ctx, "user lookup failed", "error", err)
			return common.ErrInternal
		}

		if err := s.verifyCode(ctx, verification.PurposeSignup, email, code); err != nil {
			return err
		}
		if err := s.codes.Delete(ctx, verification.PurposeSignup, email); err != nil {
			s.logger.Error(ctx, "signup code delete failed", "error", err)
			return common.ErrInternal
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			s.logger.Error(ctx, "password hashing failed", "error", err)
			return common.ErrInternal
		}

		user := &models.User{Email: email, Password: hash, UserName: displayName, Role: models.RoleUser}
		if _, err := repo.Create(ctx, user); err != nil {
			s.logger.Error(ctx, "user creation failed", "error", err)
			return common.ErrInternal
		}
		return nil
	})
}

// SendResetPasswordCode mirrors SendSignupCode but requires the account to
// exist already.
func (s *AuthService) SendResetPasswordCode(ctx context.Context, email string) error {
	exists, err := s.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !exists {
		return common.ErrNotFound
	}

	code, err := common.MakeSixDigitCode()
	if err != nil {
		s.logger.Error(ctx, "code generation failed", "error", err)
		return common.ErrInternal
	}

	if err := s.mailer.Send(ctx, email, mail.ResetPasswordSubject, mail.CodeBody(code)); err != nil {
		s.logger.Error(ctx, "reset code dispatch failed", "error", err)
		return common.ErrInternal
	}

	if err := s.codes.Save(ctx, verification.PurposeResetPassword, email, code); err != nil {
		s.logger.Error(ctx, "reset code store failed", "error", err)
		return common.ErrInternal
	}
	return nil
}

// VerifyResetPasswordCode checks the reset code without consuming it.
func (s *AuthService) VerifyResetPasswordCode(ctx context.Context, email, code string) error {
	exists, err := s.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !exists {
		return common.ErrNotFound
	}
	return s.verifyCode(ctx, verification.PurposeResetPassword, email, code)
}

// ResetPassword replaces the account's password after the reset code checks
// out. The code is consumed here. The lookup and the password update share
// one transaction.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword, code string) error {
	return s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrNotFound
			}
			s.logger.Error(ctx, "user lookup failed", "error", err)
			return common.ErrInternal
		}

		if err := s.verifyCode(ctx, verification.PurposeResetPassword, email, code); err != nil {
			return err
		}
		if err := s.codes.Delete(ctx, verification.PurposeResetPassword, email); err != nil {
			s.logger.Error(ctx, "reset code delete failed", "error", err)
			return common.ErrInternal
		}

		hash, err := auth.HashPassword(newPassword)
		if err != nil {
			s.logger.Error(ctx, "password hashing failed", "error", err)
			return common.ErrInternal
		}

		affected, err := repo.Update(ctx, user.UserNo, &users.Update{Password: &hash})
		if err != nil || affected == 0 {
			s.logger.Error(ctx, "password update failed", "error", err, "affected", affected)
			return common.ErrInternal
		}
		return nil
	})
}

// GetTokens lists the user's session records, newest first. Expired but
// undeleted records are still included.
func (s *AuthService) GetTokens(ctx context.Context, userNo int64) ([]*models.RefreshToken, error) {
	records, err := s.repomanager.Tokens(s.db).FindAllByUserNo(ctx, userNo)
	if err != nil {
		s.logger.Error(ctx, "token listing failed", "error", err)
		return nil, common.ErrInternal
	}
	return records, nil
}

// RefreshAccessToken advances the session's access-token expiry and mints a
// fresh access token from the user's current identity. Renewal is refused
// until the current access token is within the reissue threshold of expiring,
// and refused for good once the refresh token itself has expired.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	tokenRepo := s.repomanager.Tokens(s.db)

	record, err := tokenRepo.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrNotFound
		}
		s.logger.Error(ctx, "token lookup failed", "error", err)
		return "", common.ErrInternal
	}

	user, err := s.repomanager.Users(s.db).Find(ctx, record.UserNo)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrNotFound
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return "", common.ErrInternal
	}

	now := s.now()
	if now.Before(record.AccessTokenExpiresAt.Add(-s.reissueThreshold)) {
		return "", common.ErrReissueTooEarly
	}
	if now.After(record.RefreshTokenExpiresAt) {
		// the record is left in place; cleanup is the caller's logout
		return "", common.ErrRefreshTokenExpired
	}

	affected, err := tokenRepo.UpdateAccessExpiry(ctx, record.TokenNo, now.Add(s.accessTokenValidityDuration))
	if err != nil || affected == 0 {
		s.logger.Error(ctx, "access expiry update failed", "error", err, "affected", affected)
		return "", common.ErrInternal
	}

	accessToken, err := auth.GenerateAccessToken(user.UserNo, user.Email, user.Role, s.secretKey, s.accessTokenValidityDuration)
	if err != nil {
		s.logger.Error(ctx, "access token generation failed", "error", err)
		return "", common.ErrInternal
	}
	return accessToken, nil
}

// DeleteToken removes one of the caller's session records. Deleting a record
// owned by another user is Forbidden regardless of how the caller learned the
// token value.
func (s *AuthService) DeleteToken(ctx context.Context, userNo int64, refreshToken string) error {
	tokenRepo := s.repomanager.Tokens(s.db)

	record, err := tokenRepo.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		s.logger.Error(ctx, "token lookup failed", "error", err)
		return common.ErrInternal
	}
	if record.UserNo != userNo {
		return common.ErrForbidden
	}

	affected, err := tokenRepo.Delete(ctx, record.TokenNo)
	if err != nil || affected == 0 {
		s.logger.Error(ctx, "token delete failed", "error", err, "affected", affected)
		return common.ErrInternal
	}
	return nil
}

// Logout removes the caller's current session record. Unlike DeleteToken it
// is idempotent: an already-gone record is a success.
func (s *AuthService) Logout(ctx context.Context, userNo int64, refreshToken string) error {
	err := s.DeleteToken(ctx, userNo, refreshToken)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	return err
}

// ValidateAccessToken verifies the access token signature and expiry and
// returns the embedded identity. Any failure is uniformly invalid; the cause
// is logged for diagnostics.
func (s *AuthService) ValidateAccessToken(ctx context.Context, tokenString string) (*auth.Identity, error) {
	identity, err := auth.ParseAccessToken(tokenString, s.secretKey)
	if err != nil {
		s.logger.Debug(ctx, "access token rejected", "error", err)
		return nil, common.ErrInvalidToken
	}
	return identity, nil
}

func (s *AuthService) verifyCode(ctx context.Context, purpose verification.Purpose, email, code string) error {
	ok, err := s.codes.Verify(ctx, purpose, email, code)
	if err != nil {
		s.logger.Error(ctx, "code lookup failed", "error", err)
		return common.ErrInternal
	}
	if !ok {
		return common.ErrInvalidVerificationCode
	}
	return nil
}
