// Package services contains server-side business logic. This file implements
// AuthService, which handles registration, login, token refresh, logout, and
// password changes on top of the credential store, the password hasher, and
// the token service.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkorolev/gatekeeper/internal/common"
	"github.com/mkorolev/gatekeeper/internal/logging"
	"github.com/mkorolev/gatekeeper/internal/server/models"
	"github.com/mkorolev/gatekeeper/internal/server/password"
	"github.com/mkorolev/gatekeeper/internal/server/repositories/users"
	"github.com/mkorolev/gatekeeper/internal/server/tokens"
)

// AuthService provides the authentication operations:
//   - Register: create accounts (plaintext is hashed here and nowhere stored)
//   - Login: verify credentials and mint a token pair
//   - Refresh: rotate a refresh token
//   - Logout: revoke a refresh token
//   - ChangePassword: swap the stored hash and revoke existing sessions
type AuthService struct {
	users  users.Repository
	hasher password.Hasher
	tokens *tokens.Service
	log    logging.Logger
}

func NewAuthService(repo users.Repository, hasher password.Hasher, tok *tokens.Service, log logging.Logger) *AuthService {
	return &AuthService{
		users:  repo,
		hasher: hasher,
		tokens: tok,
		log:    log.With("module", "auth_service"),
	}
}

// Register creates a new user with the given email and password.
// The email is normalized by the store; a conflict on the normalized form
// yields common.ErrDuplicateEmail.
func (s *AuthService) Register(ctx context.Context, email, plaintext string) (*models.User, error) {
	hash, err := s.hasher.Hash(ctx, plaintext)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := s.users.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, common.ErrDuplicateEmail
		}
		s.log.Error(ctx, "user create failed", "error", err)
		return nil, common.ErrInternal
	}

	return user, nil
}

// Login verifies the email/password pair and, on success, returns a fresh
// token pair. Unknown email and wrong password both yield
// common.ErrInvalidCredentials; on the unknown-email path one dummy
// verification is burned so the two failures are indistinguishable by timing.
func (s *AuthService) Login(ctx context.Context, email, plaintext string) (*tokens.TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			if derr := s.hasher.DummyVerify(ctx); derr != nil {
				s.log.Error(ctx, "dummy verify failed", "error", derr)
				return nil, common.ErrInternal
			}
			return nil, common.ErrInvalidCredentials
		}
		s.log.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrInternal
	}

	ok, err := s.hasher.Verify(ctx, plaintext, user.PasswordHash)
	if err != nil {
		s.log.Error(ctx, "password verify failed", "error", err)
		return nil, common.ErrInternal
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(ctx, user)
	if err != nil {
		s.log.Error(ctx, "token issue failed", "error", err)
		return nil, common.ErrInternal
	}
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair. Lifecycle errors
// (expired, revoked, tampered) pass through; store failures are masked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*tokens.TokenPair, error) {
	pair, err := s.tokens.Refresh(ctx, refreshToken)
	if err != nil {
		var tagged *common.Error
		if errors.As(err, &tagged) {
			return nil, err
		}
		s.log.Error(ctx, "refresh failed", "error", err)
		return nil, common.ErrInternal
	}
	return pair, nil
}

// Logout revokes the refresh record behind the presented token. Idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.tokens.RevokeToken(ctx, refreshToken); err != nil {
		var tagged *common.Error
		if errors.As(err, &tagged) {
			return err
		}
		s.log.Error(ctx, "logout failed", "error", err)
		return common.ErrInternal
	}
	return nil
}

// ChangePassword stores a new password hash for userID and revokes all of
// the user's active refresh records, forcing re-authentication everywhere.
func (s *AuthService) ChangePassword(ctx context.Context, userID, newPlaintext string) error {
	hash, err := s.hasher.Hash(ctx, newPlaintext)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		s.log.Error(ctx, "password update failed", "error", err)
		return common.ErrInternal
	}

	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		s.log.Error(ctx, "session revocation failed", "error", err)
		return common.ErrInternal
	}
	return nil
}

// RevokeSessions force-revokes every active refresh record of userID.
// Intended for administrative use; idempotent.
func (s *AuthService) RevokeSessions(ctx context.Context, userID string) error {
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		s.log.Error(ctx, "session revocation failed", "error", err)
		return common.ErrInternal
	}
	return nil
}
