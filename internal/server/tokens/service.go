package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkorolev/gatekeeper/internal/common"
	"github.com/mkorolev/gatekeeper/internal/server/config"
	"github.com/mkorolev/gatekeeper/internal/server/models"
	"github.com/mkorolev/gatekeeper/internal/server/repositories/refreshrecords"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Service owns the token lifecycle. Access-token verification is stateless
// (signature + expiry only); revocation is authoritative at the refresh
// layer, where every rotation is an atomic status transition in the record
// store.
type Service struct {
	records       refreshrecords.Repository
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewService constructs a Service from config. The access and refresh
// signing secrets must be non-empty and must differ: a refresh token must
// never verify as an access token or vice versa.
func NewService(records refreshrecords.Repository, cfg *config.Config) (*Service, error) {
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, errors.New("access and refresh token secrets must differ")
	}

	return &Service{
		records:       records,
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenValidityDuration,
		refreshTTL:    cfg.RefreshTokenValidityDuration,
		now:           time.Now,
	}, nil
}

// IssueAccessToken mints a signed access token for user. Pure: no store access.
func (s *Service) IssueAccessToken(user *models.User) (string, error) {
	return signToken(user.ID, user.Role.String(), uuid.NewString(), s.accessSecret, s.now(), s.accessTTL)
}

// VerifyAccessToken checks the signature and expiry of an access token and
// returns its claims. Stateless: it never consults the record store.
func (s *Service) VerifyAccessToken(token string) (*Claims, error) {
	return parseToken(token, s.accessSecret, s.now)
}

// IssueRefreshToken mints a refresh token and persists its Active record.
func (s *Service) IssueRefreshToken(ctx context.Context, user *models.User) (string, *models.RefreshRecord, error) {
	token, rec, err := s.mintRefresh(user.ID, user.Role.String())
	if err != nil {
		return "", nil, err
	}

	if err := s.records.Create(ctx, rec); err != nil {
		return "", nil, fmt.Errorf("error storing refresh record: %w", err)
	}

	return token, rec, nil
}

// IssuePair mints a fresh access+refresh pair for user.
func (s *Service) IssuePair(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := s.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.IssueRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access+refresh pair.
//
// The presented token is verified statelessly first (signature, expiry), then
// its record transitions Active -> Rotated in the same atomic store operation
// that persists the successor record. Any non-Active status at that point is
// a replay signal: the second of two concurrent calls on the same token gets
// common.ErrTokenRevoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := parseToken(refreshToken, s.refreshSecret, s.now)
	if err != nil {
		return nil, err
	}

	newRefresh, newRec, err := s.mintRefresh(claims.Subject, claims.Role)
	if err != nil {
		return nil, err
	}
	access, err := signToken(claims.Subject, claims.Role, uuid.NewString(), s.accessSecret, s.now(), s.accessTTL)
	if err != nil {
		return nil, err
	}

	// The minting above is pure; this is the single state change. If it
	// fails or the context is cancelled mid-way, nothing was persisted.
	if err := s.records.Rotate(ctx, claims.ID, newRec); err != nil {
		if errors.Is(err, common.ErrTokenRevoked) {
			return nil, common.ErrTokenRevoked
		}
		return nil, fmt.Errorf("error rotating refresh record: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: newRefresh}, nil
}

// Revoke marks the record with tokenID as Revoked. Idempotent.
func (s *Service) Revoke(ctx context.Context, tokenID string) error {
	return s.records.Revoke(ctx, tokenID)
}

// RevokeToken revokes the record behind a presented refresh token (logout).
// Only the signature is checked: revoking an already expired token is a
// harmless no-op, a forged one is rejected.
func (s *Service) RevokeToken(ctx context.Context, refreshToken string) error {
	claims, err := parseTokenSkipExpiry(refreshToken, s.refreshSecret)
	if err != nil {
		return err
	}
	return s.records.Revoke(ctx, claims.ID)
}

// RevokeAllForUser revokes every Active refresh record of one user.
func (s *Service) RevokeAllForUser(ctx context.Context, userID string) error {
	return s.records.RevokeAllForUser(ctx, userID)
}

func (s *Service) mintRefresh(userID, role string) (string, *models.RefreshRecord, error) {
	issuedAt := s.now()
	rec := &models.RefreshRecord{
		TokenID:   uuid.NewString(),
		UserID:    userID,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(s.refreshTTL),
		Status:    models.RefreshStatusActive,
	}

	token, err := signToken(userID, role, rec.TokenID, s.refreshSecret, issuedAt, s.refreshTTL)
	if err != nil {
		return "", nil, err
	}
	return token, rec, nil
}
