// Package tokens issues, verifies, and rotates the signed tokens used for
// authentication: short-lived HS256 access tokens and longer-lived refresh
// tokens backed by server-side refresh records.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkorolev/gatekeeper/internal/common"
)

// Claims is the signed claim set carried by both token kinds:
// registered sub/iat/exp/jti plus the user's role.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

func signToken(subject, role, jti string, secret []byte, issuedAt time.Time, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(validity)),
			ID:        jti,
		},
		Role: role,
	})

	return token.SignedString(secret)
}

// parseToken verifies the signature and claims of tokenString and returns the
// claim set. Failures map onto the closed error set: an elapsed exp yields
// common.ErrExpiredToken, any other parse/signature problem yields
// common.ErrInvalidSignature.
func parseToken(tokenString string, secret []byte, now func() time.Time) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrExpiredToken
		}
		return nil, common.ErrInvalidSignature
	}
	if !token.Valid {
		return nil, common.ErrInvalidSignature
	}

	return claims, nil
}

// parseTokenSkipExpiry verifies only the signature, ignoring claim validity.
// Used on the logout path so an expired refresh token can still be revoked.
func parseTokenSkipExpiry(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())

	if err != nil {
		return nil, common.ErrInvalidSignature
	}

	return claims, nil
}
