// Package users implements the credential store: user records keyed by a
// normalized, unique email. Plaintext passwords never enter this package;
// callers store and retrieve opaque password hashes only.
package users

import (
	"context"
	"strings"

	"github.com/mkorolev/gatekeeper/internal/server/models"
)

// Repository is the credential-store contract. Implementations must enforce
// email uniqueness on the normalized form and translate storage errors into
// common.ErrDuplicateEmail / common.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
// Every implementation normalizes here, so uniqueness checks and lookups
// agree regardless of caller casing.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
