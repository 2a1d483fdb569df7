// Package refreshrecords stores the server-side records behind refresh
// tokens and owns the atomicity of their lifecycle transitions.
//
// State machine per record:
//
//	Active -> Rotated  (successful refresh; fires at most once per lineage)
//	Active -> Revoked  (explicit revoke / logout)
//
// Rotated and Revoked are terminal. Expiry is time-based and checked by the
// token layer at verification time, not stored here.
package refreshrecords

import (
	"context"

	"github.com/mkorolev/gatekeeper/internal/server/models"
)

// Repository is the refresh-record store contract.
//
// Rotate is the concurrency-critical operation: it transitions the record
// identified by oldTokenID from Active to Rotated and persists next as the
// new Active record of the lineage, as one atomic unit. If the record is
// missing or not Active, implementations return common.ErrTokenRevoked and
// persist nothing — under concurrent calls on the same token, exactly one
// caller wins.
type Repository interface {
	Create(ctx context.Context, rec *models.RefreshRecord) error
	Find(ctx context.Context, tokenID string) (*models.RefreshRecord, error)
	Rotate(ctx context.Context, oldTokenID string, next *models.RefreshRecord) error

	// Revoke marks a record Revoked. Idempotent: revoking an already
	// rotated/revoked or unknown record is not an error.
	Revoke(ctx context.Context, tokenID string) error

	// RevokeAllForUser revokes every Active record of one user
	// (logout everywhere, password change).
	RevokeAllForUser(ctx context.Context, userID string) error
}
