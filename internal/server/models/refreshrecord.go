package models

import "time"

// RefreshStatus is the stored lifecycle state of a refresh record.
// Rotated and Revoked are terminal; expiry is time-based and checked at
// verification time, never written to the store.
type RefreshStatus string

const (
	RefreshStatusActive  RefreshStatus = "active"
	RefreshStatusRotated RefreshStatus = "rotated"
	RefreshStatusRevoked RefreshStatus = "revoked"
)

// RefreshRecord is the server-side record backing one refresh token.
// TokenID matches the token's jti claim; only one record per rotation
// lineage may be Active at a time.
type RefreshRecord struct {
	TokenID   string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Status    RefreshStatus
}
