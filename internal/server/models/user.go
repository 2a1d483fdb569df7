// Package models defines the server-side domain types shared by
// repositories and services.
package models

import "time"

// User is a stored account. PasswordHash is the bcrypt output and must never
// be logged or returned across the boundary.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
