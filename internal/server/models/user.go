// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account. Password holds the bcrypt hash.
type User struct {
	ID        string
	Username  string
	Email     string
	Password  string
	CreatedAt time.Time
}

// ResetToken is the single pending password reset of a user.
type ResetToken struct {
	Username string
	Token    string
	ExpireAt time.Time
}

// Expired reports whether the token can no longer be redeemed at now. A
// token is dead from ExpireAt on.
func (r *ResetToken) Expired(now time.Time) bool {
	return !r.ExpireAt.After(now)
}
