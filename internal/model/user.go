// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Accounts are created either by email/password registration or on first
// GitHub login. GitHubID is nil for password accounts. PasswordHash is empty
// for accounts that only ever logged in through GitHub.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	GitHubID     *int64    `json:"-"`
	IsSuperuser  bool      `json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// Caller is the identity an operation runs on behalf of.
// The zero value is an anonymous caller.
type Caller struct {
	UserID      string
	IsSuperuser bool
}

// Anonymous returns the identity of an unauthenticated request.
func Anonymous() Caller { return Caller{} }

// Authenticated reports whether the caller is a logged-in user.
func (c Caller) Authenticated() bool { return c.UserID != "" }

// CanModify reports whether the caller may mutate something owned by ownerID.
func (c Caller) CanModify(ownerID string) bool {
	return c.Authenticated() && (c.UserID == ownerID || c.IsSuperuser)
}
