// Package entity defines the domain entities for the account feature.
package entity

import "time"

// User represents a registered account.
// Email and Username are each unique; the unique indexes are the authoritative guard
// against concurrent duplicate registrations.
type User struct {
	// ID is assigned by the store on creation and never changes.
	ID uint `gorm:"primaryKey"`

	// Email is the address given at registration.
	Email string `gorm:"uniqueIndex;size:255;not null"`

	// Username is between 7 and 21 characters.
	Username string `gorm:"uniqueIndex;size:64;not null"`

	// Password holds the bcrypt hash, never the plaintext.
	Password string `gorm:"size:255;not null"`

	// IsAdmin defaults to false at creation.
	IsAdmin bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile returns the public projection of the user.
func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Email: u.Email, Username: u.Username}
}

// Profile is the outward view of a single account. It never carries the password hash.
type Profile struct {
	ID       uint
	Email    string
	Username string
}

// UserSummary is the projection used by the user listing.
type UserSummary struct {
	Username string
}

// ProfileChanges lists the fields a caller may change on their own account.
// A nil field is left untouched.
type ProfileChanges struct {
	Email    *string
	Username *string
	Password *string
}

// IsEmpty reports whether no field was supplied.
func (c ProfileChanges) IsEmpty() bool {
	return c.Email == nil && c.Username == nil && c.Password == nil
}
