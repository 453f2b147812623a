package entity

// Identity is the subject carried by an access token.
type Identity struct {
	UserID  uint
	IsAdmin bool
}

// InvalidIdentity is returned by token verification on any failure.
// Callers treat it as unauthenticated without inspecting why.
var InvalidIdentity = Identity{}

// IsValid reports whether the identity refers to an account.
// Store-assigned IDs start at 1, so the zero value is never a real user.
func (i Identity) IsValid() bool {
	return i.UserID != 0
}
