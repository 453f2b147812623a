package dto

import "account_backend/internal/feature/account/domain/entity"

// RegisterRes is returned after a successful registration.
type RegisterRes struct {
	UserID uint `json:"userId"`
}

// LoginRes carries the issued access token.
type LoginRes struct {
	UserID uint   `json:"userId"`
	Token  string `json:"token"`
}

// ProfileRes is the public view of an account. It has no password field.
type ProfileRes struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// UserItem is one element of the user listing.
type UserItem struct {
	Username string `json:"username"`
}

// ErrorRes is the body of every failed request.
type ErrorRes struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ProfileResFromEntity converts a profile projection to its response body.
func ProfileResFromEntity(p entity.Profile) ProfileRes {
	return ProfileRes{ID: p.ID, Email: p.Email, Username: p.Username}
}

// UserItemsFromEntities converts summaries to response items. The result is never nil.
func UserItemsFromEntities(users []entity.UserSummary) []UserItem {
	items := make([]UserItem, len(users))
	for i, u := range users {
		items[i] = UserItem{Username: u.Username}
	}
	return items
}
