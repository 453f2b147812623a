// Package domain defines domain-level errors for the account feature.
package domain

import (
	"errors"
	"net/http"
)

// Kind is the stable, machine-readable category of a failure.
type Kind string

const (
	KindMissingParameter       Kind = "MissingParameter"
	KindInvalidUsername        Kind = "InvalidUsername"
	KindInvalidEmail           Kind = "InvalidEmail"
	KindInvalidPassword        Kind = "InvalidPassword"
	KindAccountExists          Kind = "AccountExists"
	KindAccountNotFound        Kind = "AccountNotFound"
	KindInvalidCredentials     Kind = "InvalidCredentials"
	KindUnauthorized           Kind = "Unauthorized"
	KindTooManyAttempts        Kind = "TooManyAttempts"
	KindStoreUnavailable       Kind = "StoreUnavailable"
	KindCorruptCredentialError Kind = "CorruptCredentialError"
)

// HTTPStatus maps a kind to the status code returned to clients.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindMissingParameter, KindInvalidUsername, KindInvalidEmail, KindInvalidPassword, KindUnauthorized:
		return http.StatusBadRequest
	case KindInvalidCredentials:
		return http.StatusForbidden
	case KindAccountNotFound:
		return http.StatusNotFound
	case KindAccountExists:
		return http.StatusConflict
	case KindTooManyAttempts:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified account failure.
// Message is safe to show to clients; Err keeps the internal cause for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrAccountExists)
// holds for wrapped variants carrying a different cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Err: cause}
}

// Predefined errors, one per kind.
var (
	ErrMissingParameter = &Error{Kind: KindMissingParameter, Message: "missing parameters"}
	ErrInvalidUsername  = &Error{Kind: KindInvalidUsername, Message: "wrong username (must be length 7 - 21)"}
	ErrInvalidEmail     = &Error{Kind: KindInvalidEmail, Message: "email is not valid"}
	ErrInvalidPassword  = &Error{
		Kind:    KindInvalidPassword,
		Message: "invalid password (must be length 4 - 15, start with a letter and contain only letters, numbers and the underscore)",
	}
	ErrAccountExists      = &Error{Kind: KindAccountExists, Message: "user already exist"}
	ErrAccountNotFound    = &Error{Kind: KindAccountNotFound, Message: "user not found"}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "invalid password"}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized, Message: "wrong token"}
	ErrTooManyAttempts    = &Error{Kind: KindTooManyAttempts, Message: "too many login attempts, try again later"}
	ErrStoreUnavailable   = &Error{Kind: KindStoreUnavailable, Message: "service temporarily unavailable"}
	ErrCorruptCredential  = &Error{Kind: KindCorruptCredentialError, Message: "stored credential is corrupt"}
)

// KindOf returns the kind of err, or KindStoreUnavailable when err is not classified.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindStoreUnavailable
}

// PublicMessage returns the client-facing message for err without internal detail.
func PublicMessage(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ErrStoreUnavailable.Message
}
