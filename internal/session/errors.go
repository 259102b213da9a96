package session

import (
	"errors"

	"github.com/desertthunder/pathfinder/internal/services"
	"github.com/desertthunder/pathfinder/internal/shared"
)

// Fallback messages shown when the auth service gives no usable message.
const (
	LoginFailedMessage    = "Login failed. Please try again."
	RegisterFailedMessage = "Registration failed. Please try again."
	LoggedInMessage       = "You are already logged in. Log out first to switch accounts."
)

// AuthError is a failed login or registration.
//
// Error returns the text to display: the server's message, or a fixed fallback. It matches [shared.ErrAuthFailed]
// and the underlying cause with errors.Is / errors.As.
type AuthError struct {
	Message string
	Cause   error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() []error {
	return []error{shared.ErrAuthFailed, e.Cause}
}

func newAuthError(cause error, fallback string) *AuthError {
	var serverErr *services.ServerError
	if errors.As(cause, &serverErr) && serverErr.Message != "" {
		return &AuthError{Message: serverErr.Message, Cause: cause}
	}
	return &AuthError{Message: fallback, Cause: cause}
}
