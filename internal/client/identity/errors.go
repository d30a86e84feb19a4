package identity

import (
	"errors"
	"fmt"
)

// Provider error codes.
const (
	CodeEmailAlreadyInUse     = "email-already-in-use"
	CodeInvalidEmail          = "invalid-email"
	CodeOperationNotAllowed   = "operation-not-allowed"
	CodeWeakPassword          = "weak-password"
	CodeUserDisabled          = "user-disabled"
	CodeUserNotFound          = "user-not-found"
	CodeWrongPassword         = "wrong-password"
	CodeTooManyRequests       = "too-many-requests"
	CodeNetworkRequestFailed  = "network-request-failed"
	fallbackMessage           = "An unexpected error occurred"
	defaultAuthFailureMessage = "An error occurred during authentication"
)

var messages = map[string]string{
	CodeEmailAlreadyInUse:    "This email is already registered",
	CodeInvalidEmail:         "Invalid email address",
	CodeOperationNotAllowed:  "Operation not allowed",
	CodeWeakPassword:         "Password is too weak",
	CodeUserDisabled:         "This account has been disabled",
	CodeUserNotFound:         "No account found with this email",
	CodeWrongPassword:        "Incorrect password",
	CodeTooManyRequests:      "Too many requests. Please try again later",
	CodeNetworkRequestFailed: "Network error. Please check your connection",
}

// ErrNoCurrentUser is returned by calls that need a signed-in user.
var ErrNoCurrentUser = errors.New("no user is currently signed in")

// AuthError is a provider failure identified by Code.
type AuthError struct {
	Code string
	// Detail is the provider's own text, used for unknown codes.
	Detail string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth/%s: %s", e.Code, e.message())
}

func (e *AuthError) message() string {
	if m, ok := messages[e.Code]; ok {
		return m
	}
	if e.Detail != "" {
		return e.Detail
	}
	return fallbackMessage
}

func newAuthError(code string) *AuthError {
	return &AuthError{Code: code}
}

// Code extracts the provider code from err, or "" when err is not an AuthError.
func Code(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// Message returns the user-facing text for err, suitable for showing inline
// on the form that triggered it.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.message()
	}
	if errors.Is(err, ErrNoCurrentUser) {
		return "No user is currently signed in"
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return defaultAuthFailureMessage
}
