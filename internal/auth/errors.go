package auth

import "errors"

var (
	// ErrEmailExists is returned when registering an email that already has an account.
	ErrEmailExists = errors.New("user with this email already exists")

	// ErrUserAccountDisabled is returned when attempting to authenticate a disabled user account.
	ErrUserAccountDisabled = errors.New("user account is disabled")

	// ErrInvalidCredentials is returned when the email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken is returned when a bearer token does not resolve to a user.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrUnknownProfileKind is returned for a registration with an unsupported profile kind.
	ErrUnknownProfileKind = errors.New("unknown profile kind")
)
