package domain

import "errors"

// Credential and token failures share ErrInvalidCredentials so callers
// cannot tell a bad password from a forged, expired or mistyped token.
var (
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrEmailNotVerified        = errors.New("email not verified")
	ErrVerificationLinkInvalid = errors.New("verification link is no longer valid")
	ErrForbidden               = errors.New("access forbidden")
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrPortfolioNotFound = errors.New("portfolio not found")
)

var (
	ErrUserExists    = errors.New("user already exists")
	ErrUsernameTaken = errors.New("username already in use")
	ErrEmailTaken    = errors.New("email already in use")
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNothingToUpdate   = errors.New("nothing to update")
	ErrPasswordUnchanged = errors.New("new password must differ from the current password")
)
