package domain

import "time"

// TokenType is the purpose a token was minted for. A token is only ever
// accepted for the purpose it carries.
type TokenType string

const (
	TokenAccess        TokenType = "access"
	TokenEmailVerify   TokenType = "email_verify"
	TokenPasswordReset TokenType = "password_reset"
	TokenAccountDelete TokenType = "account_delete"
)

// TokenMeta is stamped by the codec on issue and filled in on decode.
type TokenMeta struct {
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Claims is the decoded payload of a bearer token. The concrete type tells
// which purpose the token serves.
type Claims interface {
	Type() TokenType
	Subject() string
	Meta() TokenMeta
}

// AccessClaims snapshot the identity fields a session was issued against.
type AccessClaims struct {
	TokenMeta
	UserID   string
	Email    string
	Username string
}

func (c AccessClaims) Type() TokenType { return TokenAccess }
func (c AccessClaims) Subject() string { return c.UserID }
func (c AccessClaims) Meta() TokenMeta { return c.TokenMeta }

// EmailVerifyClaims bind a verification link to the nonce stored on the user.
type EmailVerifyClaims struct {
	TokenMeta
	UserID string
	Nonce  string
}

func (c EmailVerifyClaims) Type() TokenType { return TokenEmailVerify }
func (c EmailVerifyClaims) Subject() string { return c.UserID }
func (c EmailVerifyClaims) Meta() TokenMeta { return c.TokenMeta }

type PasswordResetClaims struct {
	TokenMeta
	UserID string
}

func (c PasswordResetClaims) Type() TokenType { return TokenPasswordReset }
func (c PasswordResetClaims) Subject() string { return c.UserID }
func (c PasswordResetClaims) Meta() TokenMeta { return c.TokenMeta }

type AccountDeleteClaims struct {
	TokenMeta
	UserID string
}

func (c AccountDeleteClaims) Type() TokenType { return TokenAccountDelete }
func (c AccountDeleteClaims) Subject() string { return c.UserID }
func (c AccountDeleteClaims) Meta() TokenMeta { return c.TokenMeta }
