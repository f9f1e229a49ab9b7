// Package token signs and parses the bearer tokens used for sessions and for
// the email verification, password reset and account deletion links.
//
// Tokens are HS256 JWTs. Besides the registered claims (sub, iat, exp, jti)
// every token carries a "type" claim, and a token is rejected when decoded for
// a purpose other than the one it was minted for.
package token

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/folioapp/portfolio-api/internal/core/domain"
	"github.com/folioapp/portfolio-api/internal/infrastructure/metrics"
)

// TTLs holds the lifetime of each token type.
type TTLs struct {
	Access        time.Duration
	EmailVerify   time.Duration
	PasswordReset time.Duration
	AccountDelete time.Duration
}

// Codec implements ports.TokenCodec.
type Codec struct {
	secret []byte
	ttl    map[domain.TokenType]time.Duration
	now    func() time.Time
}

// Option customises a Codec.
type Option func(*Codec)

// WithClock replaces time.Now, for both issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec returns a codec signing with secret. An empty secret is refused
// because it would make every token forgeable.
func NewCodec(secret string, ttls TTLs, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("token: empty signing secret")
	}
	c := &Codec{
		secret: []byte(secret),
		ttl: map[domain.TokenType]time.Duration{
			domain.TokenAccess:        ttls.Access,
			domain.TokenEmailVerify:   ttls.EmailVerify,
			domain.TokenPasswordReset: ttls.PasswordReset,
			domain.TokenAccountDelete: ttls.AccountDelete,
		},
		now: time.Now,
	}
	for typ, ttl := range c.ttl {
		if ttl <= 0 {
			return nil, fmt.Errorf("token: ttl for %q must be positive", typ)
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// wireClaims is the JSON payload of every token.
type wireClaims struct {
	jwt.RegisteredClaims
	Type     domain.TokenType `json:"type"`
	Email    string           `json:"email,omitempty"`
	Username string           `json:"username,omitempty"`
	Nonce    string           `json:"evt,omitempty"`
}

// Issue signs claims with the TTL configured for their type.
func (c *Codec) Issue(claims domain.Claims) (string, error) {
	if claims == nil {
		return "", errors.New("token: nil claims")
	}
	ttl, ok := c.ttl[claims.Type()]
	if !ok {
		return "", fmt.Errorf("token: unknown type %q", claims.Type())
	}
	if claims.Subject() == "" {
		return "", errors.New("token: empty subject")
	}

	now := c.now().UTC()
	w := wireClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   claims.Subject(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Type: claims.Type(),
	}

	switch v := claims.(type) {
	case domain.AccessClaims:
		w.Email, w.Username = v.Email, v.Username
	case domain.EmailVerifyClaims:
		w.Nonce = v.Nonce
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, w).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	metrics.TokensIssuedTotal.WithLabelValues(string(claims.Type())).Inc()
	return signed, nil
}

// Decode verifies signature, algorithm, iat and exp, then rebuilds the typed
// claims. Any failure, including a type outside expected, yields
// domain.ErrInvalidCredentials.
func (c *Codec) Decode(token string, expected ...domain.TokenType) (domain.Claims, error) {
	var w wireClaims
	_, err := jwt.ParseWithClaims(token, &w, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if len(expected) > 0 && !slices.Contains(expected, w.Type) {
		return nil, domain.ErrInvalidCredentials
	}
	if w.Subject == "" || w.IssuedAt == nil {
		return nil, domain.ErrInvalidCredentials
	}

	meta := domain.TokenMeta{
		IssuedAt:  w.IssuedAt.Time,
		ExpiresAt: w.ExpiresAt.Time,
	}

	switch w.Type {
	case domain.TokenAccess:
		if w.Email == "" || w.Username == "" {
			return nil, domain.ErrInvalidCredentials
		}
		return domain.AccessClaims{TokenMeta: meta, UserID: w.Subject, Email: w.Email, Username: w.Username}, nil
	case domain.TokenEmailVerify:
		if w.Nonce == "" {
			return nil, domain.ErrInvalidCredentials
		}
		return domain.EmailVerifyClaims{TokenMeta: meta, UserID: w.Subject, Nonce: w.Nonce}, nil
	case domain.TokenPasswordReset:
		return domain.PasswordResetClaims{TokenMeta: meta, UserID: w.Subject}, nil
	case domain.TokenAccountDelete:
		return domain.AccountDeleteClaims{TokenMeta: meta, UserID: w.Subject}, nil
	default:
		return nil, domain.ErrInvalidCredentials
	}
}
