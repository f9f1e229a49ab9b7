package ports

import "github.com/folioapp/portfolio-api/internal/core/domain"

// PasswordHasher hashes and verifies credentials. Verify never fails loudly:
// a malformed digest simply does not match.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// TokenCodec mints and parses signed, typed, expiring tokens.
type TokenCodec interface {
	// Issue signs claims with the TTL configured for claims.Type().
	Issue(claims domain.Claims) (string, error)
	// Decode verifies token and returns its claims. When expected types are
	// given the token must carry one of them. Every failure is
	// domain.ErrInvalidCredentials.
	Decode(token string, expected ...domain.TokenType) (domain.Claims, error)
}
