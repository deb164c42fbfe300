package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL bounds how long a share token (and its session) stays
// retrievable before external cleanup may expire it.
const DefaultTokenTTL = 7 * 24 * time.Hour

// TokenIssuer mints and parses the human-shareable session tokens used for
// external status lookup. Tokens are signed so a guessed token cannot address
// another caller's session.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates an issuer with the given signing secret. A zero ttl
// uses DefaultTokenTTL.
func NewTokenIssuer(secret []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("token secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: secret, ttl: ttl}, nil
}

// TTL returns the configured token lifetime.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue mints a signed share token for a session ID.
func (t *TokenIssuer) Issue(sessionID uuid.UUID, issuedAt time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   sessionID.String(),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(t.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Parse validates a share token and returns the session ID it addresses.
func (t *TokenIssuer) Parse(raw string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return uuid.Nil, fmt.Errorf("invalid session token: missing subject")
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session token subject: %w", err)
	}
	return id, nil
}
