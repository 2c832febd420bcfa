package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"userflow-backend/internal/shared"
)

// TokenIssuer mints and verifies the bearer credential: an HS256-signed JWT
// carrying the user ID, valid for a fixed window (24h by default), not
// renewable without re-authenticating. There is no server-side revocation
// list; expiry is the only termination.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue produces a signed token for the given user ID. Extra claims are
// merged in but cannot override the reserved ones.
func (i *TokenIssuer) Issue(userID string, extra map[string]any) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{}
	for k, v := range extra {
		claims[k] = v
	}
	claims["user_id"] = userID
	claims["exp"] = now.Add(i.ttl).Unix()
	claims["iat"] = now.Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify checks signature and expiry and returns the user ID encoded at
// issuance. Malformed, expired and forged tokens all fail closed with
// shared.ErrUnauthorized. Verify does not re-confirm the user still exists;
// callers that need that guarantee look the ID up in the store and treat
// NotFound as unauthorized.
func (i *TokenIssuer) Verify(tokenString string) (string, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrUnauthorized, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", shared.ErrUnauthorized
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", shared.ErrUnauthorized
	}
	return userID, nil
}
