package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const issuer = "madinia"

// Token types carried in the typ claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// ErrTokenType is returned when a token of the wrong type is presented.
var ErrTokenType = errors.New("unexpected token type")

// Claims defines JWT payload for an operator session.
type Claims struct {
	OperatorID string `json:"operator_id"`
	Email      string `json:"email,omitempty"`
	Type       string `json:"typ"`
	jwtlib.RegisteredClaims
}

// GenerateToken issues a signed access token with provided secret and ttl.
func GenerateToken(operatorID, email, secret string, ttl time.Duration) (string, error) {
	return generate(TypeAccess, operatorID, email, secret, ttl)
}

// GenerateRefreshToken issues a signed refresh token. It is only accepted by
// the refresh flow, never as a session.
func GenerateRefreshToken(operatorID, email, secret string, ttl time.Duration) (string, error) {
	return generate(TypeRefresh, operatorID, email, secret, ttl)
}

func generate(kind, operatorID, email, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		OperatorID: operatorID,
		Email:      email,
		Type:       kind,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			Subject:   operatorID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse validates and extracts claims from token.
func Parse(token string, secret string) (*Claims, error) {
	parsed, err := jwtlib.ParseWithClaims(token, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Name}), jwtlib.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwtlib.ErrTokenInvalidClaims
	}
	return claims, nil
}

// ParseAs parses token and checks its typ claim matches kind.
func ParseAs(token, secret, kind string) (*Claims, error) {
	claims, err := Parse(token, secret)
	if err != nil {
		return nil, err
	}
	if claims.Type != kind {
		return nil, ErrTokenType
	}
	return claims, nil
}
