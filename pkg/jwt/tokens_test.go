package jwt

import (
	"errors"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndParseRoundTrip(t *testing.T) {
	token, err := GenerateToken("op-1", "ops@example.com", "secret", time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := Parse(token, "secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.OperatorID != "op-1" || claims.Email != "ops@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("op-1", "", "secret", time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := Parse(token, "other"); !errors.Is(err, jwtlib.ErrTokenSignatureInvalid) {
		t.Fatalf("expected signature error, got %v", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, err := GenerateToken("op-1", "", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := Parse(token, "secret"); !errors.Is(err, jwtlib.ErrTokenExpired) {
		t.Fatalf("expected expiry error, got %v", err)
	}
}

func TestParseAsChecksTokenType(t *testing.T) {
	access, err := GenerateToken("op-1", "", "secret", time.Minute)
	if err != nil {
		t.Fatalf("generate access: %v", err)
	}
	refresh, err := GenerateRefreshToken("op-1", "", "secret", time.Hour)
	if err != nil {
		t.Fatalf("generate refresh: %v", err)
	}

	claims, err := ParseAs(access, "secret", TypeAccess)
	if err != nil || claims.Type != TypeAccess {
		t.Fatalf("expected access claims, got %+v err=%v", claims, err)
	}
	if _, err := ParseAs(refresh, "secret", TypeAccess); !errors.Is(err, ErrTokenType) {
		t.Fatalf("expected ErrTokenType for refresh token, got %v", err)
	}
	if _, err := ParseAs(access, "secret", TypeRefresh); !errors.Is(err, ErrTokenType) {
		t.Fatalf("expected ErrTokenType for access token, got %v", err)
	}
}
