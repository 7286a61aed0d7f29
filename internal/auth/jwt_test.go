package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager(DefaultJWTConfig("test-secret"))

	token, err := m.GenerateToken("api")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	claims, err := m.VerifyToken(token)
	if err != nil {
		t.Fatalf("failed to verify token: %v", err)
	}
	if claims.Subject != "api" {
		t.Errorf("expected subject %q, got %q", "api", claims.Subject)
	}
	if claims.Issuer != "pokedex-service" {
		t.Errorf("expected issuer %q, got %q", "pokedex-service", claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("expected a token ID")
	}
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	cfg := DefaultJWTConfig("test-secret")
	cfg.Expiry = -time.Minute
	m := NewJWTManager(cfg)

	token, err := m.GenerateToken("api")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := m.VerifyToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestJWTManager_WrongSecret(t *testing.T) {
	issuer := NewJWTManager(DefaultJWTConfig("secret-a"))
	verifier := NewJWTManager(DefaultJWTConfig("secret-b"))

	token, err := issuer.GenerateToken("api")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := verifier.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTManager_GarbageToken(t *testing.T) {
	m := NewJWTManager(DefaultJWTConfig("test-secret"))

	if _, err := m.VerifyToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTManager_RejectsWrongAlgorithm(t *testing.T) {
	m := NewJWTManager(DefaultJWTConfig("test-secret"))

	// Token signed with HS512 while the manager expects HS256.
	other := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "api"})
	signed, err := other.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	if _, err := m.VerifyToken(signed); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for wrong algorithm, got %v", err)
	}
}
