package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/vendorpool-backend/pkg/config"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "https://auth.example.com", Audience: "authenticated"}
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, now, 30*time.Minute, userID, "vendor@example.com")
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	got, err := claims.UserID()
	if err != nil {
		t.Fatalf("user id: %v", err)
	}
	if got != userID {
		t.Fatalf("expected subject %s, got %s", userID, got)
	}
	if claims.Email != "vendor@example.com" {
		t.Fatalf("unexpected email %q", claims.Email)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret"}
	token, err := MintAccessToken(cfg, time.Now(), time.Minute, uuid.New(), "")
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err := ParseAccessToken(config.JWTConfig{Secret: "other"}, token); err == nil {
		t.Fatal("expected signature validation failure")
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret"}
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), time.Minute, uuid.New(), "")
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseAccessTokenRejectsAudienceMismatch(t *testing.T) {
	minted := config.JWTConfig{Secret: "secret", Audience: "anon"}
	token, err := MintAccessToken(minted, time.Now(), time.Minute, uuid.New(), "")
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	if _, err := ParseAccessToken(config.JWTConfig{Secret: "secret", Audience: "authenticated"}, token); err == nil {
		t.Fatal("expected audience mismatch to be rejected")
	}
}

func TestMintAccessTokenValidatesInput(t *testing.T) {
	if _, err := MintAccessToken(config.JWTConfig{}, time.Now(), time.Minute, uuid.New(), ""); err == nil {
		t.Fatal("expected missing secret error")
	}
	if _, err := MintAccessToken(config.JWTConfig{Secret: "s"}, time.Now(), time.Minute, uuid.Nil, ""); err == nil {
		t.Fatal("expected missing user error")
	}
}
