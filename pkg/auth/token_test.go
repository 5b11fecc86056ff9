package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/venueops-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "venueops-api",
		Audience:          "venueops-miniapp",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: userID, TgUserID: 777})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	got, err := claims.UserID()
	if err != nil || got != userID {
		t.Fatalf("expected subject %s, got %s (%v)", userID, got, err)
	}
	if claims.TgUserID != 777 {
		t.Fatalf("unexpected tg user id %d", claims.TgUserID)
	}
	if claims.Type != TokenTypeAccess {
		t.Fatalf("unexpected type %q", claims.Type)
	}
	if claims.ID == "" {
		t.Fatal("expected jti to be generated")
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.Time.Equal(now.Add(30*time.Minute).Truncate(time.Second)) {
		t.Fatalf("unexpected expiry %v", claims.ExpiresAt)
	}
}

func TestParseAccessTokenRejectsWrongAudience(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	other := cfg
	other.Audience = "someone-else"
	if _, err := ParseAccessToken(other, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected audience mismatch to be ErrInvalidToken, got %v", err)
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestParseAccessTokenRejectsWrongType(t *testing.T) {
	cfg := testJWTConfig()
	claims := AccessTokenClaims{
		Type: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatal("expected non-access token to be rejected")
	}
}

func TestMintRequiresUser(t *testing.T) {
	if _, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{}); err == nil {
		t.Fatal("expected missing user id to fail")
	}
}

func TestParseAccessTokenRejectsForeignSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	other := cfg
	other.Secret = "rotated"
	if _, err := ParseAccessToken(other, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected signature mismatch to be ErrInvalidToken, got %v", err)
	}
	if _, err := ParseAccessToken(config.JWTConfig{Issuer: "x"}, token); err == nil || errors.Is(err, ErrInvalidToken) {
		t.Fatalf("missing secret is a config error, got %v", err)
	}
}
