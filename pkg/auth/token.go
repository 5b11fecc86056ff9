package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/pkg/config"
)

// ErrInvalidToken wraps every reason ParseAccessToken rejects a token.
var ErrInvalidToken = errors.New("invalid access token")

const clockSkew = 5 * time.Second

var signingMethod = jwt.SigningMethodHS256

func signingKey(cfg config.JWTConfig) ([]byte, error) {
	switch {
	case cfg.Secret == "":
		return nil, errors.New("jwt: secret is required")
	case cfg.Issuer == "":
		return nil, errors.New("jwt: issuer is required")
	}
	return []byte(cfg.Secret), nil
}

// MintAccessToken signs an HS256 access token valid for cfg.TTL() from now.
// A blank payload.JTI gets a fresh uuid.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	key, err := signingKey(cfg)
	if err != nil {
		return "", err
	}
	ttl := cfg.TTL()
	if ttl <= 0 {
		return "", errors.New("jwt: expiration must be positive")
	}
	if payload.UserID == uuid.Nil {
		return "", errors.New("jwt: user id is required")
	}
	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}

	claims := AccessTokenClaims{
		Type:     TokenTypeAccess,
		TgUserID: payload.TgUserID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   payload.UserID.String(),
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Audience}
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer, audience and expiry, then
// checks the token is an access token whose subject is a user id.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	key, err := signingKey(cfg)
	if err != nil {
		return nil, err
	}

	parser := jwt.NewParser(parserOptions(cfg)...)
	claims := &AccessTokenClaims{}
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return key, nil }); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Type != TokenTypeAccess {
		return nil, fmt.Errorf("%w: token type %q", ErrInvalidToken, claims.Type)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: subject: %w", ErrInvalidToken, err)
	}
	return claims, nil
}

func parserOptions(cfg config.JWTConfig) []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return opts
}
