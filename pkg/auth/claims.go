package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const TokenTypeAccess = "access"

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	TgUserID int64
	JTI      string
}

// AccessTokenClaims is the typed JWT handed to the Mini App. The subject is
// the internal user id; system role is re-read from the database on every
// request so demotions apply immediately.
type AccessTokenClaims struct {
	Type     string `json:"typ"`
	TgUserID int64  `json:"tg_user_id,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c AccessTokenClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}
