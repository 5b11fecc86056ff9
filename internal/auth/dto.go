package auth

import (
	"time"

	"github.com/angelmondragon/venueops-backend/internal/users"
)

// TelegramLoginRequest carries the raw Mini App initData query string.
type TelegramLoginRequest struct {
	InitData string `json:"init_data" validate:"required"`
}

// LoginResponse is returned by a successful Telegram login. The token is
// also set as the session cookie by the controller.
type LoginResponse struct {
	AccessToken     string         `json:"access_token"`
	ExpiresAt       time.Time      `json:"expires_at"`
	User            *users.UserDTO `json:"user"`
	AcceptedInvites int            `json:"accepted_invites"`
}
