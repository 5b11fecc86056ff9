package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

// UserDTO is the transport shape returned by GET /me.
type UserDTO struct {
	ID                uuid.UUID        `json:"id"`
	TgUserID          int64            `json:"tg_user_id"`
	TgUsername        *string          `json:"tg_username"`
	FullName          *string          `json:"full_name"`
	ShortName         *string          `json:"short_name"`
	SystemRole        enums.SystemRole `json:"system_role"`
	NotifyEnabled     bool             `json:"notify_enabled"`
	NotifyAdjustments bool             `json:"notify_adjustments"`
	NotifyShifts      bool             `json:"notify_shifts"`
	CreatedAt         time.Time        `json:"created_at"`
}

type ProfileDTO struct {
	ID         uuid.UUID `json:"id"`
	TgUsername *string   `json:"tg_username"`
	FullName   *string   `json:"full_name"`
	ShortName  *string   `json:"short_name"`
}

type NotificationSettingsDTO struct {
	NotifyEnabled     bool `json:"notify_enabled"`
	NotifyAdjustments bool `json:"notify_adjustments"`
	NotifyShifts      bool `json:"notify_shifts"`
}

// UpdateProfileInput treats nil as "leave unchanged" and a blank string as "clear".
type UpdateProfileInput struct {
	FullName  *string
	ShortName *string
}

type UpdateNotificationSettingsInput struct {
	NotifyEnabled     *bool
	NotifyAdjustments *bool
	NotifyShifts      *bool
}

// TelegramIdentity is the verified subset of initData used to upsert a user.
type TelegramIdentity struct {
	TgUserID int64
	Username string
	FullName string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:                u.ID,
		TgUserID:          u.TgUserID,
		TgUsername:        u.TgUsername,
		FullName:          u.FullName,
		ShortName:         u.ShortName,
		SystemRole:        u.SystemRole,
		NotifyEnabled:     u.NotifyEnabled,
		NotifyAdjustments: u.NotifyAdjustments,
		NotifyShifts:      u.NotifyShifts,
		CreatedAt:         u.CreatedAt,
	}
}

func profileFromModel(u *models.User) *ProfileDTO {
	return &ProfileDTO{
		ID:         u.ID,
		TgUsername: u.TgUsername,
		FullName:   u.FullName,
		ShortName:  u.ShortName,
	}
}

func settingsFromModel(u *models.User) *NotificationSettingsDTO {
	return &NotificationSettingsDTO{
		NotifyEnabled:     u.NotifyEnabled,
		NotifyAdjustments: u.NotifyAdjustments,
		NotifyShifts:      u.NotifyShifts,
	}
}

// NormalizeUsername strips a leading "@" and lowercases a Telegram handle.
func NormalizeUsername(raw string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "@"))
}
