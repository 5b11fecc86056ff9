package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

// User is a Telegram-backed identity. Users are never hard-deleted.
type User struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	TgUserID          int64            `gorm:"column:tg_user_id;not null;uniqueIndex:ux_users_tg_user_id"`
	TgUsername        *string          `gorm:"column:tg_username;type:varchar(64);index:ix_users_tg_username"`
	FullName          *string          `gorm:"column:full_name;type:varchar(128)"`
	ShortName         *string          `gorm:"column:short_name;type:varchar(64)"`
	SystemRole        enums.SystemRole `gorm:"column:system_role;type:varchar(32);not null;default:'NONE'"`
	NotifyEnabled     bool             `gorm:"column:notify_enabled;not null;default:true"`
	NotifyAdjustments bool             `gorm:"column:notify_adjustments;not null;default:true"`
	NotifyShifts      bool             `gorm:"column:notify_shifts;not null;default:true"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	if u.SystemRole == "" {
		u.SystemRole = enums.SystemRoleNone
	}
	return nil
}

// WantsAdjustmentNotifications reports whether adjustment/dispute messages may be sent.
func (u User) WantsAdjustmentNotifications() bool {
	return u.NotifyEnabled && u.NotifyAdjustments
}

// WantsShiftNotifications reports whether shift reminders may be sent.
func (u User) WantsShiftNotifications() bool {
	return u.NotifyEnabled && u.NotifyShifts
}

// DisplayName prefers the short name, then full name, then @username.
func (u User) DisplayName() string {
	switch {
	case u.ShortName != nil && *u.ShortName != "":
		return *u.ShortName
	case u.FullName != nil && *u.FullName != "":
		return *u.FullName
	case u.TgUsername != nil && *u.TgUsername != "":
		return "@" + *u.TgUsername
	}
	return "user"
}
