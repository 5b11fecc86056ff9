package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

// VenueInvite reserves a membership for a Telegram username that has not
// logged in yet. Active invites are pending; consumed or cancelled invites
// are marked deleted.
type VenueInvite struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	VenueID           uuid.UUID             `gorm:"column:venue_id;type:uuid;not null;uniqueIndex:ux_venue_invites_pending,priority:1,where:status = 'active'"`
	InvitedTgUsername string                `gorm:"column:invited_tg_username;type:varchar(64);not null;uniqueIndex:ux_venue_invites_pending,priority:2,where:status = 'active';index:ix_venue_invites_username"`
	VenueRole         enums.VenueRole       `gorm:"column:venue_role;type:varchar(16);not null"`
	Status            enums.LifecycleStatus `gorm:"column:status;type:varchar(16);not null;default:'active'"`
	CreatedByUserID   uuid.UUID             `gorm:"column:created_by_user_id;type:uuid;not null"`
	AcceptedUserID    *uuid.UUID            `gorm:"column:accepted_user_id;type:uuid"`
	AcceptedAt        *time.Time            `gorm:"column:accepted_at"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (VenueInvite) TableName() string { return "venue_invites" }

func (i *VenueInvite) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	if i.Status == "" {
		i.Status = enums.LifecycleActive
	}
	return nil
}
