package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

// VenueMember links a user to a venue. Removal soft-deletes the row.
type VenueMember struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	VenueID   uuid.UUID             `gorm:"column:venue_id;type:uuid;not null;uniqueIndex:ux_venue_members_venue_user,priority:1"`
	UserID    uuid.UUID             `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_venue_members_venue_user,priority:2;index:ix_venue_members_user"`
	VenueRole enums.VenueRole       `gorm:"column:venue_role;type:varchar(16);not null"`
	Status    enums.LifecycleStatus `gorm:"column:status;type:varchar(16);not null;default:'active'"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (VenueMember) TableName() string { return "venue_members" }

func (m *VenueMember) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	if m.Status == "" {
		m.Status = enums.LifecycleActive
	}
	return nil
}
