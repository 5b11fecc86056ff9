package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

// Venue is the tenant boundary. Status is active or archived; a venue must
// be archived before it can be hard-deleted.
type Venue struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Name       string                `gorm:"column:name;type:varchar(200);not null"`
	Status     enums.LifecycleStatus `gorm:"column:status;type:varchar(16);not null;default:'active'"`
	ArchivedAt *time.Time            `gorm:"column:archived_at"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (Venue) TableName() string { return "venues" }

func (v *Venue) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	if v.Status == "" {
		v.Status = enums.LifecycleActive
	}
	return nil
}

func (v Venue) IsArchived() bool {
	return v.Status == enums.LifecycleArchived
}
