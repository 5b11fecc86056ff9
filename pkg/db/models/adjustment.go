package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

// Adjustment is a penalty, bonus or writeoff. MemberUserID is nil only for
// venue-level writeoffs.
type Adjustment struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	VenueID         uuid.UUID             `gorm:"column:venue_id;type:uuid;not null;index:ix_adjustments_venue_date,priority:1"`
	Type            enums.AdjustmentType  `gorm:"column:type;type:varchar(16);not null"`
	MemberUserID    *uuid.UUID            `gorm:"column:member_user_id;type:uuid;index:ix_adjustments_member"`
	Date            calendar.Date         `gorm:"column:date;type:date;not null;index:ix_adjustments_venue_date,priority:2"`
	Amount          int64                 `gorm:"column:amount;not null"`
	Reason          *string               `gorm:"column:reason;type:varchar(500)"`
	Status          enums.LifecycleStatus `gorm:"column:status;type:varchar(16);not null;default:'active'"`
	CreatedByUserID uuid.UUID             `gorm:"column:created_by_user_id;type:uuid;not null"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedByUserID *uuid.UUID            `gorm:"column:updated_by_user_id;type:uuid"`
	UpdatedAt       *time.Time            `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (Adjustment) TableName() string { return "adjustments" }

func (a *Adjustment) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	if a.Status == "" {
		a.Status = enums.LifecycleActive
	}
	return nil
}

// AdjustmentDispute is a challenge thread. At most one OPEN dispute exists
// per adjustment.
type AdjustmentDispute struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	VenueID          uuid.UUID           `gorm:"column:venue_id;type:uuid;not null;index:ix_adjustment_disputes_venue"`
	AdjustmentID     uuid.UUID           `gorm:"column:adjustment_id;type:uuid;not null;index:ix_adjustment_disputes_adjustment;uniqueIndex:ux_adjustment_disputes_open,where:status = 'OPEN'"`
	CreatedByUserID  uuid.UUID           `gorm:"column:created_by_user_id;type:uuid;not null"`
	Status           enums.DisputeStatus `gorm:"column:status;type:varchar(16);not null;default:'OPEN'"`
	ResolvedByUserID *uuid.UUID          `gorm:"column:resolved_by_user_id;type:uuid"`
	ResolvedAt       *time.Time          `gorm:"column:resolved_at"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (AdjustmentDispute) TableName() string { return "adjustment_disputes" }

func (d *AdjustmentDispute) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	if d.Status == "" {
		d.Status = enums.DisputeStatusOpen
	}
	return nil
}

// AdjustmentDisputeComment is one message in a dispute thread, ordered by
// created_at then id.
type AdjustmentDisputeComment struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	DisputeID    uuid.UUID `gorm:"column:dispute_id;type:uuid;not null;index:ix_dispute_comments_dispute"`
	AuthorUserID uuid.UUID `gorm:"column:author_user_id;type:uuid;not null"`
	Message      string    `gorm:"column:message;type:varchar(2000);not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (AdjustmentDisputeComment) TableName() string { return "adjustment_dispute_comments" }

func (c *AdjustmentDisputeComment) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
