package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

// VenuePosition is the single pay-and-capability record for a member in a
// venue. (venue_id, member_user_id) is unique across all statuses.
type VenuePosition struct {
	ID                   uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	VenueID              uuid.UUID             `gorm:"column:venue_id;type:uuid;not null;uniqueIndex:ux_venue_positions_venue_member,priority:1"`
	MemberUserID         uuid.UUID             `gorm:"column:member_user_id;type:uuid;not null;uniqueIndex:ux_venue_positions_venue_member,priority:2"`
	Title                string                `gorm:"column:title;type:varchar(100);not null"`
	Rate                 int64                 `gorm:"column:rate;not null;default:0"`
	Percent              int                   `gorm:"column:percent;not null;default:0"`
	CanMakeReports       bool                  `gorm:"column:can_make_reports;not null;default:false"`
	CanViewReports       bool                  `gorm:"column:can_view_reports;not null;default:false"`
	CanViewRevenue       bool                  `gorm:"column:can_view_revenue;not null;default:false"`
	CanEditSchedule      bool                  `gorm:"column:can_edit_schedule;not null;default:false"`
	CanViewAdjustments   bool                  `gorm:"column:can_view_adjustments;not null;default:false"`
	CanManageAdjustments bool                  `gorm:"column:can_manage_adjustments;not null;default:false"`
	CanResolveDisputes   bool                  `gorm:"column:can_resolve_disputes;not null;default:false"`
	Status               enums.LifecycleStatus `gorm:"column:status;type:varchar(16);not null;default:'active'"`
	CreatedAt            time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (VenuePosition) TableName() string { return "venue_positions" }

func (p *VenuePosition) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	if p.Status == "" {
		p.Status = enums.LifecycleActive
	}
	return nil
}
