package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

// ShiftInterval is a reusable named time range, unique per venue by title
// among active rows.
type ShiftInterval struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	VenueID   uuid.UUID             `gorm:"column:venue_id;type:uuid;not null;uniqueIndex:ux_shift_intervals_venue_title,priority:1,where:status = 'active'"`
	Title     string                `gorm:"column:title;type:varchar(100);not null;uniqueIndex:ux_shift_intervals_venue_title,priority:2,where:status = 'active'"`
	StartTime calendar.TimeOfDay    `gorm:"column:start_time;type:varchar(5);not null"`
	EndTime   calendar.TimeOfDay    `gorm:"column:end_time;type:varchar(5);not null"`
	Status    enums.LifecycleStatus `gorm:"column:status;type:varchar(16);not null;default:'active'"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (ShiftInterval) TableName() string { return "shift_intervals" }

func (i *ShiftInterval) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	if i.Status == "" {
		i.Status = enums.LifecycleActive
	}
	return nil
}

// Shift schedules one interval on one date. (venue, date, interval) is
// unique among active rows.
type Shift struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	VenueID    uuid.UUID             `gorm:"column:venue_id;type:uuid;not null;uniqueIndex:ux_shifts_venue_date_interval,priority:1,where:status = 'active'"`
	Date       calendar.Date         `gorm:"column:date;type:date;not null;uniqueIndex:ux_shifts_venue_date_interval,priority:2,where:status = 'active'"`
	IntervalID uuid.UUID             `gorm:"column:interval_id;type:uuid;not null;uniqueIndex:ux_shifts_venue_date_interval,priority:3,where:status = 'active'"`
	Status     enums.LifecycleStatus `gorm:"column:status;type:varchar(16);not null;default:'active'"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (Shift) TableName() string { return "shifts" }

func (s *Shift) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	if s.Status == "" {
		s.Status = enums.LifecycleActive
	}
	return nil
}

// ShiftAssignment puts a member on a shift. Rate and Percent are copied from
// the member's position when the assignment is created so later position
// edits do not rewrite past payroll.
type ShiftAssignment struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ShiftID         uuid.UUID  `gorm:"column:shift_id;type:uuid;not null;uniqueIndex:ux_shift_assignments_shift_member,priority:1"`
	MemberUserID    uuid.UUID  `gorm:"column:member_user_id;type:uuid;not null;uniqueIndex:ux_shift_assignments_shift_member,priority:2;index:ix_shift_assignments_member"`
	VenuePositionID *uuid.UUID `gorm:"column:venue_position_id;type:uuid"`
	Rate            int64      `gorm:"column:rate;not null;default:0"`
	Percent         int        `gorm:"column:percent;not null;default:0"`
	ReminderSentAt  *time.Time `gorm:"column:reminder_sent_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (ShiftAssignment) TableName() string { return "shift_assignments" }

func (a *ShiftAssignment) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// ShiftComment is a free-form note on a shift.
type ShiftComment struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ShiftID      uuid.UUID `gorm:"column:shift_id;type:uuid;not null;index:ix_shift_comments_shift"`
	AuthorUserID uuid.UUID `gorm:"column:author_user_id;type:uuid;not null"`
	Text         string    `gorm:"column:text;type:varchar(2000);not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ShiftComment) TableName() string { return "shift_comments" }

func (c *ShiftComment) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
