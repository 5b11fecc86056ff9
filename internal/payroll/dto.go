package payroll

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

type VenueRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type IntervalRef struct {
	ID        uuid.UUID          `json:"id"`
	Title     string             `json:"title"`
	StartTime calendar.TimeOfDay `json:"start_time"`
	EndTime   calendar.TimeOfDay `json:"end_time"`
}

// MyShiftDTO is one of the caller's shifts. Salary and tips are zero on
// days without a report.
type MyShiftDTO struct {
	ShiftID   uuid.UUID     `json:"shift_id"`
	Date      calendar.Date `json:"date"`
	Venue     VenueRef      `json:"venue"`
	Interval  IntervalRef   `json:"interval"`
	HasReport bool          `json:"has_report"`
	MySalary  int64         `json:"my_salary"`
	TipsShare int64         `json:"tips_share"`
}

type VenueSummaryDTO struct {
	Venue VenueRef `json:"venue"`
	Totals
}

type SalarySummaryDTO struct {
	Month  string            `json:"month"`
	Items  []VenueSummaryDTO `json:"items"`
	Totals Totals            `json:"totals"`
}

type MemberPayrollDTO struct {
	MemberUserID uuid.UUID `json:"member_user_id"`
	MemberName   string    `json:"member_name"`
	Shifts       int       `json:"shifts"`
	Totals
}

type VenuePayrollDTO struct {
	Month   string             `json:"month"`
	VenueID uuid.UUID          `json:"venue_id"`
	Items   []MemberPayrollDTO `json:"items"`
	Totals  Totals             `json:"totals"`
}

// shiftRow is one assignment joined with its shift, interval and venue.
type shiftRow struct {
	ShiftID       uuid.UUID          `gorm:"column:shift_id"`
	Date          calendar.Date      `gorm:"column:shift_date"`
	VenueID       uuid.UUID          `gorm:"column:venue_id"`
	VenueName     string             `gorm:"column:venue_name"`
	IntervalID    uuid.UUID          `gorm:"column:interval_id"`
	IntervalTitle string             `gorm:"column:interval_title"`
	StartTime     calendar.TimeOfDay `gorm:"column:start_time"`
	EndTime       calendar.TimeOfDay `gorm:"column:end_time"`
	MemberUserID  uuid.UUID          `gorm:"column:member_user_id"`
	Rate          int64              `gorm:"column:rate"`
	Percent       int                `gorm:"column:percent"`
	ShortName     *string            `gorm:"column:short_name"`
	FullName      *string            `gorm:"column:full_name"`
	TgUsername    *string            `gorm:"column:tg_username"`
}

func (r shiftRow) memberName() string {
	u := models.User{ShortName: r.ShortName, FullName: r.FullName, TgUsername: r.TgUsername}
	return u.DisplayName()
}

type adjustmentTotalRow struct {
	VenueID      uuid.UUID            `gorm:"column:venue_id"`
	MemberUserID uuid.UUID            `gorm:"column:member_user_id"`
	Type         enums.AdjustmentType `gorm:"column:type"`
	Total        int64                `gorm:"column:total"`
}

type dayCountRow struct {
	VenueID   uuid.UUID     `gorm:"column:venue_id"`
	Date      calendar.Date `gorm:"column:shift_date"`
	Assignees int           `gorm:"column:assignees"`
}

// dayKey identifies a venue-day.
type dayKey struct {
	venueID uuid.UUID
	date    string
}

func keyOf(venueID uuid.UUID, date calendar.Date) dayKey {
	return dayKey{venueID: venueID, date: date.String()}
}
