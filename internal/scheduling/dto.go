package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
)

type IntervalDTO struct {
	ID        uuid.UUID          `json:"id"`
	Title     string             `json:"title"`
	StartTime calendar.TimeOfDay `json:"start_time"`
	EndTime   calendar.TimeOfDay `json:"end_time"`
}

type AssignmentDTO struct {
	ID              uuid.UUID  `json:"id"`
	ShiftID         uuid.UUID  `json:"shift_id"`
	MemberUserID    uuid.UUID  `json:"member_user_id"`
	MemberName      string     `json:"member_name"`
	VenuePositionID *uuid.UUID `json:"venue_position_id"`
	PositionTitle   *string    `json:"position_title"`
}

type ShiftDTO struct {
	ID          uuid.UUID       `json:"id"`
	VenueID     uuid.UUID       `json:"venue_id"`
	Date        calendar.Date   `json:"date"`
	Interval    IntervalDTO     `json:"interval"`
	Assignments []AssignmentDTO `json:"assignments"`
}

type CommentDTO struct {
	ID           uuid.UUID `json:"id"`
	ShiftID      uuid.UUID `json:"shift_id"`
	AuthorUserID uuid.UUID `json:"author_user_id"`
	AuthorName   string    `json:"author_name"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"created_at"`
}

type IntervalInput struct {
	Title     string
	StartTime calendar.TimeOfDay
	EndTime   calendar.TimeOfDay
}

type UpdateIntervalInput struct {
	Title     *string
	StartTime *calendar.TimeOfDay
	EndTime   *calendar.TimeOfDay
}

type CreateShiftInput struct {
	Date       calendar.Date
	IntervalID uuid.UUID
}

type UpdateShiftInput struct {
	Date       *calendar.Date
	IntervalID *uuid.UUID
}

func intervalFromModel(i *models.ShiftInterval) IntervalDTO {
	return IntervalDTO{ID: i.ID, Title: i.Title, StartTime: i.StartTime, EndTime: i.EndTime}
}

type shiftRow struct {
	models.Shift
	IntervalTitle string             `gorm:"column:interval_title"`
	StartTime     calendar.TimeOfDay `gorm:"column:start_time"`
	EndTime       calendar.TimeOfDay `gorm:"column:end_time"`
}

func (r shiftRow) toDTO() ShiftDTO {
	return ShiftDTO{
		ID:      r.ID,
		VenueID: r.VenueID,
		Date:    r.Date,
		Interval: IntervalDTO{
			ID:        r.IntervalID,
			Title:     r.IntervalTitle,
			StartTime: r.StartTime,
			EndTime:   r.EndTime,
		},
		Assignments: []AssignmentDTO{},
	}
}

type assignmentRow struct {
	models.ShiftAssignment
	ShortName     *string `gorm:"column:short_name"`
	FullName      *string `gorm:"column:full_name"`
	TgUsername    *string `gorm:"column:tg_username"`
	PositionTitle *string `gorm:"column:position_title"`
}

func (r assignmentRow) toDTO() AssignmentDTO {
	u := models.User{ShortName: r.ShortName, FullName: r.FullName, TgUsername: r.TgUsername}
	return AssignmentDTO{
		ID:              r.ID,
		ShiftID:         r.ShiftID,
		MemberUserID:    r.MemberUserID,
		MemberName:      u.DisplayName(),
		VenuePositionID: r.VenuePositionID,
		PositionTitle:   r.PositionTitle,
	}
}

type commentRow struct {
	models.ShiftComment
	ShortName  *string `gorm:"column:short_name"`
	FullName   *string `gorm:"column:full_name"`
	TgUsername *string `gorm:"column:tg_username"`
}

func (r commentRow) toDTO() CommentDTO {
	u := models.User{ShortName: r.ShortName, FullName: r.FullName, TgUsername: r.TgUsername}
	return CommentDTO{
		ID:           r.ID,
		ShiftID:      r.ShiftID,
		AuthorUserID: r.AuthorUserID,
		AuthorName:   u.DisplayName(),
		Text:         r.Text,
		CreatedAt:    r.CreatedAt,
	}
}
