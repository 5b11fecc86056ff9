package adjustments

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

type AdjustmentDTO struct {
	ID              uuid.UUID            `json:"id"`
	VenueID         uuid.UUID            `json:"venue_id"`
	Type            enums.AdjustmentType `json:"type"`
	MemberUserID    *uuid.UUID           `json:"member_user_id"`
	MemberName      *string              `json:"member_name"`
	Date            calendar.Date        `json:"date"`
	Amount          int64                `json:"amount"`
	Reason          *string              `json:"reason"`
	CreatedByUserID uuid.UUID            `json:"created_by_user_id"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedByUserID *uuid.UUID           `json:"updated_by_user_id"`
	UpdatedAt       *time.Time           `json:"updated_at"`
	HasOpenDispute  bool                 `json:"has_open_dispute"`
}

type CreateInput struct {
	Type         enums.AdjustmentType
	MemberUserID *uuid.UUID
	Date         calendar.Date
	Amount       int64
	Reason       *string
}

// UpdateInput applies only the non-nil fields. ClearMember turns the row
// into a venue-level writeoff.
type UpdateInput struct {
	Type         *enums.AdjustmentType
	MemberUserID *uuid.UUID
	ClearMember  bool
	Date         *calendar.Date
	Amount       *int64
	Reason       *string
}

// ListFilter scopes a month listing. Mine restricts to the caller's own
// adjustments even for viewers.
type ListFilter struct {
	Month calendar.Month
	Type  *enums.AdjustmentType
	Mine  bool
}

type DisputeCommentDTO struct {
	ID           uuid.UUID `json:"id"`
	DisputeID    uuid.UUID `json:"dispute_id"`
	AuthorUserID uuid.UUID `json:"author_user_id"`
	AuthorName   string    `json:"author_name"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
}

type DisputeDTO struct {
	ID               uuid.UUID            `json:"id"`
	VenueID          uuid.UUID            `json:"venue_id"`
	AdjustmentID     uuid.UUID            `json:"adjustment_id"`
	AdjustmentType   enums.AdjustmentType `json:"adjustment_type"`
	Status           enums.DisputeStatus  `json:"status"`
	CreatedByUserID  uuid.UUID            `json:"created_by_user_id"`
	CreatedByName    string               `json:"created_by_name"`
	ResolvedByUserID *uuid.UUID           `json:"resolved_by_user_id"`
	ResolvedAt       *time.Time           `json:"resolved_at"`
	CreatedAt        time.Time            `json:"created_at"`
	Comments         []DisputeCommentDTO  `json:"comments,omitempty"`
}

// adjustmentRow is an adjustment with the target member's display fields.
type adjustmentRow struct {
	models.Adjustment
	ShortName      *string `gorm:"column:member_short_name"`
	FullName       *string `gorm:"column:member_full_name"`
	TgUsername     *string `gorm:"column:member_tg_username"`
	HasOpenDispute bool    `gorm:"column:has_open_dispute"`
}

func (r adjustmentRow) toDTO() AdjustmentDTO {
	out := AdjustmentDTO{
		ID:              r.ID,
		VenueID:         r.VenueID,
		Type:            r.Type,
		MemberUserID:    r.MemberUserID,
		Date:            r.Date,
		Amount:          r.Amount,
		Reason:          r.Reason,
		CreatedByUserID: r.CreatedByUserID,
		CreatedAt:       r.CreatedAt,
		UpdatedByUserID: r.UpdatedByUserID,
		UpdatedAt:       r.UpdatedAt,
		HasOpenDispute:  r.HasOpenDispute,
	}
	if r.MemberUserID != nil {
		name := models.User{ShortName: r.ShortName, FullName: r.FullName, TgUsername: r.TgUsername}.DisplayName()
		out.MemberName = &name
	}
	return out
}

// disputeRow carries the parent adjustment fields the access checks and
// notification texts need.
type disputeRow struct {
	models.AdjustmentDispute
	AdjustmentType      enums.AdjustmentType `gorm:"column:adjustment_type"`
	AdjustmentMemberID  *uuid.UUID           `gorm:"column:adjustment_member_user_id"`
	AdjustmentCreatorID uuid.UUID            `gorm:"column:adjustment_created_by_user_id"`
	AdjustmentAmount    int64                `gorm:"column:adjustment_amount"`
	AdjustmentDate      calendar.Date        `gorm:"column:adjustment_date"`
	ShortName           *string              `gorm:"column:short_name"`
	FullName            *string              `gorm:"column:full_name"`
	TgUsername          *string              `gorm:"column:tg_username"`
}

func (r disputeRow) targets(userID uuid.UUID) bool {
	return r.AdjustmentMemberID != nil && *r.AdjustmentMemberID == userID
}

func (r disputeRow) toDTO() DisputeDTO {
	return DisputeDTO{
		ID:               r.ID,
		VenueID:          r.VenueID,
		AdjustmentID:     r.AdjustmentID,
		AdjustmentType:   r.AdjustmentType,
		Status:           r.Status,
		CreatedByUserID:  r.CreatedByUserID,
		CreatedByName:    models.User{ShortName: r.ShortName, FullName: r.FullName, TgUsername: r.TgUsername}.DisplayName(),
		ResolvedByUserID: r.ResolvedByUserID,
		ResolvedAt:       r.ResolvedAt,
		CreatedAt:        r.CreatedAt,
	}
}

type commentRow struct {
	models.AdjustmentDisputeComment
	ShortName  *string `gorm:"column:short_name"`
	FullName   *string `gorm:"column:full_name"`
	TgUsername *string `gorm:"column:tg_username"`
}

func (r commentRow) toDTO() DisputeCommentDTO {
	return DisputeCommentDTO{
		ID:           r.ID,
		DisputeID:    r.DisputeID,
		AuthorUserID: r.AuthorUserID,
		AuthorName:   models.User{ShortName: r.ShortName, FullName: r.FullName, TgUsername: r.TgUsername}.DisplayName(),
		Message:      r.Message,
		CreatedAt:    r.CreatedAt,
	}
}
