package positions

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/internal/access"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

type PositionDTO struct {
	ID           uuid.UUID             `json:"id"`
	VenueID      uuid.UUID             `json:"venue_id"`
	MemberUserID uuid.UUID             `json:"member_user_id"`
	MemberName   string                `json:"member_name,omitempty"`
	Title        string                `json:"title"`
	Rate         int64                 `json:"rate"`
	Percent      int                   `json:"percent"`
	Flags        access.Flags          `json:"flags"`
	Status       enums.LifecycleStatus `json:"status"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// FlagsInput carries optional capability toggles; nil leaves a flag as is
// on update and false on create.
type FlagsInput struct {
	CanMakeReports       *bool
	CanViewReports       *bool
	CanViewRevenue       *bool
	CanEditSchedule      *bool
	CanViewAdjustments   *bool
	CanManageAdjustments *bool
	CanResolveDisputes   *bool
}

type CreatePositionInput struct {
	MemberUserID uuid.UUID
	Title        string
	Rate         int64
	Percent      int
	Flags        FlagsInput
}

type UpdatePositionInput struct {
	Title   *string
	Rate    *int64
	Percent *int
	Flags   FlagsInput
}

// FromModel reports stored flags with the make-reports implication applied.
func FromModel(p *models.VenuePosition) PositionDTO {
	return PositionDTO{
		ID:           p.ID,
		VenueID:      p.VenueID,
		MemberUserID: p.MemberUserID,
		Title:        p.Title,
		Rate:         p.Rate,
		Percent:      p.Percent,
		Flags:        access.FlagsFromPosition(p),
		Status:       p.Status,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (f FlagsInput) apply(p *models.VenuePosition) {
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.CanMakeReports, f.CanMakeReports)
	set(&p.CanViewReports, f.CanViewReports)
	set(&p.CanViewRevenue, f.CanViewRevenue)
	set(&p.CanEditSchedule, f.CanEditSchedule)
	set(&p.CanViewAdjustments, f.CanViewAdjustments)
	set(&p.CanManageAdjustments, f.CanManageAdjustments)
	set(&p.CanResolveDisputes, f.CanResolveDisputes)
}

type positionRow struct {
	models.VenuePosition
	ShortName  *string `gorm:"column:short_name"`
	FullName   *string `gorm:"column:full_name"`
	TgUsername *string `gorm:"column:tg_username"`
}

func (r positionRow) memberName() string {
	u := models.User{ShortName: r.ShortName, FullName: r.FullName, TgUsername: r.TgUsername}
	return u.DisplayName()
}
