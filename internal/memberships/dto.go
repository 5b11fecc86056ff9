package memberships

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

// MemberDTO is one roster row; it never carries pay data.
type MemberDTO struct {
	UserID     uuid.UUID       `json:"user_id"`
	TgUserID   int64           `json:"tg_user_id"`
	TgUsername *string         `json:"tg_username"`
	FullName   *string         `json:"full_name"`
	ShortName  *string         `json:"short_name"`
	VenueRole  enums.VenueRole `json:"venue_role"`
	JoinedAt   time.Time       `json:"joined_at"`
}

type InviteDTO struct {
	ID         uuid.UUID       `json:"id"`
	TgUsername string          `json:"tg_username"`
	VenueRole  enums.VenueRole `json:"venue_role"`
	CreatedAt  time.Time       `json:"created_at"`
}

// MembersView is the owner-facing roster including pending invites.
type MembersView struct {
	Items          []MemberDTO `json:"items"`
	PendingInvites []InviteDTO `json:"pending_invites"`
}

// MyVenueDTO is one entry of GET /me/venues.
type MyVenueDTO struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	MyRole     enums.VenueRole `json:"my_role"`
	IsArchived bool            `json:"is_archived"`
}

const (
	ModeMemberAdded = "member_added"
	ModeInvited     = "invited"
)

// EnrollResult reports whether an invite landed on an existing user or was
// parked until that username logs in.
type EnrollResult struct {
	Mode   string     `json:"mode"`
	Member *MemberDTO `json:"member,omitempty"`
	Invite *InviteDTO `json:"invite,omitempty"`
}

type InviteInput struct {
	Username  string
	VenueRole enums.VenueRole
}

type memberRow struct {
	models.VenueMember
	TgUserID   int64   `gorm:"column:tg_user_id"`
	TgUsername *string `gorm:"column:tg_username"`
	FullName   *string `gorm:"column:full_name"`
	ShortName  *string `gorm:"column:short_name"`
}

func memberFromRow(row memberRow) MemberDTO {
	return MemberDTO{
		UserID:     row.UserID,
		TgUserID:   row.TgUserID,
		TgUsername: row.TgUsername,
		FullName:   row.FullName,
		ShortName:  row.ShortName,
		VenueRole:  row.VenueRole,
		JoinedAt:   row.CreatedAt,
	}
}

func memberFromModels(m *models.VenueMember, u *models.User) *MemberDTO {
	return &MemberDTO{
		UserID:     u.ID,
		TgUserID:   u.TgUserID,
		TgUsername: u.TgUsername,
		FullName:   u.FullName,
		ShortName:  u.ShortName,
		VenueRole:  m.VenueRole,
		JoinedAt:   m.CreatedAt,
	}
}

func inviteFromModel(i *models.VenueInvite) *InviteDTO {
	return &InviteDTO{
		ID:         i.ID,
		TgUsername: i.InvitedTgUsername,
		VenueRole:  i.VenueRole,
		CreatedAt:  i.CreatedAt,
	}
}

type myVenueRow struct {
	ID        uuid.UUID             `gorm:"column:id"`
	Name      string                `gorm:"column:name"`
	VenueRole enums.VenueRole       `gorm:"column:venue_role"`
	Status    enums.LifecycleStatus `gorm:"column:status"`
}
