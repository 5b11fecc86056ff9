package memberships

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

// Repository exposes membership and invite persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindMember returns the (venue, user) row in any status, or nil.
func (r *Repository) FindMember(ctx context.Context, venueID, userID uuid.UUID) (*models.VenueMember, error) {
	var member models.VenueMember
	err := r.db.WithContext(ctx).
		Where("venue_id = ? AND user_id = ?", venueID, userID).
		Take(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *Repository) ActiveMember(ctx context.Context, venueID, userID uuid.UUID) (*models.VenueMember, error) {
	member, err := r.FindMember(ctx, venueID, userID)
	if err != nil || member == nil || !member.Status.IsActive() {
		return nil, err
	}
	return member, nil
}

func (r *Repository) CreateMember(ctx context.Context, member *models.VenueMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// SaveMemberState writes role and status of an existing row.
func (r *Repository) SaveMemberState(ctx context.Context, member *models.VenueMember) error {
	return r.db.WithContext(ctx).
		Model(&models.VenueMember{}).
		Where("id = ?", member.ID).
		Updates(map[string]any{"venue_role": member.VenueRole, "status": member.Status}).Error
}

// CountActiveOwners counts active OWNER rows, optionally ignoring one user.
func (r *Repository) CountActiveOwners(ctx context.Context, venueID uuid.UUID, except *uuid.UUID) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&models.VenueMember{}).
		Scopes(models.Active("")).
		Where("venue_id = ? AND venue_role = ?", venueID, enums.VenueRoleOwner)
	if except != nil {
		q = q.Where("user_id <> ?", *except)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListActiveMembers returns the roster ordered owners first.
func (r *Repository) ListActiveMembers(ctx context.Context, venueID uuid.UUID) ([]MemberDTO, error) {
	var rows []memberRow
	err := r.db.WithContext(ctx).
		Model(&models.VenueMember{}).
		Select("venue_members.*, users.tg_user_id, users.tg_username, users.full_name, users.short_name").
		Joins("JOIN users ON users.id = venue_members.user_id").
		Scopes(models.Active("venue_members")).
		Where("venue_members.venue_id = ?", venueID).
		Order("venue_members.venue_role ASC, venue_members.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]MemberDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, memberFromRow(row))
	}
	return out, nil
}

// ActiveMemberIDs lists user ids of active members, optionally filtered by role.
func (r *Repository) ActiveMemberIDs(ctx context.Context, venueID uuid.UUID, roles ...enums.VenueRole) ([]uuid.UUID, error) {
	q := r.db.WithContext(ctx).
		Model(&models.VenueMember{}).
		Scopes(models.Active("")).
		Where("venue_id = ?", venueID)
	if len(roles) > 0 {
		q = q.Where("venue_role IN ?", roles)
	}
	var ids []uuid.UUID
	if err := q.Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ListUserVenues returns the venues the user actively belongs to.
func (r *Repository) ListUserVenues(ctx context.Context, userID uuid.UUID) ([]MyVenueDTO, error) {
	var rows []myVenueRow
	err := r.db.WithContext(ctx).
		Model(&models.VenueMember{}).
		Select("venues.id, venues.name, venues.status, venue_members.venue_role").
		Joins("JOIN venues ON venues.id = venue_members.venue_id").
		Scopes(models.Active("venue_members")).
		Where("venue_members.user_id = ?", userID).
		Order("venues.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]MyVenueDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, MyVenueDTO{
			ID:         row.ID,
			Name:       row.Name,
			MyRole:     row.VenueRole,
			IsArchived: row.Status == enums.LifecycleArchived,
		})
	}
	return out, nil
}

// DeleteFutureAssignments hard-deletes the member's assignments on shifts of
// this venue dated from onOrAfter.
func (r *Repository) DeleteFutureAssignments(ctx context.Context, venueID, userID uuid.UUID, onOrAfter calendar.Date) (int64, error) {
	shiftIDs := r.db.Model(&models.Shift{}).
		Select("id").
		Where("venue_id = ? AND date >= ?", venueID, onOrAfter)
	res := r.db.WithContext(ctx).
		Where("member_user_id = ? AND shift_id IN (?)", userID, shiftIDs).
		Delete(&models.ShiftAssignment{})
	return res.RowsAffected, res.Error
}

// DeletePosition hard-deletes the member's position. Historical assignments
// keep their snapshot and lose only the position link.
func (r *Repository) DeletePosition(ctx context.Context, venueID, userID uuid.UUID) error {
	var positionIDs []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.VenuePosition{}).
		Where("venue_id = ? AND member_user_id = ?", venueID, userID).
		Pluck("id", &positionIDs).Error; err != nil {
		return err
	}
	if len(positionIDs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ShiftAssignment{}).
		Where("venue_position_id IN ?", positionIDs).
		Update("venue_position_id", nil).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("id IN ?", positionIDs).
		Delete(&models.VenuePosition{}).Error
}

func (r *Repository) PendingInvite(ctx context.Context, venueID uuid.UUID, username string) (*models.VenueInvite, error) {
	var invite models.VenueInvite
	err := r.db.WithContext(ctx).
		Scopes(models.Active("")).
		Where("venue_id = ? AND invited_tg_username = ?", venueID, username).
		Take(&invite).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *Repository) FindInvite(ctx context.Context, venueID, inviteID uuid.UUID) (*models.VenueInvite, error) {
	var invite models.VenueInvite
	if err := r.db.WithContext(ctx).
		Where("venue_id = ? AND id = ?", venueID, inviteID).
		First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *Repository) CreateInvite(ctx context.Context, invite *models.VenueInvite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

func (r *Repository) UpdateInvite(ctx context.Context, inviteID uuid.UUID, values map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.VenueInvite{}).
		Where("id = ?", inviteID).
		Updates(values).Error
}

func (r *Repository) ListPendingInvites(ctx context.Context, venueID uuid.UUID) ([]InviteDTO, error) {
	var invites []models.VenueInvite
	if err := r.db.WithContext(ctx).
		Scopes(models.Active("")).
		Where("venue_id = ?", venueID).
		Order("created_at DESC").
		Find(&invites).Error; err != nil {
		return nil, err
	}
	out := make([]InviteDTO, 0, len(invites))
	for i := range invites {
		out = append(out, *inviteFromModel(&invites[i]))
	}
	return out, nil
}

// PendingInvitesFor returns every pending invite addressed to username.
func (r *Repository) PendingInvitesFor(ctx context.Context, username string) ([]models.VenueInvite, error) {
	var invites []models.VenueInvite
	err := r.db.WithContext(ctx).
		Scopes(models.Active("")).
		Where("invited_tg_username = ?", username).
		Order("created_at").
		Find(&invites).Error
	return invites, err
}
