package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
)

type codeSource interface {
	ActiveCodes(ctx context.Context) ([]string, error)
	GrantedCodes(ctx context.Context, role enums.MatrixRole) ([]string, error)
}

// Resolver computes a Grant for (user, venue).
type Resolver struct {
	db    *gorm.DB
	codes codeSource
}

func NewResolver(conn *gorm.DB, codes codeSource) (*Resolver, error) {
	if conn == nil {
		return nil, fmt.Errorf("db required")
	}
	if codes == nil {
		return nil, fmt.Errorf("permission code source required")
	}
	return &Resolver{db: conn, codes: codes}, nil
}

// Resolve applies, first match wins: super admin, moderator, non-member,
// member. The venue must exist (archived venues resolve normally).
func (r *Resolver) Resolve(ctx context.Context, userID, venueID uuid.UUID) (*Grant, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user not found")
		}
		return nil, db.MapError(err, "user")
	}

	var venueCount int64
	if err := r.db.WithContext(ctx).Model(&models.Venue{}).Where("id = ?", venueID).Count(&venueCount).Error; err != nil {
		return nil, db.MapError(err, "venue")
	}
	if venueCount == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "venue not found")
	}

	grant := &Grant{UserID: userID, VenueID: venueID, SystemRole: user.SystemRole}

	switch user.SystemRole {
	case enums.SystemRoleSuperAdmin:
		codes, err := r.codes.ActiveCodes(ctx)
		if err != nil {
			return nil, err
		}
		grant.Permissions = codes
		grant.Flags = allFlags()
		r.attachMembership(ctx, grant)
		return grant, nil
	case enums.SystemRoleModerator:
		codes, err := r.codes.GrantedCodes(ctx, enums.MatrixRoleModerator)
		if err != nil {
			return nil, err
		}
		grant.Permissions = codes
		grant.Flags = allFlags()
		r.attachMembership(ctx, grant)
		return grant, nil
	}

	member, err := r.activeMember(ctx, venueID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		grant.Permissions = []string{}
		return grant, nil
	}
	role := member.VenueRole
	grant.VenueRole = &role

	grant.Permissions = []string{}
	if matrixRole, ok := enums.MatrixRoleForVenueRole(role); ok {
		codes, err := r.codes.GrantedCodes(ctx, matrixRole)
		if err != nil {
			return nil, err
		}
		grant.Permissions = codes
	}

	position, err := r.activePosition(ctx, venueID, userID)
	if err != nil {
		return nil, err
	}
	grant.Position = position
	grant.Flags = FlagsFromPosition(position)
	return grant, nil
}

// attachMembership records venue role and position for system roles that
// also happen to be members; their flags stay all-true.
func (r *Resolver) attachMembership(ctx context.Context, grant *Grant) {
	member, err := r.activeMember(ctx, grant.VenueID, grant.UserID)
	if err != nil || member == nil {
		return
	}
	role := member.VenueRole
	grant.VenueRole = &role
	if position, err := r.activePosition(ctx, grant.VenueID, grant.UserID); err == nil {
		grant.Position = position
	}
}

func (r *Resolver) activeMember(ctx context.Context, venueID, userID uuid.UUID) (*models.VenueMember, error) {
	var member models.VenueMember
	err := r.db.WithContext(ctx).
		Scopes(models.Active("")).
		Where("venue_id = ? AND user_id = ?", venueID, userID).
		Take(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, db.MapError(err, "membership")
	}
	return &member, nil
}

func (r *Resolver) activePosition(ctx context.Context, venueID, userID uuid.UUID) (*models.VenuePosition, error) {
	var position models.VenuePosition
	err := r.db.WithContext(ctx).
		Scopes(models.Active("")).
		Where("venue_id = ? AND member_user_id = ?", venueID, userID).
		Take(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, db.MapError(err, "position")
	}
	return &position, nil
}
