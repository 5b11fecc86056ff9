package memberships

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/internal/access"
	"github.com/angelmondragon/venueops-backend/internal/users"
	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

const lastOwnerMessage = "venue must keep at least one owner"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes venue membership and invite operations. Callers pass the
// resolved grant for the venue; the service enforces the gates.
type Service interface {
	ListMembers(ctx context.Context, grant *access.Grant) (*MembersView, error)
	Roster(ctx context.Context, grant *access.Grant) ([]MemberDTO, error)
	MyVenues(ctx context.Context, userID uuid.UUID) ([]MyVenueDTO, error)
	ChangeRole(ctx context.Context, grant *access.Grant, targetUserID uuid.UUID, role enums.VenueRole) (*MemberDTO, error)
	Remove(ctx context.Context, grant *access.Grant, targetUserID uuid.UUID) error
	Leave(ctx context.Context, grant *access.Grant) error
	Invite(ctx context.Context, grant *access.Grant, input InviteInput) (*EnrollResult, error)
	CancelInvite(ctx context.Context, grant *access.Grant, inviteID uuid.UUID) error
	AcceptPendingInvites(ctx context.Context, userID uuid.UUID, username string) (int, error)
	EnrollTx(ctx context.Context, tx *gorm.DB, venueID, actorID uuid.UUID, input InviteInput) (*EnrollResult, error)
}

type service struct {
	tx   txRunner
	repo *Repository
	loc  *time.Location
	now  func() time.Time
	logg *logger.Logger
}

// NewService wires the membership service. loc decides what "today" means
// when pruning a departing member's future assignments.
func NewService(dbRunner txRunner, repo *Repository, loc *time.Location, logg *logger.Logger) (Service, error) {
	if dbRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("memberships repository required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{tx: dbRunner, repo: repo, loc: loc, now: time.Now, logg: logg}, nil
}

func (s *service) ListMembers(ctx context.Context, grant *access.Grant) (*MembersView, error) {
	if err := access.Require(grant.OwnerOrSuperAdmin(), "owner or super admin required"); err != nil {
		return nil, err
	}
	members, err := s.repo.ListActiveMembers(ctx, grant.VenueID)
	if err != nil {
		return nil, db.MapError(err, "member")
	}
	invites, err := s.repo.ListPendingInvites(ctx, grant.VenueID)
	if err != nil {
		return nil, db.MapError(err, "invite")
	}
	return &MembersView{Items: members, PendingInvites: invites}, nil
}

func (s *service) Roster(ctx context.Context, grant *access.Grant) ([]MemberDTO, error) {
	if err := access.Require(grant.IsMember(), "venue membership required"); err != nil {
		return nil, err
	}
	members, err := s.repo.ListActiveMembers(ctx, grant.VenueID)
	if err != nil {
		return nil, db.MapError(err, "member")
	}
	return members, nil
}

func (s *service) MyVenues(ctx context.Context, userID uuid.UUID) ([]MyVenueDTO, error) {
	venues, err := s.repo.ListUserVenues(ctx, userID)
	if err != nil {
		return nil, db.MapError(err, "venue")
	}
	return venues, nil
}

func (s *service) ChangeRole(ctx context.Context, grant *access.Grant, targetUserID uuid.UUID, role enums.VenueRole) (*MemberDTO, error) {
	if err := access.Require(grant.OwnerOrSuperAdmin(), "owner or super admin required"); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid venue role %q", role)
	}

	var out *MemberDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		member, err := repo.ActiveMember(ctx, grant.VenueID, targetUserID)
		if err != nil {
			return db.MapError(err, "member")
		}
		if member == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		if member.VenueRole == enums.VenueRoleOwner && role != enums.VenueRoleOwner {
			if err := ensureOtherOwner(ctx, repo, grant.VenueID, targetUserID); err != nil {
				return err
			}
		}
		member.VenueRole = role
		if err := repo.SaveMemberState(ctx, member); err != nil {
			return db.MapError(err, "member")
		}
		var user models.User
		if err := tx.WithContext(ctx).First(&user, "id = ?", targetUserID).Error; err != nil {
			return db.MapError(err, "user")
		}
		out = memberFromModels(member, &user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Remove(ctx context.Context, grant *access.Grant, targetUserID uuid.UUID) error {
	if err := access.Require(grant.OwnerOrSuperAdmin(), "owner or super admin required"); err != nil {
		return err
	}
	return s.detach(ctx, grant.VenueID, targetUserID, "member.removed")
}

func (s *service) Leave(ctx context.Context, grant *access.Grant) error {
	if grant.VenueRole == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
	}
	return s.detach(ctx, grant.VenueID, grant.UserID, "member.left")
}

// detach soft-deletes the membership after pruning future assignments and
// the position, all in one transaction.
func (s *service) detach(ctx context.Context, venueID, userID uuid.UUID, event string) error {
	today := calendar.DateOf(s.now(), s.loc)
	var pruned int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		member, err := repo.ActiveMember(ctx, venueID, userID)
		if err != nil {
			return db.MapError(err, "member")
		}
		if member == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		if member.VenueRole == enums.VenueRoleOwner {
			if err := ensureOtherOwner(ctx, repo, venueID, userID); err != nil {
				return err
			}
		}
		pruned, err = repo.DeleteFutureAssignments(ctx, venueID, userID, today)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete future assignments")
		}
		if err := repo.DeletePosition(ctx, venueID, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete position")
		}
		member.Status = enums.LifecycleDeleted
		if err := repo.SaveMemberState(ctx, member); err != nil {
			return db.MapError(err, "member")
		}
		return nil
	})
	if err != nil {
		return err
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"venue_id":            venueID.String(),
		"user_id":             userID.String(),
		"assignments_removed": pruned,
	})
	s.logg.Info(logCtx, event)
	return nil
}

func (s *service) Invite(ctx context.Context, grant *access.Grant, input InviteInput) (*EnrollResult, error) {
	if err := access.Require(grant.OwnerOrSuperAdmin(), "owner or super admin required"); err != nil {
		return nil, err
	}
	var out *EnrollResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		out, err = s.EnrollTx(ctx, tx, grant.VenueID, grant.UserID, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EnrollTx adds an existing user directly or parks a pending invite for an
// unknown username. It runs on the caller's transaction.
func (s *service) EnrollTx(ctx context.Context, tx *gorm.DB, venueID, actorID uuid.UUID, input InviteInput) (*EnrollResult, error) {
	username := users.NormalizeUsername(input.Username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	role := input.VenueRole
	if role == "" {
		role = enums.VenueRoleStaff
	}
	if !role.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid venue role %q", role)
	}
	repo := s.repo.WithTx(tx)

	user, err := users.NewRepository(tx).FindByUsername(ctx, username)
	if err != nil {
		return nil, db.MapError(err, "user")
	}
	if user != nil {
		member, err := s.upsertMember(ctx, repo, venueID, user.ID, role)
		if err != nil {
			return nil, err
		}
		return &EnrollResult{Mode: ModeMemberAdded, Member: memberFromModels(member, user)}, nil
	}

	invite, err := repo.PendingInvite(ctx, venueID, username)
	if err != nil {
		return nil, db.MapError(err, "invite")
	}
	if invite != nil {
		if invite.VenueRole != role {
			if err := repo.UpdateInvite(ctx, invite.ID, map[string]any{"venue_role": role}); err != nil {
				return nil, db.MapError(err, "invite")
			}
			invite.VenueRole = role
		}
		return &EnrollResult{Mode: ModeInvited, Invite: inviteFromModel(invite)}, nil
	}
	invite = &models.VenueInvite{
		VenueID:           venueID,
		InvitedTgUsername: username,
		VenueRole:         role,
		CreatedByUserID:   actorID,
	}
	if err := repo.CreateInvite(ctx, invite); err != nil {
		return nil, db.MapError(err, "invite")
	}
	return &EnrollResult{Mode: ModeInvited, Invite: inviteFromModel(invite)}, nil
}

// upsertMember creates or reactivates the membership. Demoting the last
// owner through an invite is rejected like any other demotion.
func (s *service) upsertMember(ctx context.Context, repo *Repository, venueID, userID uuid.UUID, role enums.VenueRole) (*models.VenueMember, error) {
	member, err := repo.FindMember(ctx, venueID, userID)
	if err != nil {
		return nil, db.MapError(err, "member")
	}
	if member == nil {
		member = &models.VenueMember{VenueID: venueID, UserID: userID, VenueRole: role}
		if err := repo.CreateMember(ctx, member); err != nil {
			return nil, db.MapError(err, "member")
		}
		return member, nil
	}
	if member.Status.IsActive() && member.VenueRole == enums.VenueRoleOwner && role != enums.VenueRoleOwner {
		if err := ensureOtherOwner(ctx, repo, venueID, userID); err != nil {
			return nil, err
		}
	}
	member.VenueRole = role
	member.Status = enums.LifecycleActive
	if err := repo.SaveMemberState(ctx, member); err != nil {
		return nil, db.MapError(err, "member")
	}
	return member, nil
}

func (s *service) CancelInvite(ctx context.Context, grant *access.Grant, inviteID uuid.UUID) error {
	if err := access.Require(grant.OwnerOrSuperAdmin(), "owner or super admin required"); err != nil {
		return err
	}
	invite, err := s.repo.FindInvite(ctx, grant.VenueID, inviteID)
	if err != nil {
		return db.MapError(err, "invite")
	}
	if !invite.Status.IsActive() {
		return nil
	}
	if err := s.repo.UpdateInvite(ctx, invite.ID, map[string]any{"status": enums.LifecycleDeleted}); err != nil {
		return db.MapError(err, "invite")
	}
	return nil
}

// AcceptPendingInvites turns every pending invite for username into a
// membership. An active owner is never downgraded by a STAFF invite.
func (s *service) AcceptPendingInvites(ctx context.Context, userID uuid.UUID, username string) (int, error) {
	username = users.NormalizeUsername(username)
	if username == "" {
		return 0, nil
	}
	accepted := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invites, err := repo.PendingInvitesFor(ctx, username)
		if err != nil {
			return db.MapError(err, "invite")
		}
		now := s.now().UTC()
		for _, invite := range invites {
			role := invite.VenueRole
			existing, err := repo.ActiveMember(ctx, invite.VenueID, userID)
			if err != nil {
				return db.MapError(err, "member")
			}
			if existing != nil && existing.VenueRole == enums.VenueRoleOwner {
				role = enums.VenueRoleOwner
			}
			if _, err := s.upsertMember(ctx, repo, invite.VenueID, userID, role); err != nil {
				return err
			}
			if err := repo.UpdateInvite(ctx, invite.ID, map[string]any{
				"status":           enums.LifecycleDeleted,
				"accepted_user_id": userID,
				"accepted_at":      now,
			}); err != nil {
				return db.MapError(err, "invite")
			}
			accepted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if accepted > 0 {
		s.logg.Info(s.logg.WithField(ctx, "accepted", accepted), "invites.accepted")
	}
	return accepted, nil
}

func ensureOtherOwner(ctx context.Context, repo *Repository, venueID, userID uuid.UUID) error {
	others, err := repo.CountActiveOwners(ctx, venueID, &userID)
	if err != nil {
		return db.MapError(err, "member")
	}
	if others == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, lastOwnerMessage)
	}
	return nil
}
