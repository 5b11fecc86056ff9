package positions

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/internal/access"
	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
)

const maxTitleLen = 100

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages the single position each member holds per venue.
type Service interface {
	List(ctx context.Context, grant *access.Grant) ([]PositionDTO, error)
	Create(ctx context.Context, grant *access.Grant, input CreatePositionInput) (*PositionDTO, error)
	Update(ctx context.Context, grant *access.Grant, positionID uuid.UUID, input UpdatePositionInput) (*PositionDTO, error)
	Delete(ctx context.Context, grant *access.Grant, positionID uuid.UUID) error
}

type service struct {
	tx   txRunner
	repo *Repository
}

func NewService(dbRunner txRunner, repo *Repository) (Service, error) {
	if dbRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("positions repository required")
	}
	return &service{tx: dbRunner, repo: repo}, nil
}

func (s *service) List(ctx context.Context, grant *access.Grant) ([]PositionDTO, error) {
	if err := access.Require(grant.ScheduleEditor(), "schedule editor required"); err != nil {
		return nil, err
	}
	items, err := s.repo.ListActive(ctx, grant.VenueID)
	if err != nil {
		return nil, db.MapError(err, "position")
	}
	return items, nil
}

// Create upserts by (venue, member): an existing row in any status is
// overwritten and reactivated instead of inserting a second one.
func (s *service) Create(ctx context.Context, grant *access.Grant, input CreatePositionInput) (*PositionDTO, error) {
	if err := access.Require(grant.OwnerOrSuperAdmin(), "owner or super admin required"); err != nil {
		return nil, err
	}
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if err := validatePay(input.Rate, input.Percent); err != nil {
		return nil, err
	}
	if input.MemberUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "member_user_id is required")
	}

	var out PositionDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.IsActiveMember(ctx, grant.VenueID, input.MemberUserID)
		if err != nil {
			return db.MapError(err, "member")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "member is not an active member of this venue")
		}

		position, err := repo.FindByMember(ctx, grant.VenueID, input.MemberUserID)
		if err != nil {
			return db.MapError(err, "position")
		}
		if position == nil {
			position = &models.VenuePosition{VenueID: grant.VenueID, MemberUserID: input.MemberUserID}
			fill(position, title, input)
			if err := repo.Create(ctx, position); err != nil {
				return db.MapError(err, "position")
			}
		} else {
			*position = models.VenuePosition{
				ID:           position.ID,
				VenueID:      position.VenueID,
				MemberUserID: position.MemberUserID,
				CreatedAt:    position.CreatedAt,
			}
			fill(position, title, input)
			if err := repo.Save(ctx, position); err != nil {
				return db.MapError(err, "position")
			}
		}
		out = FromModel(position)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func fill(position *models.VenuePosition, title string, input CreatePositionInput) {
	position.Title = title
	position.Rate = input.Rate
	position.Percent = input.Percent
	position.Status = enums.LifecycleActive
	input.Flags.apply(position)
}

func (s *service) Update(ctx context.Context, grant *access.Grant, positionID uuid.UUID, input UpdatePositionInput) (*PositionDTO, error) {
	if err := access.Require(grant.OwnerOrSuperAdmin(), "owner or super admin required"); err != nil {
		return nil, err
	}
	position, err := s.repo.FindActive(ctx, grant.VenueID, positionID)
	if err != nil {
		return nil, db.MapError(err, "position")
	}
	if input.Title != nil {
		title, err := validateTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		position.Title = title
	}
	if input.Rate != nil {
		position.Rate = *input.Rate
	}
	if input.Percent != nil {
		position.Percent = *input.Percent
	}
	if err := validatePay(position.Rate, position.Percent); err != nil {
		return nil, err
	}
	input.Flags.apply(position)
	if err := s.repo.Save(ctx, position); err != nil {
		return nil, db.MapError(err, "position")
	}
	out := FromModel(position)
	return &out, nil
}

func (s *service) Delete(ctx context.Context, grant *access.Grant, positionID uuid.UUID) error {
	if err := access.Require(grant.OwnerOrSuperAdmin(), "owner or super admin required"); err != nil {
		return err
	}
	position, err := s.repo.FindActive(ctx, grant.VenueID, positionID)
	if err != nil {
		return db.MapError(err, "position")
	}
	position.Status = enums.LifecycleDeleted
	if err := s.repo.Save(ctx, position); err != nil {
		return db.MapError(err, "position")
	}
	return nil
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "title must be at most %d characters", maxTitleLen)
	}
	return title, nil
}

func validatePay(rate int64, percent int) error {
	if rate < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rate must be >= 0")
	}
	if percent < 0 || percent > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "percent must be between 0 and 100")
	}
	return nil
}
