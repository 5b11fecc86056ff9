package venues

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/internal/access"
	"github.com/angelmondragon/venueops-backend/internal/memberships"
	"github.com/angelmondragon/venueops-backend/internal/users"
	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

const maxNameLen = 200

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type enroller interface {
	EnrollTx(ctx context.Context, tx *gorm.DB, venueID, actorID uuid.UUID, input memberships.InviteInput) (*memberships.EnrollResult, error)
}

type blobDeleter interface {
	Delete(ctx context.Context, key string) error
}

// Service covers the venue lifecycle.
type Service interface {
	Create(ctx context.Context, caller access.Caller, input CreateVenueInput) (*CreatedVenueDTO, error)
	List(ctx context.Context, caller access.Caller, includeArchived bool) ([]VenueDTO, error)
	Get(ctx context.Context, grant *access.Grant) (*VenueDTO, error)
	Rename(ctx context.Context, grant *access.Grant, name string) (*VenueDTO, error)
	Archive(ctx context.Context, grant *access.Grant) (*VenueDTO, error)
	Unarchive(ctx context.Context, grant *access.Grant) (*VenueDTO, error)
	Delete(ctx context.Context, grant *access.Grant) error
}

type service struct {
	tx       txRunner
	repo     *Repository
	enroller enroller
	blobs    blobDeleter
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(dbRunner txRunner, repo *Repository, enroller enroller, blobs blobDeleter, logg *logger.Logger) (Service, error) {
	if dbRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("venues repository required")
	}
	if enroller == nil {
		return nil, fmt.Errorf("membership enroller required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("blob store required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{tx: dbRunner, repo: repo, enroller: enroller, blobs: blobs, logg: logg, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, caller access.Caller, input CreateVenueInput) (*CreatedVenueDTO, error) {
	if err := access.Require(caller.IsSuperAdmin(), "super admin required"); err != nil {
		return nil, err
	}
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}

	out := &CreatedVenueDTO{Owners: []memberships.EnrollResult{}}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		venue := &models.Venue{Name: name}
		if err := s.repo.WithTx(tx).Create(ctx, venue); err != nil {
			return db.MapError(err, "venue")
		}
		out.VenueDTO = FromModel(venue)
		for _, username := range dedupe(input.OwnerUsernames) {
			res, err := s.enroller.EnrollTx(ctx, tx, venue.ID, caller.UserID, memberships.InviteInput{
				Username:  username,
				VenueRole: enums.VenueRoleOwner,
			})
			if err != nil {
				return err
			}
			out.Owners = append(out.Owners, *res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithVenueID(ctx, out.ID.String()), "venue.created")
	return out, nil
}

func (s *service) List(ctx context.Context, caller access.Caller, includeArchived bool) ([]VenueDTO, error) {
	var (
		rows []models.Venue
		err  error
	)
	if caller.IsElevated() {
		rows, err = s.repo.ListAll(ctx, includeArchived)
	} else {
		rows, err = s.repo.ListForMember(ctx, caller.UserID, includeArchived)
	}
	if err != nil {
		return nil, db.MapError(err, "venue")
	}
	out := make([]VenueDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, grant *access.Grant) (*VenueDTO, error) {
	if err := access.Require(grant.IsMember(), "venue membership required"); err != nil {
		return nil, err
	}
	return s.load(ctx, grant)
}

func (s *service) load(ctx context.Context, grant *access.Grant) (*VenueDTO, error) {
	venue, err := s.repo.FindByID(ctx, grant.VenueID)
	if err != nil {
		return nil, db.MapError(err, "venue")
	}
	dto := FromModel(venue)
	return &dto, nil
}

func (s *service) Rename(ctx context.Context, grant *access.Grant, name string) (*VenueDTO, error) {
	if err := access.Require(grant.OwnerOrSuperAdmin(), "owner or super admin required"); err != nil {
		return nil, err
	}
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, grant.VenueID, map[string]any{"name": name}); err != nil {
		return nil, db.MapError(err, "venue")
	}
	return s.load(ctx, grant)
}

func (s *service) Archive(ctx context.Context, grant *access.Grant) (*VenueDTO, error) {
	if err := access.Require(grant.OwnerOrSuperAdmin(), "owner or super admin required"); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := s.repo.Update(ctx, grant.VenueID, map[string]any{
		"status":      enums.LifecycleArchived,
		"archived_at": now,
	}); err != nil {
		return nil, db.MapError(err, "venue")
	}
	return s.load(ctx, grant)
}

func (s *service) Unarchive(ctx context.Context, grant *access.Grant) (*VenueDTO, error) {
	if err := access.Require(grant.OwnerOrSuperAdmin(), "owner or super admin required"); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, grant.VenueID, map[string]any{
		"status":      enums.LifecycleActive,
		"archived_at": nil,
	}); err != nil {
		return nil, db.MapError(err, "venue")
	}
	return s.load(ctx, grant)
}

// Delete removes an archived venue and all of its rows in one transaction,
// then best-effort removes attachment files.
func (s *service) Delete(ctx context.Context, grant *access.Grant) error {
	if err := access.Require(grant.IsSuperAdmin(), "super admin required"); err != nil {
		return err
	}
	var (
		keys   []string
		counts map[string]int64
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		venue, err := repo.FindByID(ctx, grant.VenueID)
		if err != nil {
			return db.MapError(err, "venue")
		}
		if !venue.IsArchived() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "venue must be archived before delete")
		}
		keys, err = repo.AttachmentKeys(ctx, venue.ID)
		if err != nil {
			return db.MapError(err, "attachment")
		}
		counts, err = repo.DeleteCascade(ctx, venue.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete venue")
		}
		return nil
	})
	if err != nil {
		return err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"venue_id": grant.VenueID.String(), "rows": counts})
	var fileErrs error
	for _, key := range keys {
		fileErrs = multierr.Append(fileErrs, s.blobs.Delete(ctx, key))
	}
	if fileErrs != nil {
		s.logg.Error(logCtx, "venue.delete.files_failed", fileErrs)
	}
	s.logg.Info(logCtx, "venue.deleted")
	return nil
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "name must be at most %d characters", maxNameLen)
	}
	return name, nil
}

// dedupe normalizes handles, dropping blanks and repeats while keeping order.
func dedupe(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, value := range raw {
		name := users.NormalizeUsername(value)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
