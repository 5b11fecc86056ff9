package adjustments

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/internal/access"
	"github.com/angelmondragon/venueops-backend/internal/notify"
	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

const (
	maxReasonLen  = 500
	maxMessageLen = 2000

	managerRequired  = "adjustment manager required"
	memberRequired   = "venue membership required"
	resolverRequired = "dispute resolver required"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages penalties, bonuses and writeoffs together with their
// dispute threads.
type Service interface {
	List(ctx context.Context, grant *access.Grant, filter ListFilter) ([]AdjustmentDTO, error)
	Get(ctx context.Context, grant *access.Grant, id uuid.UUID) (*AdjustmentDTO, error)
	Create(ctx context.Context, grant *access.Grant, input CreateInput) (*AdjustmentDTO, error)
	Update(ctx context.Context, grant *access.Grant, id uuid.UUID, input UpdateInput) (*AdjustmentDTO, error)
	Delete(ctx context.Context, grant *access.Grant, id uuid.UUID) error

	// OpenDispute appends to the OPEN thread when one exists; created
	// reports whether a new dispute row was inserted.
	OpenDispute(ctx context.Context, grant *access.Grant, kind enums.AdjustmentType, adjustmentID uuid.UUID, message string) (*DisputeDTO, bool, error)
	AdjustmentDispute(ctx context.Context, grant *access.Grant, kind enums.AdjustmentType, adjustmentID uuid.UUID) (*DisputeDTO, error)
	ListDisputes(ctx context.Context, grant *access.Grant, status *enums.DisputeStatus) ([]DisputeDTO, error)
	GetDispute(ctx context.Context, grant *access.Grant, disputeID uuid.UUID) (*DisputeDTO, error)
	SetDisputeStatus(ctx context.Context, grant *access.Grant, disputeID uuid.UUID, status enums.DisputeStatus) (*DisputeDTO, error)
	AddComment(ctx context.Context, grant *access.Grant, disputeID uuid.UUID, message string) (*DisputeCommentDTO, error)
}

type service struct {
	tx       txRunner
	repo     *Repository
	notifier notify.Notifier
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(dbRunner txRunner, repo *Repository, notifier notify.Notifier, logg *logger.Logger) (Service, error) {
	if dbRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("adjustments repository required")
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{tx: dbRunner, repo: repo, notifier: notifier, logg: logg, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, grant *access.Grant, filter ListFilter) ([]AdjustmentDTO, error) {
	if err := access.Require(grant.IsMember(), memberRequired); err != nil {
		return nil, err
	}
	q := listQuery{
		VenueID: grant.VenueID,
		From:    filter.Month.First(),
		To:      filter.Month.Last(),
		Type:    filter.Type,
	}
	if filter.Mine || !grant.AdjustmentViewer() {
		self := grant.UserID
		q.MemberID = &self
	}
	rows, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, db.MapError(err, "adjustment")
	}
	out := make([]AdjustmentDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDTO())
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, grant *access.Grant, id uuid.UUID) (*AdjustmentDTO, error) {
	if err := access.Require(grant.IsMember(), memberRequired); err != nil {
		return nil, err
	}
	row, err := s.repo.FindRow(ctx, grant.VenueID, id)
	if err != nil {
		return nil, db.MapError(err, "adjustment")
	}
	if !grant.AdjustmentViewer() && !targets(&row.Adjustment, grant.UserID) {
		// others' adjustments are invisible, not forbidden
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "adjustment not found")
	}
	out := row.toDTO()
	return &out, nil
}

func (s *service) Create(ctx context.Context, grant *access.Grant, input CreateInput) (*AdjustmentDTO, error) {
	if err := access.Require(grant.AdjustmentManager(), managerRequired); err != nil {
		return nil, err
	}
	adj := models.Adjustment{
		VenueID:         grant.VenueID,
		Type:            input.Type,
		MemberUserID:    input.MemberUserID,
		Date:            input.Date,
		Amount:          input.Amount,
		Status:          enums.LifecycleActive,
		CreatedByUserID: grant.UserID,
	}
	reason, err := normalizeReason(input.Reason)
	if err != nil {
		return nil, err
	}
	adj.Reason = reason
	if err := validateAdjustment(&adj); err != nil {
		return nil, err
	}

	var row *adjustmentRow
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := ensureMember(ctx, repo, grant.VenueID, adj.MemberUserID); err != nil {
			return err
		}
		if err := repo.Create(ctx, &adj); err != nil {
			return err
		}
		var err error
		row, err = repo.FindRow(ctx, grant.VenueID, adj.ID)
		return err
	})
	if err != nil {
		return nil, db.MapError(err, "adjustment")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"venue_id":      grant.VenueID.String(),
		"adjustment_id": adj.ID.String(),
		"type":          adj.Type.String(),
		"amount":        adj.Amount,
	}), "adjustment.created")

	if adj.MemberUserID != nil && *adj.MemberUserID != grant.UserID {
		s.deliver(ctx, []uuid.UUID{*adj.MemberUserID}, s.adjustmentText(ctx, &adj))
	}

	out := row.toDTO()
	return &out, nil
}

func (s *service) Update(ctx context.Context, grant *access.Grant, id uuid.UUID, input UpdateInput) (*AdjustmentDTO, error) {
	if err := access.Require(grant.AdjustmentManager(), managerRequired); err != nil {
		return nil, err
	}
	var row *adjustmentRow
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		adj, err := repo.Find(ctx, grant.VenueID, id)
		if err != nil {
			return err
		}
		memberChanged := false
		if input.Type != nil {
			adj.Type = *input.Type
		}
		if input.ClearMember {
			adj.MemberUserID = nil
		} else if input.MemberUserID != nil {
			memberChanged = adj.MemberUserID == nil || *adj.MemberUserID != *input.MemberUserID
			member := *input.MemberUserID
			adj.MemberUserID = &member
		}
		if input.Date != nil {
			adj.Date = *input.Date
		}
		if input.Amount != nil {
			adj.Amount = *input.Amount
		}
		if input.Reason != nil {
			reason, err := normalizeReason(input.Reason)
			if err != nil {
				return err
			}
			adj.Reason = reason
		}
		if err := validateAdjustment(adj); err != nil {
			return err
		}
		if memberChanged {
			if err := ensureMember(ctx, repo, grant.VenueID, adj.MemberUserID); err != nil {
				return err
			}
		}

		now := s.now().UTC()
		updater := grant.UserID
		adj.UpdatedByUserID = &updater
		adj.UpdatedAt = &now
		if err := repo.Save(ctx, adj); err != nil {
			return err
		}
		row, err = repo.FindRow(ctx, grant.VenueID, adj.ID)
		return err
	})
	if err != nil {
		return nil, db.MapError(err, "adjustment")
	}
	out := row.toDTO()
	return &out, nil
}

func (s *service) Delete(ctx context.Context, grant *access.Grant, id uuid.UUID) error {
	if err := access.Require(grant.AdjustmentManager(), managerRequired); err != nil {
		return err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		adj, err := repo.Find(ctx, grant.VenueID, id)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		updater := grant.UserID
		adj.Status = enums.LifecycleDeleted
		adj.UpdatedByUserID = &updater
		adj.UpdatedAt = &now
		return repo.Save(ctx, adj)
	})
	if err != nil {
		return db.MapError(err, "adjustment")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"venue_id":      grant.VenueID.String(),
		"adjustment_id": id.String(),
	}), "adjustment.deleted")
	return nil
}

func validateAdjustment(adj *models.Adjustment) error {
	if !adj.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "type must be one of penalty, writeoff, bonus")
	}
	if adj.MemberUserID != nil && *adj.MemberUserID == uuid.Nil {
		adj.MemberUserID = nil
	}
	if adj.MemberUserID == nil && !adj.Type.AllowsVenueLevel() {
		return pkgerrors.New(pkgerrors.CodeValidation, "member_user_id is required unless type is writeoff")
	}
	if adj.Date.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "date is required")
	}
	if adj.Amount < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be non-negative")
	}
	return nil
}

func normalizeReason(reason *string) (*string, error) {
	if reason == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*reason)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > maxReasonLen {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "reason must be at most %d characters", maxReasonLen)
	}
	return &trimmed, nil
}

func ensureMember(ctx context.Context, repo *Repository, venueID uuid.UUID, memberID *uuid.UUID) error {
	if memberID == nil {
		return nil
	}
	ok, err := repo.IsActiveMember(ctx, venueID, *memberID)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "member is not an active member of this venue")
	}
	return nil
}

func targets(adj *models.Adjustment, userID uuid.UUID) bool {
	return adj.MemberUserID != nil && *adj.MemberUserID == userID
}

func normalizeMessage(message string) (string, error) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}
	if utf8.RuneCountInString(trimmed) > maxMessageLen {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "message must be at most %d characters", maxMessageLen)
	}
	return trimmed, nil
}
