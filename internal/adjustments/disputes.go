package adjustments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/internal/access"
	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
)

func (s *service) OpenDispute(ctx context.Context, grant *access.Grant, kind enums.AdjustmentType, adjustmentID uuid.UUID, message string) (*DisputeDTO, bool, error) {
	if err := access.Require(grant.IsMember(), memberRequired); err != nil {
		return nil, false, err
	}
	text, err := normalizeMessage(message)
	if err != nil {
		return nil, false, err
	}

	var (
		adj       *models.Adjustment
		disputeID uuid.UUID
		created   bool
	)
	attempt := func() error {
		created = false
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			found, err := repo.Find(ctx, grant.VenueID, adjustmentID)
			if err != nil {
				return err
			}
			if found.Type != kind {
				return gorm.ErrRecordNotFound
			}
			if !targets(found, grant.UserID) {
				return pkgerrors.New(pkgerrors.CodeForbidden, "only the adjusted member may open a dispute")
			}
			adj = found

			dispute, err := repo.OpenDispute(ctx, found.ID, nil)
			if err != nil {
				return err
			}
			if dispute == nil {
				dispute = &models.AdjustmentDispute{
					VenueID:         grant.VenueID,
					AdjustmentID:    found.ID,
					CreatedByUserID: grant.UserID,
					Status:          enums.DisputeStatusOpen,
				}
				if err := repo.CreateDispute(ctx, dispute); err != nil {
					return err
				}
				created = true
			}
			disputeID = dispute.ID
			return repo.CreateComment(ctx, &models.AdjustmentDisputeComment{
				DisputeID:    dispute.ID,
				AuthorUserID: grant.UserID,
				Message:      text,
			})
		})
	}
	err = attempt()
	if db.IsUniqueViolation(err, "") {
		// a concurrent open won the race; retry appends to its thread
		err = attempt()
	}
	if err != nil {
		return nil, false, db.MapError(err, "adjustment")
	}

	event := "dispute.commented"
	if created {
		event = "dispute.opened"
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"venue_id":      grant.VenueID.String(),
		"adjustment_id": adj.ID.String(),
		"dispute_id":    disputeID.String(),
	}), event)

	out, err := s.disputeWithComments(ctx, grant.VenueID, disputeID)
	if err != nil {
		return nil, false, err
	}
	s.fanOut(ctx, grant.UserID, disputeEvent{
		venueID:   grant.VenueID,
		kind:      adj.Type,
		amount:    adj.Amount,
		date:      adj.Date,
		creatorID: adj.CreatedByUserID,
		opened:    created,
		message:   text,
	})
	return out, created, nil
}

// AdjustmentDispute returns the adjustment's OPEN dispute, or its most recent
// one when all are closed.
func (s *service) AdjustmentDispute(ctx context.Context, grant *access.Grant, kind enums.AdjustmentType, adjustmentID uuid.UUID) (*DisputeDTO, error) {
	if err := access.Require(grant.IsMember(), memberRequired); err != nil {
		return nil, err
	}
	adj, err := s.repo.Find(ctx, grant.VenueID, adjustmentID)
	if err != nil {
		return nil, db.MapError(err, "adjustment")
	}
	if adj.Type != kind || (!targets(adj, grant.UserID) && !grant.AdjustmentViewer() && !grant.DisputeResolver()) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "adjustment not found")
	}
	rows, err := s.repo.ListDisputes(ctx, disputeQuery{VenueID: grant.VenueID, AdjustmentID: &adj.ID})
	if err != nil {
		return nil, db.MapError(err, "dispute")
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dispute not found")
	}
	pick := rows[0]
	for _, row := range rows {
		if row.Status == enums.DisputeStatusOpen {
			pick = row
			break
		}
	}
	return s.disputeWithComments(ctx, grant.VenueID, pick.ID)
}

func (s *service) ListDisputes(ctx context.Context, grant *access.Grant, status *enums.DisputeStatus) ([]DisputeDTO, error) {
	if err := access.Require(grant.IsMember(), memberRequired); err != nil {
		return nil, err
	}
	q := disputeQuery{VenueID: grant.VenueID, Status: status}
	if !grant.AdjustmentViewer() && !grant.DisputeResolver() {
		self := grant.UserID
		q.Participant = &self
	}
	rows, err := s.repo.ListDisputes(ctx, q)
	if err != nil {
		return nil, db.MapError(err, "dispute")
	}
	out := make([]DisputeDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDTO())
	}
	return out, nil
}

func (s *service) GetDispute(ctx context.Context, grant *access.Grant, disputeID uuid.UUID) (*DisputeDTO, error) {
	if err := access.Require(grant.IsMember(), memberRequired); err != nil {
		return nil, err
	}
	row, err := s.repo.FindDisputeRow(ctx, grant.VenueID, disputeID)
	if err != nil {
		return nil, db.MapError(err, "dispute")
	}
	if !canComment(grant, row) && !grant.DisputeResolver() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dispute not found")
	}
	return s.disputeWithComments(ctx, grant.VenueID, disputeID)
}

// SetDisputeStatus closes or reopens a dispute. Setting the current status
// again is a no-op.
func (s *service) SetDisputeStatus(ctx context.Context, grant *access.Grant, disputeID uuid.UUID, status enums.DisputeStatus) (*DisputeDTO, error) {
	if err := access.Require(grant.DisputeResolver(), resolverRequired); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be OPEN or CLOSED")
	}

	changed := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindDisputeRow(ctx, grant.VenueID, disputeID); err != nil {
			return err
		}
		dispute, err := repo.FindDispute(ctx, grant.VenueID, disputeID)
		if err != nil {
			return err
		}
		if dispute.Status == status {
			return nil
		}
		switch status {
		case enums.DisputeStatusClosed:
			now := s.now().UTC()
			resolver := grant.UserID
			dispute.ResolvedByUserID = &resolver
			dispute.ResolvedAt = &now
		case enums.DisputeStatusOpen:
			other, err := repo.OpenDispute(ctx, dispute.AdjustmentID, &dispute.ID)
			if err != nil {
				return err
			}
			if other != nil {
				return pkgerrors.New(pkgerrors.CodeConflict, "another dispute is already open for this adjustment")
			}
			dispute.ResolvedByUserID = nil
			dispute.ResolvedAt = nil
		}
		dispute.Status = status
		changed = true
		return repo.SaveDispute(ctx, dispute)
	})
	if err != nil {
		return nil, db.MapError(err, "dispute")
	}
	if changed {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"venue_id":   grant.VenueID.String(),
			"dispute_id": disputeID.String(),
			"status":     status.String(),
		}), "dispute.status_changed")
	}
	return s.disputeWithComments(ctx, grant.VenueID, disputeID)
}

func (s *service) AddComment(ctx context.Context, grant *access.Grant, disputeID uuid.UUID, message string) (*DisputeCommentDTO, error) {
	if err := access.Require(grant.IsMember(), memberRequired); err != nil {
		return nil, err
	}
	text, err := normalizeMessage(message)
	if err != nil {
		return nil, err
	}

	var (
		row     *disputeRow
		comment models.AdjustmentDisputeComment
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.FindDisputeRow(ctx, grant.VenueID, disputeID)
		if err != nil {
			return err
		}
		if !canComment(grant, found) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to comment on this dispute")
		}
		row = found
		comment = models.AdjustmentDisputeComment{
			DisputeID:    found.ID,
			AuthorUserID: grant.UserID,
			Message:      text,
		}
		return repo.CreateComment(ctx, &comment)
	})
	if err != nil {
		return nil, db.MapError(err, "dispute")
	}

	comments, err := s.repo.ListComments(ctx, disputeID)
	if err != nil {
		return nil, db.MapError(err, "dispute comment")
	}
	var out *DisputeCommentDTO
	for _, c := range comments {
		if c.ID == comment.ID {
			dto := c.toDTO()
			out = &dto
			break
		}
	}
	if out == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "comment not readable after insert")
	}

	event := disputeEvent{
		venueID:   grant.VenueID,
		kind:      row.AdjustmentType,
		amount:    row.AdjustmentAmount,
		date:      row.AdjustmentDate,
		creatorID: row.AdjustmentCreatorID,
		message:   text,
	}
	if row.AdjustmentMemberID != nil {
		event.targetID = row.AdjustmentMemberID
	}
	s.fanOut(ctx, grant.UserID, event)
	return out, nil
}

// canComment admits the dispute's creator, the adjusted member and
// adjustment viewers.
func canComment(grant *access.Grant, row *disputeRow) bool {
	return row.CreatedByUserID == grant.UserID || row.targets(grant.UserID) || grant.AdjustmentViewer()
}

func (s *service) disputeWithComments(ctx context.Context, venueID, disputeID uuid.UUID) (*DisputeDTO, error) {
	row, err := s.repo.FindDisputeRow(ctx, venueID, disputeID)
	if err != nil {
		return nil, db.MapError(err, "dispute")
	}
	comments, err := s.repo.ListComments(ctx, disputeID)
	if err != nil {
		return nil, db.MapError(err, "dispute comment")
	}
	out := row.toDTO()
	out.Comments = make([]DisputeCommentDTO, 0, len(comments))
	for _, c := range comments {
		out.Comments = append(out.Comments, c.toDTO())
	}
	return &out, nil
}
