package scheduling

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/internal/access"
	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

const (
	maxIntervalTitleLen = 100
	maxCommentLen       = 2000

	scheduleEditorRequired = "schedule editor required"
	memberRequired         = "venue membership required"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service covers shift intervals, shifts, assignments and shift comments.
// Reads need membership; writes need a schedule editor.
type Service interface {
	ListIntervals(ctx context.Context, grant *access.Grant) ([]IntervalDTO, error)
	CreateInterval(ctx context.Context, grant *access.Grant, input IntervalInput) (*IntervalDTO, error)
	UpdateInterval(ctx context.Context, grant *access.Grant, intervalID uuid.UUID, input UpdateIntervalInput) (*IntervalDTO, error)
	DeleteInterval(ctx context.Context, grant *access.Grant, intervalID uuid.UUID) error

	ListShifts(ctx context.Context, grant *access.Grant, month calendar.Month) ([]ShiftDTO, error)
	CreateShift(ctx context.Context, grant *access.Grant, input CreateShiftInput) (*ShiftDTO, error)
	UpdateShift(ctx context.Context, grant *access.Grant, shiftID uuid.UUID, input UpdateShiftInput) (*ShiftDTO, error)
	DeleteShift(ctx context.Context, grant *access.Grant, shiftID uuid.UUID) error

	// Assign returns created=false when the member was already on the shift.
	Assign(ctx context.Context, grant *access.Grant, shiftID, memberUserID uuid.UUID) (*AssignmentDTO, bool, error)
	Unassign(ctx context.Context, grant *access.Grant, shiftID, memberUserID uuid.UUID) error

	ListComments(ctx context.Context, grant *access.Grant, shiftID uuid.UUID) ([]CommentDTO, error)
	AddComment(ctx context.Context, grant *access.Grant, shiftID uuid.UUID, text string) (*CommentDTO, error)
}

type service struct {
	tx   txRunner
	repo *Repository
	logg *logger.Logger
}

func NewService(dbRunner txRunner, repo *Repository, logg *logger.Logger) (Service, error) {
	if dbRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("scheduling repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{tx: dbRunner, repo: repo, logg: logg}, nil
}

func (s *service) ListIntervals(ctx context.Context, grant *access.Grant) ([]IntervalDTO, error) {
	if err := access.Require(grant.IsMember(), memberRequired); err != nil {
		return nil, err
	}
	intervals, err := s.repo.ListIntervals(ctx, grant.VenueID)
	if err != nil {
		return nil, db.MapError(err, "shift interval")
	}
	out := make([]IntervalDTO, 0, len(intervals))
	for i := range intervals {
		out = append(out, intervalFromModel(&intervals[i]))
	}
	return out, nil
}

func (s *service) CreateInterval(ctx context.Context, grant *access.Grant, input IntervalInput) (*IntervalDTO, error) {
	if err := access.Require(grant.ScheduleEditor(), scheduleEditorRequired); err != nil {
		return nil, err
	}
	title, err := validateIntervalTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if err := validateRange(input.StartTime, input.EndTime); err != nil {
		return nil, err
	}

	interval := models.ShiftInterval{
		VenueID:   grant.VenueID,
		Title:     title,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.ensureTitleFree(ctx, repo, grant.VenueID, title, nil); err != nil {
			return err
		}
		return repo.CreateInterval(ctx, &interval)
	})
	if err != nil {
		return nil, intervalError(err)
	}
	out := intervalFromModel(&interval)
	return &out, nil
}

func (s *service) UpdateInterval(ctx context.Context, grant *access.Grant, intervalID uuid.UUID, input UpdateIntervalInput) (*IntervalDTO, error) {
	if err := access.Require(grant.ScheduleEditor(), scheduleEditorRequired); err != nil {
		return nil, err
	}
	var out IntervalDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		interval, err := repo.FindInterval(ctx, grant.VenueID, intervalID)
		if err != nil {
			return err
		}
		if input.Title != nil {
			title, err := validateIntervalTitle(*input.Title)
			if err != nil {
				return err
			}
			if title != interval.Title {
				if err := s.ensureTitleFree(ctx, repo, grant.VenueID, title, &interval.ID); err != nil {
					return err
				}
			}
			interval.Title = title
		}
		if input.StartTime != nil {
			interval.StartTime = *input.StartTime
		}
		if input.EndTime != nil {
			interval.EndTime = *input.EndTime
		}
		if err := validateRange(interval.StartTime, interval.EndTime); err != nil {
			return err
		}
		if err := repo.SaveInterval(ctx, interval); err != nil {
			return err
		}
		out = intervalFromModel(interval)
		return nil
	})
	if err != nil {
		return nil, intervalError(err)
	}
	return &out, nil
}

// DeleteInterval soft deletes an interval no active shift uses.
func (s *service) DeleteInterval(ctx context.Context, grant *access.Grant, intervalID uuid.UUID) error {
	if err := access.Require(grant.ScheduleEditor(), scheduleEditorRequired); err != nil {
		return err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		interval, err := repo.FindInterval(ctx, grant.VenueID, intervalID)
		if err != nil {
			return err
		}
		used, err := repo.CountActiveShiftsForInterval(ctx, interval.ID)
		if err != nil {
			return err
		}
		if used > 0 {
			return pkgerrors.Newf(pkgerrors.CodeConflict, "interval is used by %d scheduled shifts", used)
		}
		interval.Status = enums.LifecycleDeleted
		return repo.SaveInterval(ctx, interval)
	})
	return intervalError(err)
}

func (s *service) ensureTitleFree(ctx context.Context, repo *Repository, venueID uuid.UUID, title string, except *uuid.UUID) error {
	taken, err := repo.IntervalTitleTaken(ctx, venueID, title, except)
	if err != nil {
		return err
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeConflict, "interval with this title already exists")
	}
	return nil
}

func (s *service) ListShifts(ctx context.Context, grant *access.Grant, month calendar.Month) ([]ShiftDTO, error) {
	if err := access.Require(grant.IsMember(), memberRequired); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListShifts(ctx, grant.VenueID, month.First(), month.Last())
	if err != nil {
		return nil, db.MapError(err, "shift")
	}
	return s.withAssignments(ctx, s.repo, rows)
}

func (s *service) withAssignments(ctx context.Context, repo *Repository, rows []shiftRow) ([]ShiftDTO, error) {
	out := make([]ShiftDTO, 0, len(rows))
	index := make(map[uuid.UUID]int, len(rows))
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		index[row.ID] = len(out)
		ids = append(ids, row.ID)
		out = append(out, row.toDTO())
	}
	assignments, err := repo.AssignmentsForShifts(ctx, ids)
	if err != nil {
		return nil, db.MapError(err, "shift assignment")
	}
	for _, a := range assignments {
		i := index[a.ShiftID]
		out[i].Assignments = append(out[i].Assignments, a.toDTO())
	}
	return out, nil
}

func (s *service) CreateShift(ctx context.Context, grant *access.Grant, input CreateShiftInput) (*ShiftDTO, error) {
	if err := access.Require(grant.ScheduleEditor(), scheduleEditorRequired); err != nil {
		return nil, err
	}
	if input.Date.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date is required")
	}
	if input.IntervalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "interval_id is required")
	}

	var out ShiftDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindInterval(ctx, grant.VenueID, input.IntervalID); err != nil {
			return db.MapError(err, "shift interval")
		}
		if err := ensureSlotFree(ctx, repo, grant.VenueID, input.Date, input.IntervalID, nil); err != nil {
			return err
		}
		shift := models.Shift{VenueID: grant.VenueID, Date: input.Date, IntervalID: input.IntervalID}
		if err := repo.CreateShift(ctx, &shift); err != nil {
			return err
		}
		row, err := repo.FindShiftRow(ctx, grant.VenueID, shift.ID)
		if err != nil {
			return err
		}
		out = row.toDTO()
		return nil
	})
	if err != nil {
		return nil, shiftError(err)
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"venue_id": grant.VenueID.String(),
		"shift_id": out.ID.String(),
		"date":     out.Date.String(),
	}), "shift.created")
	return &out, nil
}

func (s *service) UpdateShift(ctx context.Context, grant *access.Grant, shiftID uuid.UUID, input UpdateShiftInput) (*ShiftDTO, error) {
	if err := access.Require(grant.ScheduleEditor(), scheduleEditorRequired); err != nil {
		return nil, err
	}
	var out []ShiftDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shift, err := repo.FindShift(ctx, grant.VenueID, shiftID)
		if err != nil {
			return err
		}
		if input.Date != nil {
			if input.Date.IsZero() {
				return pkgerrors.New(pkgerrors.CodeValidation, "date is required")
			}
			shift.Date = *input.Date
		}
		if input.IntervalID != nil {
			if _, err := repo.FindInterval(ctx, grant.VenueID, *input.IntervalID); err != nil {
				return db.MapError(err, "shift interval")
			}
			shift.IntervalID = *input.IntervalID
		}
		if err := ensureSlotFree(ctx, repo, grant.VenueID, shift.Date, shift.IntervalID, &shift.ID); err != nil {
			return err
		}
		if err := repo.SaveShift(ctx, shift); err != nil {
			return err
		}
		row, err := repo.FindShiftRow(ctx, grant.VenueID, shift.ID)
		if err != nil {
			return err
		}
		out, err = s.withAssignments(ctx, repo, []shiftRow{*row})
		return err
	})
	if err != nil {
		return nil, shiftError(err)
	}
	return &out[0], nil
}

// DeleteShift soft deletes the shift and hard deletes its assignments.
func (s *service) DeleteShift(ctx context.Context, grant *access.Grant, shiftID uuid.UUID) error {
	if err := access.Require(grant.ScheduleEditor(), scheduleEditorRequired); err != nil {
		return err
	}
	var removed int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shift, err := repo.FindShift(ctx, grant.VenueID, shiftID)
		if err != nil {
			return err
		}
		if removed, err = repo.DeleteAssignmentsForShift(ctx, shift.ID); err != nil {
			return err
		}
		shift.Status = enums.LifecycleDeleted
		return repo.SaveShift(ctx, shift)
	})
	if err != nil {
		return shiftError(err)
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"venue_id":    grant.VenueID.String(),
		"shift_id":    shiftID.String(),
		"assignments": removed,
	}), "shift.deleted")
	return nil
}

func ensureSlotFree(ctx context.Context, repo *Repository, venueID uuid.UUID, date calendar.Date, intervalID uuid.UUID, except *uuid.UUID) error {
	taken, err := repo.SlotTaken(ctx, venueID, date, intervalID, except)
	if err != nil {
		return err
	}
	if taken {
		return pkgerrors.New(pkgerrors.CodeConflict, "shift already exists for this date and interval")
	}
	return nil
}

// Assign snapshots the member's current rate and percent onto the
// assignment. Repeating the call for the same member is a no-op that returns
// the existing row.
func (s *service) Assign(ctx context.Context, grant *access.Grant, shiftID, memberUserID uuid.UUID) (*AssignmentDTO, bool, error) {
	if err := access.Require(grant.ScheduleEditor(), scheduleEditorRequired); err != nil {
		return nil, false, err
	}
	if memberUserID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "member_user_id is required")
	}

	var (
		assignmentID uuid.UUID
		created      bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shift, err := repo.FindShift(ctx, grant.VenueID, shiftID)
		if err != nil {
			return db.MapError(err, "shift")
		}
		existing, err := repo.FindAssignment(ctx, shift.ID, memberUserID)
		if err != nil {
			return err
		}
		if existing != nil {
			assignmentID = existing.ID
			return nil
		}

		ok, err := repo.IsActiveMember(ctx, grant.VenueID, memberUserID)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "member is not an active member of this venue")
		}
		position, err := repo.ActivePosition(ctx, grant.VenueID, memberUserID)
		if err != nil {
			return err
		}
		if position == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "member has no active position")
		}

		positionID := position.ID
		assignment := models.ShiftAssignment{
			ShiftID:         shift.ID,
			MemberUserID:    memberUserID,
			VenuePositionID: &positionID,
			Rate:            position.Rate,
			Percent:         position.Percent,
		}
		if err := repo.CreateAssignment(ctx, &assignment); err != nil {
			return err
		}
		assignmentID = assignment.ID
		created = true
		return nil
	})
	if db.IsUniqueViolation(err, "") {
		// lost a race with a concurrent assign of the same member
		created = false
		existing, findErr := s.repo.FindAssignment(ctx, shiftID, memberUserID)
		if findErr != nil || existing == nil {
			return nil, false, db.MapError(err, "shift assignment")
		}
		assignmentID, err = existing.ID, nil
	}
	if err != nil {
		return nil, false, db.MapError(err, "shift assignment")
	}

	rows, err := s.repo.AssignmentsForShifts(ctx, []uuid.UUID{shiftID})
	if err != nil {
		return nil, false, db.MapError(err, "shift assignment")
	}
	for _, row := range rows {
		if row.ID == assignmentID {
			dto := row.toDTO()
			if created {
				s.logg.Info(s.logg.WithFields(ctx, map[string]any{
					"venue_id":       grant.VenueID.String(),
					"shift_id":       shiftID.String(),
					"member_user_id": memberUserID.String(),
				}), "shift.assigned")
			}
			return &dto, created, nil
		}
	}
	return nil, false, pkgerrors.New(pkgerrors.CodeNotFound, "shift assignment not found")
}

func (s *service) Unassign(ctx context.Context, grant *access.Grant, shiftID, memberUserID uuid.UUID) error {
	if err := access.Require(grant.ScheduleEditor(), scheduleEditorRequired); err != nil {
		return err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindShift(ctx, grant.VenueID, shiftID); err != nil {
			return db.MapError(err, "shift")
		}
		n, err := repo.DeleteAssignment(ctx, shiftID, memberUserID)
		if err != nil {
			return err
		}
		if n == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "shift assignment not found")
		}
		return nil
	})
	return db.MapError(err, "shift assignment")
}

func (s *service) ListComments(ctx context.Context, grant *access.Grant, shiftID uuid.UUID) ([]CommentDTO, error) {
	if err := access.Require(grant.IsMember(), memberRequired); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindShift(ctx, grant.VenueID, shiftID); err != nil {
		return nil, db.MapError(err, "shift")
	}
	rows, err := s.repo.ListComments(ctx, shiftID)
	if err != nil {
		return nil, db.MapError(err, "shift comment")
	}
	out := make([]CommentDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDTO())
	}
	return out, nil
}

func (s *service) AddComment(ctx context.Context, grant *access.Grant, shiftID uuid.UUID, text string) (*CommentDTO, error) {
	if err := access.Require(grant.IsMember(), memberRequired); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "text is required")
	}
	if utf8.RuneCountInString(text) > maxCommentLen {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "text must be at most %d characters", maxCommentLen)
	}
	if _, err := s.repo.FindShift(ctx, grant.VenueID, shiftID); err != nil {
		return nil, db.MapError(err, "shift")
	}
	comment := models.ShiftComment{ShiftID: shiftID, AuthorUserID: grant.UserID, Text: text}
	if err := s.repo.CreateComment(ctx, &comment); err != nil {
		return nil, db.MapError(err, "shift comment")
	}
	rows, err := s.repo.ListComments(ctx, shiftID)
	if err != nil {
		return nil, db.MapError(err, "shift comment")
	}
	for _, row := range rows {
		if row.ID == comment.ID {
			dto := row.toDTO()
			return &dto, nil
		}
	}
	out := CommentDTO{ID: comment.ID, ShiftID: shiftID, AuthorUserID: grant.UserID, Text: text, CreatedAt: comment.CreatedAt}
	return &out, nil
}

func validateIntervalTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if utf8.RuneCountInString(title) > maxIntervalTitleLen {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "title must be at most %d characters", maxIntervalTitleLen)
	}
	return title, nil
}

// validateRange allows intervals that cross midnight; only an empty range is
// rejected.
func validateRange(start, end calendar.TimeOfDay) error {
	if start == end {
		return pkgerrors.New(pkgerrors.CodeValidation, "start_time and end_time must differ")
	}
	return nil
}

func intervalError(err error) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "interval with this title already exists")
	}
	return db.MapError(err, "shift interval")
}

func shiftError(err error) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "shift already exists for this date and interval")
	}
	return db.MapError(err, "shift")
}
