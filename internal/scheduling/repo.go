package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
)

// Repository persists intervals, shifts, assignments and shift comments.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) ListIntervals(ctx context.Context, venueID uuid.UUID) ([]models.ShiftInterval, error) {
	var intervals []models.ShiftInterval
	err := r.db.WithContext(ctx).
		Scopes(models.Active("")).
		Where("venue_id = ?", venueID).
		Order("start_time ASC, title ASC").
		Find(&intervals).Error
	return intervals, err
}

func (r *Repository) FindInterval(ctx context.Context, venueID, intervalID uuid.UUID) (*models.ShiftInterval, error) {
	var interval models.ShiftInterval
	if err := r.db.WithContext(ctx).
		Scopes(models.Active("")).
		Where("venue_id = ? AND id = ?", venueID, intervalID).
		First(&interval).Error; err != nil {
		return nil, err
	}
	return &interval, nil
}

// IntervalTitleTaken checks active intervals of the venue, ignoring except.
func (r *Repository) IntervalTitleTaken(ctx context.Context, venueID uuid.UUID, title string, except *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&models.ShiftInterval{}).
		Scopes(models.Active("")).
		Where("venue_id = ? AND title = ?", venueID, title)
	if except != nil {
		q = q.Where("id <> ?", *except)
	}
	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *Repository) CreateInterval(ctx context.Context, interval *models.ShiftInterval) error {
	return r.db.WithContext(ctx).Create(interval).Error
}

func (r *Repository) SaveInterval(ctx context.Context, interval *models.ShiftInterval) error {
	return r.db.WithContext(ctx).Save(interval).Error
}

func (r *Repository) CountActiveShiftsForInterval(ctx context.Context, intervalID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Shift{}).
		Scopes(models.Active("")).
		Where("interval_id = ?", intervalID).
		Count(&count).Error
	return count, err
}

func (r *Repository) shiftQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Shift{}).
		Select("shifts.*, shift_intervals.title AS interval_title, shift_intervals.start_time, shift_intervals.end_time").
		Joins("JOIN shift_intervals ON shift_intervals.id = shifts.interval_id").
		Scopes(models.Active("shifts"))
}

// ListShifts returns active shifts dated within [from, to], earliest first.
func (r *Repository) ListShifts(ctx context.Context, venueID uuid.UUID, from, to calendar.Date) ([]shiftRow, error) {
	var rows []shiftRow
	err := r.shiftQuery(ctx).
		Where("shifts.venue_id = ? AND shifts.date >= ? AND shifts.date <= ?", venueID, from, to).
		Order("shifts.date ASC, shift_intervals.start_time ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) FindShiftRow(ctx context.Context, venueID, shiftID uuid.UUID) (*shiftRow, error) {
	var rows []shiftRow
	if err := r.shiftQuery(ctx).
		Where("shifts.venue_id = ? AND shifts.id = ?", venueID, shiftID).
		Limit(1).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *Repository) FindShift(ctx context.Context, venueID, shiftID uuid.UUID) (*models.Shift, error) {
	var shift models.Shift
	if err := r.db.WithContext(ctx).
		Scopes(models.Active("")).
		Where("venue_id = ? AND id = ?", venueID, shiftID).
		First(&shift).Error; err != nil {
		return nil, err
	}
	return &shift, nil
}

// SlotTaken reports whether an active shift already occupies
// (venue, date, interval), ignoring except.
func (r *Repository) SlotTaken(ctx context.Context, venueID uuid.UUID, date calendar.Date, intervalID uuid.UUID, except *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Shift{}).
		Scopes(models.Active("")).
		Where("venue_id = ? AND date = ? AND interval_id = ?", venueID, date, intervalID)
	if except != nil {
		q = q.Where("id <> ?", *except)
	}
	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *Repository) CreateShift(ctx context.Context, shift *models.Shift) error {
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *Repository) SaveShift(ctx context.Context, shift *models.Shift) error {
	return r.db.WithContext(ctx).Save(shift).Error
}

func (r *Repository) DeleteAssignmentsForShift(ctx context.Context, shiftID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("shift_id = ?", shiftID).Delete(&models.ShiftAssignment{})
	return res.RowsAffected, res.Error
}

// AssignmentsForShifts loads assignments of the given shifts with the
// member's display fields and the current position title.
func (r *Repository) AssignmentsForShifts(ctx context.Context, shiftIDs []uuid.UUID) ([]assignmentRow, error) {
	if len(shiftIDs) == 0 {
		return nil, nil
	}
	var rows []assignmentRow
	err := r.db.WithContext(ctx).
		Model(&models.ShiftAssignment{}).
		Select("shift_assignments.*, users.short_name, users.full_name, users.tg_username, venue_positions.title AS position_title").
		Joins("JOIN users ON users.id = shift_assignments.member_user_id").
		Joins("LEFT JOIN venue_positions ON venue_positions.id = shift_assignments.venue_position_id").
		Where("shift_assignments.shift_id IN ?", shiftIDs).
		Order("shift_assignments.created_at ASC").
		Scan(&rows).Error
	return rows, err
}

// FindAssignment returns the (shift, member) assignment or nil.
func (r *Repository) FindAssignment(ctx context.Context, shiftID, memberUserID uuid.UUID) (*models.ShiftAssignment, error) {
	var assignment models.ShiftAssignment
	err := r.db.WithContext(ctx).
		Where("shift_id = ? AND member_user_id = ?", shiftID, memberUserID).
		Take(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *Repository) CreateAssignment(ctx context.Context, assignment *models.ShiftAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *Repository) DeleteAssignment(ctx context.Context, shiftID, memberUserID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("shift_id = ? AND member_user_id = ?", shiftID, memberUserID).
		Delete(&models.ShiftAssignment{})
	return res.RowsAffected, res.Error
}

func (r *Repository) IsActiveMember(ctx context.Context, venueID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.VenueMember{}).
		Scopes(models.Active("")).
		Where("venue_id = ? AND user_id = ?", venueID, userID).
		Count(&count).Error
	return count > 0, err
}

// ActivePosition returns the member's active position or nil.
func (r *Repository) ActivePosition(ctx context.Context, venueID, userID uuid.UUID) (*models.VenuePosition, error) {
	var position models.VenuePosition
	err := r.db.WithContext(ctx).
		Scopes(models.Active("")).
		Where("venue_id = ? AND member_user_id = ?", venueID, userID).
		Take(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &position, nil
}

func (r *Repository) ListComments(ctx context.Context, shiftID uuid.UUID) ([]commentRow, error) {
	var rows []commentRow
	err := r.db.WithContext(ctx).
		Model(&models.ShiftComment{}).
		Select("shift_comments.*, users.short_name, users.full_name, users.tg_username").
		Joins("JOIN users ON users.id = shift_comments.author_user_id").
		Where("shift_comments.shift_id = ?", shiftID).
		Order("shift_comments.created_at ASC, shift_comments.id ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) CreateComment(ctx context.Context, comment *models.ShiftComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}
