package payroll

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

// Repository runs the read-only joins payroll is derived from.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) assignments(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("shift_assignments").
		Select(`shifts.id AS shift_id, shifts.date AS shift_date, shifts.venue_id, venues.name AS venue_name,
			shifts.interval_id, shift_intervals.title AS interval_title, shift_intervals.start_time, shift_intervals.end_time,
			shift_assignments.member_user_id, shift_assignments.rate, shift_assignments.percent,
			users.short_name, users.full_name, users.tg_username`).
		Joins("JOIN shifts ON shifts.id = shift_assignments.shift_id").
		Joins("JOIN venues ON venues.id = shifts.venue_id").
		Joins("JOIN shift_intervals ON shift_intervals.id = shifts.interval_id").
		Joins("JOIN users ON users.id = shift_assignments.member_user_id").
		Where("shifts.status = ?", enums.LifecycleActive)
}

// MemberShifts returns only the member's own assignments across venues.
func (r *Repository) MemberShifts(ctx context.Context, userID uuid.UUID, from, to calendar.Date) ([]shiftRow, error) {
	var rows []shiftRow
	err := r.assignments(ctx).
		Where("shift_assignments.member_user_id = ?", userID).
		Where("shifts.date >= ? AND shifts.date <= ?", from, to).
		Order("shifts.date ASC, shift_intervals.start_time ASC, shifts.id ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) VenueShifts(ctx context.Context, venueID uuid.UUID, from, to calendar.Date) ([]shiftRow, error) {
	var rows []shiftRow
	err := r.assignments(ctx).
		Where("shifts.venue_id = ?", venueID).
		Where("shifts.date >= ? AND shifts.date <= ?", from, to).
		Order("shifts.date ASC, shifts.id ASC").
		Scan(&rows).Error
	return rows, err
}

// Reports loads the venues' reports in range keyed by venue-day.
func (r *Repository) Reports(ctx context.Context, venueIDs []uuid.UUID, from, to calendar.Date) (map[dayKey]models.DailyReport, error) {
	out := make(map[dayKey]models.DailyReport)
	if len(venueIDs) == 0 {
		return out, nil
	}
	var reports []models.DailyReport
	err := r.db.WithContext(ctx).
		Where("venue_id IN ? AND date >= ? AND date <= ?", venueIDs, from, to).
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	for _, rep := range reports {
		out[keyOf(rep.VenueID, rep.Date)] = rep
	}
	return out, nil
}

// AssigneeCounts counts distinct members on any active shift per venue-day.
func (r *Repository) AssigneeCounts(ctx context.Context, venueIDs []uuid.UUID, from, to calendar.Date) (map[dayKey]int, error) {
	out := make(map[dayKey]int)
	if len(venueIDs) == 0 {
		return out, nil
	}
	var rows []dayCountRow
	err := r.db.WithContext(ctx).
		Table("shift_assignments").
		Select("shifts.venue_id, shifts.date AS shift_date, COUNT(DISTINCT shift_assignments.member_user_id) AS assignees").
		Joins("JOIN shifts ON shifts.id = shift_assignments.shift_id").
		Where("shifts.status = ?", enums.LifecycleActive).
		Where("shifts.venue_id IN ? AND shifts.date >= ? AND shifts.date <= ?", venueIDs, from, to).
		Group("shifts.venue_id, shifts.date").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[keyOf(row.VenueID, row.Date)] = row.Assignees
	}
	return out, nil
}

func (r *Repository) adjustmentTotals(ctx context.Context, from, to calendar.Date) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Adjustment{}).
		Select("venue_id, member_user_id, type, SUM(amount) AS total").
		Scopes(models.Active("")).
		Where("member_user_id IS NOT NULL").
		Where("date >= ? AND date <= ?", from, to).
		Group("venue_id, member_user_id, type")
}

func (r *Repository) MemberAdjustments(ctx context.Context, userID uuid.UUID, from, to calendar.Date) ([]adjustmentTotalRow, error) {
	var rows []adjustmentTotalRow
	err := r.adjustmentTotals(ctx, from, to).
		Where("member_user_id = ?", userID).
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) VenueAdjustments(ctx context.Context, venueID uuid.UUID, from, to calendar.Date) ([]adjustmentTotalRow, error) {
	var rows []adjustmentTotalRow
	err := r.adjustmentTotals(ctx, from, to).
		Where("venue_id = ?", venueID).
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) VenueNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var venues []models.Venue
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&venues).Error; err != nil {
		return nil, err
	}
	for _, v := range venues {
		out[v.ID] = v.Name
	}
	return out, nil
}

func (r *Repository) UserNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u.DisplayName()
	}
	return out, nil
}
