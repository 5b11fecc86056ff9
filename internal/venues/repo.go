package venues

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

// Repository persists venues and owns the explicit delete cascade.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, venue *models.Venue) error {
	return r.db.WithContext(ctx).Create(venue).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Venue, error) {
	var venue models.Venue
	if err := r.db.WithContext(ctx).First(&venue, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &venue, nil
}

// ListAll is the system-role view.
func (r *Repository) ListAll(ctx context.Context, includeArchived bool) ([]models.Venue, error) {
	q := r.db.WithContext(ctx).Model(&models.Venue{})
	if !includeArchived {
		q = q.Scopes(models.Active(""))
	}
	var out []models.Venue
	err := q.Order("name ASC").Find(&out).Error
	return out, err
}

// ListForMember returns venues where userID has an active membership.
func (r *Repository) ListForMember(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]models.Venue, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Venue{}).
		Joins("JOIN venue_members ON venue_members.venue_id = venues.id").
		Scopes(models.Active("venue_members")).
		Where("venue_members.user_id = ?", userID)
	if !includeArchived {
		q = q.Scopes(models.Active("venues"))
	}
	var out []models.Venue
	err := q.Select("venues.*").Order("venues.name ASC").Find(&out).Error
	return out, err
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, values map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Venue{}).
		Where("id = ?", id).
		Updates(values).Error
}

// AttachmentKeys lists storage keys of every attachment in the venue.
func (r *Repository) AttachmentKeys(ctx context.Context, venueID uuid.UUID) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).
		Model(&models.DailyReportAttachment{}).
		Where("venue_id = ?", venueID).
		Pluck("storage_key", &keys).Error
	return keys, err
}

type cascadeStep struct {
	name  string
	model any
	where string
	arg   func(*gorm.DB, uuid.UUID) any
}

func byVenue(_ *gorm.DB, venueID uuid.UUID) any { return venueID }

func disputesOf(db *gorm.DB, venueID uuid.UUID) any {
	return db.Model(&models.AdjustmentDispute{}).Select("id").Where("venue_id = ?", venueID)
}

func shiftsOf(db *gorm.DB, venueID uuid.UUID) any {
	return db.Model(&models.Shift{}).Select("id").Where("venue_id = ?", venueID)
}

// cascade lists children in foreign-key order, leaves first.
var cascade = []cascadeStep{
	{name: "dispute_comments", model: &models.AdjustmentDisputeComment{}, where: "dispute_id IN (?)", arg: disputesOf},
	{name: "disputes", model: &models.AdjustmentDispute{}, where: "venue_id = ?", arg: byVenue},
	{name: "adjustments", model: &models.Adjustment{}, where: "venue_id = ?", arg: byVenue},
	{name: "shift_comments", model: &models.ShiftComment{}, where: "shift_id IN (?)", arg: shiftsOf},
	{name: "shift_assignments", model: &models.ShiftAssignment{}, where: "shift_id IN (?)", arg: shiftsOf},
	{name: "shifts", model: &models.Shift{}, where: "venue_id = ?", arg: byVenue},
	{name: "shift_intervals", model: &models.ShiftInterval{}, where: "venue_id = ?", arg: byVenue},
	{name: "venue_positions", model: &models.VenuePosition{}, where: "venue_id = ?", arg: byVenue},
	{name: "venue_invites", model: &models.VenueInvite{}, where: "venue_id = ?", arg: byVenue},
	{name: "venue_members", model: &models.VenueMember{}, where: "venue_id = ?", arg: byVenue},
	{name: "report_attachments", model: &models.DailyReportAttachment{}, where: "venue_id = ?", arg: byVenue},
	{name: "daily_reports", model: &models.DailyReport{}, where: "venue_id = ?", arg: byVenue},
}

// DeleteCascade hard-deletes the venue and everything it owns. Callers run
// it inside a transaction.
func (r *Repository) DeleteCascade(ctx context.Context, venueID uuid.UUID) (map[string]int64, error) {
	counts := make(map[string]int64, len(cascade)+1)
	for _, step := range cascade {
		res := r.db.WithContext(ctx).
			Where(step.where, step.arg(r.db, venueID)).
			Delete(step.model)
		if res.Error != nil {
			return nil, res.Error
		}
		counts[step.name] = res.RowsAffected
	}
	res := r.db.WithContext(ctx).Where("id = ? AND status = ?", venueID, enums.LifecycleArchived).Delete(&models.Venue{})
	if res.Error != nil {
		return nil, res.Error
	}
	counts["venues"] = res.RowsAffected
	return counts, nil
}
