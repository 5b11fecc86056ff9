package adjustments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

// Repository persists adjustments, disputes and dispute comments.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// listQuery carries the optional filters of an adjustment listing.
type listQuery struct {
	VenueID  uuid.UUID
	From, To calendar.Date
	Type     *enums.AdjustmentType
	MemberID *uuid.UUID
}

func (r *Repository) adjustments(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("adjustments").
		Select(`adjustments.*,
			users.short_name AS member_short_name, users.full_name AS member_full_name, users.tg_username AS member_tg_username,
			EXISTS (SELECT 1 FROM adjustment_disputes d WHERE d.adjustment_id = adjustments.id AND d.status = ?) AS has_open_dispute`,
			enums.DisputeStatusOpen).
		Joins("LEFT JOIN users ON users.id = adjustments.member_user_id").
		Scopes(models.Active("adjustments"))
}

func (r *Repository) List(ctx context.Context, q listQuery) ([]adjustmentRow, error) {
	tx := r.adjustments(ctx).
		Where("adjustments.venue_id = ?", q.VenueID).
		Where("adjustments.date >= ? AND adjustments.date <= ?", q.From, q.To)
	if q.Type != nil {
		tx = tx.Where("adjustments.type = ?", *q.Type)
	}
	if q.MemberID != nil {
		tx = tx.Where("adjustments.member_user_id = ?", *q.MemberID)
	}
	var rows []adjustmentRow
	err := tx.Order("adjustments.date DESC, adjustments.created_at DESC, adjustments.id DESC").Scan(&rows).Error
	return rows, err
}

// FindRow returns gorm.ErrRecordNotFound for missing or deleted rows.
func (r *Repository) FindRow(ctx context.Context, venueID, id uuid.UUID) (*adjustmentRow, error) {
	var rows []adjustmentRow
	err := r.adjustments(ctx).
		Where("adjustments.venue_id = ? AND adjustments.id = ?", venueID, id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *Repository) Find(ctx context.Context, venueID, id uuid.UUID) (*models.Adjustment, error) {
	var adj models.Adjustment
	if err := r.db.WithContext(ctx).
		Scopes(models.Active("")).
		Where("venue_id = ? AND id = ?", venueID, id).
		First(&adj).Error; err != nil {
		return nil, err
	}
	return &adj, nil
}

func (r *Repository) Create(ctx context.Context, adj *models.Adjustment) error {
	return r.db.WithContext(ctx).Create(adj).Error
}

func (r *Repository) Save(ctx context.Context, adj *models.Adjustment) error {
	return r.db.WithContext(ctx).Save(adj).Error
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

func (r *Repository) disputes(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("adjustment_disputes").
		Select(`adjustment_disputes.*, adjustments.type AS adjustment_type,
			adjustments.member_user_id AS adjustment_member_user_id,
			adjustments.created_by_user_id AS adjustment_created_by_user_id,
			adjustments.amount AS adjustment_amount, adjustments.date AS adjustment_date,
			users.short_name, users.full_name, users.tg_username`).
		Joins("JOIN adjustments ON adjustments.id = adjustment_disputes.adjustment_id").
		Joins("JOIN users ON users.id = adjustment_disputes.created_by_user_id").
		Scopes(models.Active("adjustments"))
}

// disputeQuery scopes a dispute listing. Participant restricts to disputes the
// user opened or that target the user.
type disputeQuery struct {
	VenueID      uuid.UUID
	Status       *enums.DisputeStatus
	Participant  *uuid.UUID
	AdjustmentID *uuid.UUID
}

func (r *Repository) ListDisputes(ctx context.Context, q disputeQuery) ([]disputeRow, error) {
	tx := r.disputes(ctx).Where("adjustment_disputes.venue_id = ?", q.VenueID)
	if q.Status != nil {
		tx = tx.Where("adjustment_disputes.status = ?", *q.Status)
	}
	if q.Participant != nil {
		tx = tx.Where("(adjustment_disputes.created_by_user_id = ? OR adjustments.member_user_id = ?)", *q.Participant, *q.Participant)
	}
	if q.AdjustmentID != nil {
		tx = tx.Where("adjustment_disputes.adjustment_id = ?", *q.AdjustmentID)
	}
	var rows []disputeRow
	err := tx.Order("adjustment_disputes.created_at DESC, adjustment_disputes.id DESC").Scan(&rows).Error
	return rows, err
}

func (r *Repository) FindDisputeRow(ctx context.Context, venueID, id uuid.UUID) (*disputeRow, error) {
	var rows []disputeRow
	err := r.disputes(ctx).
		Where("adjustment_disputes.venue_id = ? AND adjustment_disputes.id = ?", venueID, id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *Repository) FindDispute(ctx context.Context, venueID, id uuid.UUID) (*models.AdjustmentDispute, error) {
	var dispute models.AdjustmentDispute
	if err := r.db.WithContext(ctx).
		Where("venue_id = ? AND id = ?", venueID, id).
		First(&dispute).Error; err != nil {
		return nil, err
	}
	return &dispute, nil
}

// OpenDispute returns nil, nil when the adjustment has no OPEN dispute.
func (r *Repository) OpenDispute(ctx context.Context, adjustmentID uuid.UUID, except *uuid.UUID) (*models.AdjustmentDispute, error) {
	q := r.db.WithContext(ctx).
		Where("adjustment_id = ? AND status = ?", adjustmentID, enums.DisputeStatusOpen)
	if except != nil {
		q = q.Where("id <> ?", *except)
	}
	var dispute models.AdjustmentDispute
	err := q.First(&dispute).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dispute, nil
}

func (r *Repository) CountDisputes(ctx context.Context, adjustmentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AdjustmentDispute{}).
		Where("adjustment_id = ?", adjustmentID).
		Count(&count).Error
	return count, err
}

func (r *Repository) CreateDispute(ctx context.Context, dispute *models.AdjustmentDispute) error {
	return r.db.WithContext(ctx).Create(dispute).Error
}

// SaveDispute writes status and resolver columns, including NULLs.
func (r *Repository) SaveDispute(ctx context.Context, dispute *models.AdjustmentDispute) error {
	return r.db.WithContext(ctx).
		Model(dispute).
		Select("status", "resolved_by_user_id", "resolved_at").
		Updates(dispute).Error
}

func (r *Repository) ListComments(ctx context.Context, disputeID uuid.UUID) ([]commentRow, error) {
	var rows []commentRow
	err := r.db.WithContext(ctx).
		Table("adjustment_dispute_comments").
		Select("adjustment_dispute_comments.*, users.short_name, users.full_name, users.tg_username").
		Joins("JOIN users ON users.id = adjustment_dispute_comments.author_user_id").
		Where("adjustment_dispute_comments.dispute_id = ?", disputeID).
		Order("adjustment_dispute_comments.created_at ASC, adjustment_dispute_comments.id ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) CreateComment(ctx context.Context, comment *models.AdjustmentDisputeComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *Repository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) FindVenue(ctx context.Context, id uuid.UUID) (*models.Venue, error) {
	var venue models.Venue
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&venue).Error; err != nil {
		return nil, err
	}
	return &venue, nil
}

// Overseers are the venue's active owners plus active members whose active
// position can manage adjustments.
func (r *Repository) Overseers(ctx context.Context, venueID uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN venue_members ON venue_members.user_id = users.id AND venue_members.venue_id = ? AND venue_members.status = ?", venueID, enums.LifecycleActive).
		Joins("LEFT JOIN venue_positions ON venue_positions.member_user_id = users.id AND venue_positions.venue_id = ? AND venue_positions.status = ?", venueID, enums.LifecycleActive).
		Where("venue_members.venue_role = ? OR venue_positions.can_manage_adjustments = ?", enums.VenueRoleOwner, true).
		Distinct("users.*").
		Find(&users).Error
	return users, err
}
