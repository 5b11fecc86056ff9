package positions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/db/models"
)

// Repository persists venue positions.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListActive returns active positions of the venue with the member's name.
func (r *Repository) ListActive(ctx context.Context, venueID uuid.UUID) ([]PositionDTO, error) {
	var rows []positionRow
	err := r.db.WithContext(ctx).
		Model(&models.VenuePosition{}).
		Select("venue_positions.*, users.short_name, users.full_name, users.tg_username").
		Joins("JOIN users ON users.id = venue_positions.member_user_id").
		Scopes(models.Active("venue_positions")).
		Where("venue_positions.venue_id = ?", venueID).
		Order("venue_positions.title ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]PositionDTO, 0, len(rows))
	for _, row := range rows {
		dto := FromModel(&row.VenuePosition)
		dto.MemberName = row.memberName()
		out = append(out, dto)
	}
	return out, nil
}

// FindByMember returns the member's row in any status, or nil.
func (r *Repository) FindByMember(ctx context.Context, venueID, userID uuid.UUID) (*models.VenuePosition, error) {
	var position models.VenuePosition
	err := r.db.WithContext(ctx).
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

// FindActive loads an active position by id within the venue.
func (r *Repository) FindActive(ctx context.Context, venueID, positionID uuid.UUID) (*models.VenuePosition, error) {
	var position models.VenuePosition
	if err := r.db.WithContext(ctx).
		Scopes(models.Active("")).
		Where("venue_id = ? AND id = ?", venueID, positionID).
		First(&position).Error; err != nil {
		return nil, err
	}
	return &position, nil
}

func (r *Repository) Create(ctx context.Context, position *models.VenuePosition) error {
	return r.db.WithContext(ctx).Create(position).Error
}

// Save writes every column, including false flags.
func (r *Repository) Save(ctx context.Context, position *models.VenuePosition) error {
	return r.db.WithContext(ctx).Save(position).Error
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
