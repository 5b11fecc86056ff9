package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) FindByTgUserID(ctx context.Context, tgUserID int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("tg_user_id = ?", tgUserID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername matches an already-normalized handle. It returns nil, nil
// when nobody has that handle.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, nil
	}
	var user models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(tg_username) = ?", username).
		Order("created_at").
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDs loads users keyed by id; unknown ids are skipped.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	out := make(map[uuid.UUID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// UpdateColumns writes the provided columns without touching others.
func (r *Repository) UpdateColumns(ctx context.Context, id uuid.UUID, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(values).Error
}

func (r *Repository) SetSystemRole(ctx context.Context, id uuid.UUID, role enums.SystemRole) error {
	return r.UpdateColumns(ctx, id, map[string]any{"system_role": role})
}
