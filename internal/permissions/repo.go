package permissions

import (
	"context"

	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists the permission registry mirror and the role matrix.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to an open transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// UpsertPermission inserts or refreshes a registry row and marks it active.
func (r *Repository) UpsertPermission(ctx context.Context, def Definition) error {
	row := models.Permission{
		Code:        def.Code,
		Group:       def.Group,
		Title:       def.Title,
		Description: def.Description,
		IsActive:    true,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"group_name", "title", "description", "is_active"}),
	}).Create(&row).Error
}

// DeactivateExcept flags every permission not in codes as inactive.
func (r *Repository) DeactivateExcept(ctx context.Context, codes []string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Permission{}).
		Where("code NOT IN ? AND is_active = ?", codes, true).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// EnsureMatrixRow inserts a (role, code) cell with granted=false when missing.
func (r *Repository) EnsureMatrixRow(ctx context.Context, role enums.MatrixRole, code string) (bool, error) {
	row := models.RolePermissionDefault{Role: role, PermissionCode: code}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	return res.RowsAffected > 0, res.Error
}

// SetDefault upserts a single matrix cell.
func (r *Repository) SetDefault(ctx context.Context, role enums.MatrixRole, code string, granted bool) error {
	row := models.RolePermissionDefault{Role: role, PermissionCode: code, IsGrantedByDefault: granted}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "role"}, {Name: "permission_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_granted_by_default"}),
	}).Create(&row).Error
}

// ActiveCodes lists every active permission code, ordered.
func (r *Repository) ActiveCodes(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&models.Permission{}).
		Where("is_active = ?", true).
		Order("code").
		Pluck("code", &codes).Error
	return codes, err
}

// GrantedCodes lists active codes granted by default to role.
func (r *Repository) GrantedCodes(ctx context.Context, role enums.MatrixRole) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&models.RolePermissionDefault{}).
		Joins("JOIN permissions ON permissions.code = role_permission_defaults.permission_code").
		Where("role_permission_defaults.role = ? AND role_permission_defaults.is_granted_by_default = ? AND permissions.is_active = ?", role, true, true).
		Order("role_permission_defaults.permission_code").
		Pluck("role_permission_defaults.permission_code", &codes).Error
	return codes, err
}

// ListPermissions returns every registry row.
func (r *Repository) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	var rows []models.Permission
	err := r.db.WithContext(ctx).Order("group_name, code").Find(&rows).Error
	return rows, err
}

// ListMatrix returns every matrix cell.
func (r *Repository) ListMatrix(ctx context.Context) ([]models.RolePermissionDefault, error) {
	var rows []models.RolePermissionDefault
	err := r.db.WithContext(ctx).Order("role, permission_code").Find(&rows).Error
	return rows, err
}

// PermissionExists reports whether code is present and active.
func (r *Repository) PermissionExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Permission{}).
		Where("code = ? AND is_active = ?", code, true).
		Count(&count).Error
	return count > 0, err
}
