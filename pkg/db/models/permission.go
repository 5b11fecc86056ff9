package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

// Permission mirrors the in-code permission registry.
type Permission struct {
	Code        string `gorm:"column:code;type:varchar(64);primaryKey"`
	Group       string `gorm:"column:group_name;type:varchar(64);not null"`
	Title       string `gorm:"column:title;type:varchar(128);not null"`
	Description string `gorm:"column:description;type:varchar(500);not null;default:''"`
	IsActive    bool   `gorm:"column:is_active;not null;default:true"`
}

func (Permission) TableName() string { return "permissions" }

// RolePermissionDefault is one cell of the role-default matrix.
type RolePermissionDefault struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Role               enums.MatrixRole `gorm:"column:role;type:varchar(32);not null;uniqueIndex:ux_role_permission_defaults,priority:1"`
	PermissionCode     string           `gorm:"column:permission_code;type:varchar(64);not null;uniqueIndex:ux_role_permission_defaults,priority:2"`
	IsGrantedByDefault bool             `gorm:"column:is_granted_by_default;not null;default:false"`
}

func (RolePermissionDefault) TableName() string { return "role_permission_defaults" }

func (r *RolePermissionDefault) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
