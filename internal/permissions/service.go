package permissions

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SyncResult summarises a registry sync.
type SyncResult struct {
	Upserted    int   `json:"upserted"`
	Deactivated int64 `json:"deactivated"`
	MatrixAdded int   `json:"matrix_added"`
}

// MatrixCell is one role/permission default.
type MatrixCell struct {
	Role           enums.MatrixRole `json:"role"`
	PermissionCode string           `json:"permission_code"`
	Granted        bool             `json:"granted"`
}

// PermissionView is the admin listing shape of a registry row.
type PermissionView struct {
	Code        string `json:"code"`
	Group       string `json:"group"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// Overview is the admin view of registry plus matrix.
type Overview struct {
	Permissions []PermissionView   `json:"permissions"`
	Roles       []enums.MatrixRole `json:"roles"`
	Matrix      []MatrixCell       `json:"matrix"`
}

// SetDefaultInput toggles one matrix cell.
type SetDefaultInput struct {
	Role           string
	PermissionCode string
	Granted        bool
}

// Service manages the permission registry and the role-default matrix.
type Service interface {
	Sync(ctx context.Context) (SyncResult, error)
	Overview(ctx context.Context) (*Overview, error)
	SetDefault(ctx context.Context, input SetDefaultInput) (*MatrixCell, error)
	ActiveCodes(ctx context.Context) ([]string, error)
	GrantedCodes(ctx context.Context, role enums.MatrixRole) ([]string, error)
}

type service struct {
	db   txRunner
	repo *Repository
	logg *logger.Logger
}

func NewService(dbRunner txRunner, repo *Repository, logg *logger.Logger) (Service, error) {
	if dbRunner == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("permissions repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{db: dbRunner, repo: repo, logg: logg}, nil
}

func (s *service) Sync(ctx context.Context) (SyncResult, error) {
	var result SyncResult
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		codes := make([]string, 0, len(Registry))
		for _, def := range Registry {
			if err := repo.UpsertPermission(ctx, def); err != nil {
				return fmt.Errorf("upsert %s: %w", def.Code, err)
			}
			codes = append(codes, def.Code)
			result.Upserted++
		}
		deactivated, err := repo.DeactivateExcept(ctx, codes)
		if err != nil {
			return fmt.Errorf("deactivate stale permissions: %w", err)
		}
		result.Deactivated = deactivated
		for _, role := range enums.DefaultMatrixRoles {
			for _, code := range codes {
				added, err := repo.EnsureMatrixRow(ctx, role, code)
				if err != nil {
					return fmt.Errorf("ensure matrix %s/%s: %w", role, code, err)
				}
				if added {
					result.MatrixAdded++
				}
			}
		}
		return nil
	})
	if err != nil {
		return SyncResult{}, db.MapError(err, "permission")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"upserted":     result.Upserted,
		"deactivated":  result.Deactivated,
		"matrix_added": result.MatrixAdded,
	}), "permission registry synced")
	return result, nil
}

func (s *service) Overview(ctx context.Context) (*Overview, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, db.MapError(err, "permission")
	}
	cells, err := s.repo.ListMatrix(ctx)
	if err != nil {
		return nil, db.MapError(err, "permission")
	}
	out := &Overview{
		Permissions: make([]PermissionView, 0, len(perms)),
		Roles:       enums.DefaultMatrixRoles,
		Matrix:      make([]MatrixCell, 0, len(cells)),
	}
	for _, p := range perms {
		out.Permissions = append(out.Permissions, PermissionView{
			Code:        p.Code,
			Group:       p.Group,
			Title:       p.Title,
			Description: p.Description,
			IsActive:    p.IsActive,
		})
	}
	for _, c := range cells {
		out.Matrix = append(out.Matrix, MatrixCell{Role: c.Role, PermissionCode: c.PermissionCode, Granted: c.IsGrantedByDefault})
	}
	return out, nil
}

func (s *service) SetDefault(ctx context.Context, input SetDefaultInput) (*MatrixCell, error) {
	role, err := enums.ParseMatrixRole(strings.ToUpper(strings.TrimSpace(input.Role)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	code := strings.ToUpper(strings.TrimSpace(input.PermissionCode))
	exists, err := s.repo.PermissionExists(ctx, code)
	if err != nil {
		return nil, db.MapError(err, "permission")
	}
	if !exists {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "permission %s not found", code)
	}
	if err := s.repo.SetDefault(ctx, role, code, input.Granted); err != nil {
		return nil, db.MapError(err, "permission")
	}
	return &MatrixCell{Role: role, PermissionCode: code, Granted: input.Granted}, nil
}

func (s *service) ActiveCodes(ctx context.Context) ([]string, error) {
	codes, err := s.repo.ActiveCodes(ctx)
	if err != nil {
		return nil, db.MapError(err, "permission")
	}
	return codes, nil
}

func (s *service) GrantedCodes(ctx context.Context, role enums.MatrixRole) ([]string, error) {
	codes, err := s.repo.GrantedCodes(ctx, role)
	if err != nil {
		return nil, db.MapError(err, "permission")
	}
	return codes, nil
}
