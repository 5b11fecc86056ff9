package access

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
)

// Flags are the effective position capabilities for one venue.
type Flags struct {
	CanMakeReports       bool `json:"can_make_reports"`
	CanViewReports       bool `json:"can_view_reports"`
	CanViewRevenue       bool `json:"can_view_revenue"`
	CanEditSchedule      bool `json:"can_edit_schedule"`
	CanViewAdjustments   bool `json:"can_view_adjustments"`
	CanManageAdjustments bool `json:"can_manage_adjustments"`
	CanResolveDisputes   bool `json:"can_resolve_disputes"`
}

func allFlags() Flags {
	return Flags{
		CanMakeReports:       true,
		CanViewReports:       true,
		CanViewRevenue:       true,
		CanEditSchedule:      true,
		CanViewAdjustments:   true,
		CanManageAdjustments: true,
		CanResolveDisputes:   true,
	}
}

// FlagsFromPosition copies the stored flags and applies the read-time
// implication make_reports => view_reports, view_revenue.
func FlagsFromPosition(p *models.VenuePosition) Flags {
	if p == nil {
		return Flags{}
	}
	return Flags{
		CanMakeReports:       p.CanMakeReports,
		CanViewReports:       p.CanViewReports || p.CanMakeReports,
		CanViewRevenue:       p.CanViewRevenue || p.CanMakeReports,
		CanEditSchedule:      p.CanEditSchedule,
		CanViewAdjustments:   p.CanViewAdjustments,
		CanManageAdjustments: p.CanManageAdjustments,
		CanResolveDisputes:   p.CanResolveDisputes,
	}
}

// Grant is the caller's resolved authority inside one venue. It is derived
// per request and never cached.
type Grant struct {
	UserID      uuid.UUID
	VenueID     uuid.UUID
	SystemRole  enums.SystemRole
	VenueRole   *enums.VenueRole
	Permissions []string
	Position    *models.VenuePosition
	Flags       Flags
}

func (g Grant) IsSuperAdmin() bool {
	return g.SystemRole == enums.SystemRoleSuperAdmin
}

func (g Grant) IsModerator() bool {
	return g.SystemRole == enums.SystemRoleModerator
}

// IsMember is true for active venue members and for system roles.
func (g Grant) IsMember() bool {
	return g.VenueRole != nil || g.SystemRole.IsElevated()
}

func (g Grant) IsOwner() bool {
	return g.VenueRole != nil && *g.VenueRole == enums.VenueRoleOwner
}

// OwnerOrSuperAdmin excludes moderators on purpose.
func (g Grant) OwnerOrSuperAdmin() bool {
	return g.IsSuperAdmin() || g.IsOwner()
}

func (g Grant) ScheduleEditor() bool {
	return g.OwnerOrSuperAdmin() || g.Flags.CanEditSchedule
}

func (g Grant) ReportMaker() bool {
	return g.OwnerOrSuperAdmin() || g.Flags.CanMakeReports
}

func (g Grant) ReportViewer() bool {
	return g.OwnerOrSuperAdmin() || g.Flags.CanViewReports || g.Flags.CanMakeReports
}

func (g Grant) RevenueViewer() bool {
	return g.OwnerOrSuperAdmin() || g.Flags.CanViewRevenue || g.Flags.CanMakeReports
}

func (g Grant) AdjustmentViewer() bool {
	return g.OwnerOrSuperAdmin() || g.Flags.CanViewAdjustments || g.Flags.CanManageAdjustments
}

func (g Grant) AdjustmentManager() bool {
	return g.OwnerOrSuperAdmin() || g.Flags.CanManageAdjustments
}

func (g Grant) DisputeResolver() bool {
	return g.OwnerOrSuperAdmin() || g.Flags.CanResolveDisputes || g.Flags.CanManageAdjustments
}

// HasPermission checks the matrix-derived permission codes.
func (g Grant) HasPermission(code string) bool {
	for _, c := range g.Permissions {
		if c == code {
			return true
		}
	}
	return false
}

// Require converts a failed predicate into a FORBIDDEN error.
func Require(ok bool, reason string) error {
	if ok {
		return nil
	}
	if reason == "" {
		reason = "forbidden"
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, reason)
}
