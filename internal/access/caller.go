package access

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

// Caller is the authenticated user before any venue is in play.
type Caller struct {
	UserID     uuid.UUID
	TgUserID   int64
	SystemRole enums.SystemRole
}

func (c Caller) IsSuperAdmin() bool { return c.SystemRole == enums.SystemRoleSuperAdmin }

// IsElevated is true for SUPER_ADMIN and MODERATOR.
func (c Caller) IsElevated() bool { return c.SystemRole.IsElevated() }

type callerKey struct{}
type grantKey struct{}

func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

func CallerFrom(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(Caller)
	return caller, ok
}

func WithGrant(ctx context.Context, grant *Grant) context.Context {
	return context.WithValue(ctx, grantKey{}, grant)
}

func GrantFrom(ctx context.Context) (*Grant, bool) {
	grant, ok := ctx.Value(grantKey{}).(*Grant)
	return grant, ok && grant != nil
}
