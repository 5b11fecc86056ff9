package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/internal/access"
)

type contextKey string

const ctxAccessID contextKey = "access_id"

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if caller, ok := access.CallerFrom(ctx); ok && caller.UserID != uuid.Nil {
		return caller.UserID.String()
	}
	return ""
}

func VenueIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if grant, ok := access.GrantFrom(ctx); ok {
		return grant.VenueID.String()
	}
	return ""
}

// AccessIDFromContext returns the jti of the token that authenticated the request.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

// WithCaller injects an authenticated caller; handler tests use it to skip Auth.
func WithCaller(ctx context.Context, caller access.Caller) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return access.WithCaller(ctx, caller)
}

// WithGrant injects a resolved venue grant for downstream handlers.
func WithGrant(ctx context.Context, grant *access.Grant) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return access.WithGrant(ctx, grant)
}

func withAccessID(ctx context.Context, accessID string) context.Context {
	return context.WithValue(ctx, ctxAccessID, accessID)
}
