package controllers

import (
	"net/http"

	"github.com/angelmondragon/venueops-backend/internal/access"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
)

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}

func callerFrom(r *http.Request) (access.Caller, error) {
	caller, ok := access.CallerFrom(r.Context())
	if !ok {
		return access.Caller{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing caller")
	}
	return caller, nil
}

// grantFrom reads the grant seeded by the venue middleware.
func grantFrom(r *http.Request) (*access.Grant, error) {
	grant, ok := access.GrantFrom(r.Context())
	if !ok || grant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "venue grant missing")
	}
	return grant, nil
}
