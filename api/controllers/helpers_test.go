package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/internal/access"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
)

func ownerGrant() *access.Grant {
	role := enums.VenueRoleOwner
	return &access.Grant{UserID: uuid.New(), VenueID: uuid.New(), VenueRole: &role}
}

func withGrant(req *http.Request, grant *access.Grant) *http.Request {
	ctx := access.WithCaller(req.Context(), access.Caller{UserID: grant.UserID, SystemRole: grant.SystemRole})
	return req.WithContext(access.WithGrant(ctx, grant))
}

func withCaller(req *http.Request, caller access.Caller) *http.Request {
	return req.WithContext(access.WithCaller(req.Context(), caller))
}

func withParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func serve(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	envelope := struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, rec.Body.String())
	}
	return envelope.Error.Code
}
