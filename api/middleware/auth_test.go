package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/venueops-backend/internal/access"
	"github.com/angelmondragon/venueops-backend/internal/users"
	"github.com/angelmondragon/venueops-backend/pkg/auth"
	"github.com/angelmondragon/venueops-backend/pkg/auth/session"
	"github.com/angelmondragon/venueops-backend/pkg/config"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
)

func testJWT() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "venueops-api", Audience: "venueops-miniapp", ExpirationMinutes: 60}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, userID uuid.UUID) (string, string) {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{UserID: userID, TgUserID: 77, JTI: accessID})
	require.NoError(t, err)
	return token, accessID
}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(ctx context.Context, accessID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.ok, nil
}

type stubCallerLoader struct {
	role enums.SystemRole
	err  error
}

func (s stubCallerLoader) Me(_ context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserDTO{ID: userID, TgUserID: 77, SystemRole: s.role}, nil
}

type capturedRequest struct {
	caller   access.Caller
	accessID string
	called   bool
}

func captureHandler(c *capturedRequest) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.caller, _ = access.CallerFrom(r.Context())
		c.accessID = AccessIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	var got capturedRequest
	handler := Auth(testJWT(), "access_token", stubSessionVerifier{ok: true}, stubCallerLoader{}, nil)(captureHandler(&got))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.False(t, got.called)
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWT(), "access_token", stubSessionVerifier{ok: true}, stubCallerLoader{}, nil)(captureHandler(&capturedRequest{}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthAcceptsBearerToken(t *testing.T) {
	userID := uuid.New()
	token, accessID := mintTestToken(t, testJWT(), userID)
	var got capturedRequest
	handler := Auth(testJWT(), "access_token", stubSessionVerifier{ok: true}, stubCallerLoader{role: enums.SystemRoleSuperAdmin}, nil)(captureHandler(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, userID, got.caller.UserID)
	assert.Equal(t, enums.SystemRoleSuperAdmin, got.caller.SystemRole, "role comes from the database, not the token")
	assert.Equal(t, accessID, got.accessID)
}

func TestAuthAcceptsSessionCookie(t *testing.T) {
	userID := uuid.New()
	token, _ := mintTestToken(t, testJWT(), userID)
	var got capturedRequest
	handler := Auth(testJWT(), "access_token", stubSessionVerifier{ok: true}, stubCallerLoader{}, nil)(captureHandler(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, userID, got.caller.UserID)
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	token, _ := mintTestToken(t, testJWT(), uuid.New())
	handler := Auth(testJWT(), "access_token", stubSessionVerifier{ok: false}, stubCallerLoader{}, nil)(captureHandler(&capturedRequest{}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthRejectsDeletedUser(t *testing.T) {
	token, _ := mintTestToken(t, testJWT(), uuid.New())
	loader := stubCallerLoader{err: pkgerrors.New(pkgerrors.CodeNotFound, "user not found")}
	handler := Auth(testJWT(), "access_token", stubSessionVerifier{ok: true}, loader, nil)(captureHandler(&capturedRequest{}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRequireSystemRole(t *testing.T) {
	var got capturedRequest
	handler := RequireSystemRole(nil, enums.SystemRoleSuperAdmin)(captureHandler(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithCaller(req.Context(), access.Caller{UserID: uuid.New(), SystemRole: enums.SystemRoleModerator}))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithCaller(req.Context(), access.Caller{UserID: uuid.New(), SystemRole: enums.SystemRoleSuperAdmin}))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
}
