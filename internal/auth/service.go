package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/internal/users"
	pkgAuth "github.com/angelmondragon/venueops-backend/pkg/auth"
	"github.com/angelmondragon/venueops-backend/pkg/auth/session"
	"github.com/angelmondragon/venueops-backend/pkg/auth/telegram"
	"github.com/angelmondragon/venueops-backend/pkg/config"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

const invalidInitDataMessage = "invalid telegram init data"

// Service defines the behavior needed by the auth controller.
type Service interface {
	TelegramLogin(ctx context.Context, initData string) (*LoginResponse, error)
	Logout(ctx context.Context, accessID string) error
}

type initDataVerifier interface {
	Verify(initData string) (telegram.InitData, error)
}

type userUpserter interface {
	UpsertTelegram(ctx context.Context, identity users.TelegramIdentity, superAdmin bool) (*models.User, error)
}

type inviteAcceptor interface {
	AcceptPendingInvites(ctx context.Context, userID uuid.UUID, username string) (int, error)
}

type sessionManager interface {
	Create(ctx context.Context, accessID string, userID uuid.UUID) error
	Revoke(ctx context.Context, accessID string) error
}

type service struct {
	verifier initDataVerifier
	users    userUpserter
	invites  inviteAcceptor
	session  sessionManager
	jwtCfg   config.JWTConfig
	tgCfg    config.TelegramConfig
	logg     *logger.Logger
	now      func() time.Time
}

// ServiceParams bundles the dependencies required to build an auth service.
// SessionManager may be nil, in which case tokens are not revocable.
type ServiceParams struct {
	Verifier       initDataVerifier
	Users          userUpserter
	Invites        inviteAcceptor
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	TelegramConfig config.TelegramConfig
	Logger         *logger.Logger
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Verifier == nil {
		return nil, fmt.Errorf("init data verifier is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users service is required")
	}
	if params.Invites == nil {
		return nil, fmt.Errorf("invite acceptor is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		verifier: params.Verifier,
		users:    params.Users,
		invites:  params.Invites,
		session:  params.SessionManager,
		jwtCfg:   params.JWTConfig,
		tgCfg:    params.TelegramConfig,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// TelegramLogin verifies initData, upserts the user, accepts invites waiting
// for their username and mints a session token.
func (s *service) TelegramLogin(ctx context.Context, initData string) (*LoginResponse, error) {
	if strings.TrimSpace(initData) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "init_data is required")
	}
	data, err := s.verifier.Verify(initData)
	if err != nil {
		if errors.Is(err, telegram.ErrExpired) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "telegram init data expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, invalidInitDataMessage)
	}

	user, err := s.users.UpsertTelegram(ctx, users.TelegramIdentity{
		TgUserID: data.User.ID,
		Username: data.User.Username,
		FullName: data.User.FullName(),
	}, s.tgCfg.IsSuperAdmin(data.User.ID))
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithUserID(ctx, user.ID.String())

	accepted, err := s.invites.AcceptPendingInvites(ctx, user.ID, data.User.Username)
	if err != nil {
		// the login itself stays valid; invites are retried next login
		s.logg.Error(ctx, "auth.accept_invites_failed", err)
		accepted = 0
	}

	now := s.now().UTC()
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID:   user.ID,
		TgUserID: user.TgUserID,
		JTI:      accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	if s.session != nil {
		if err := s.session.Create(ctx, accessID, user.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
		}
	}

	s.logg.Info(s.logg.WithField(ctx, "accepted_invites", accepted), "auth.login")
	return &LoginResponse{
		AccessToken:     token,
		ExpiresAt:       now.Add(s.jwtCfg.TTL()),
		User:            users.FromModel(user),
		AcceptedInvites: accepted,
	}, nil
}

// Logout revokes the session behind the token's jti. Without a session
// store it is a no-op.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if s.session == nil || strings.TrimSpace(accessID) == "" {
		return nil
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}
