package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/db/models"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

const (
	maxFullNameLen  = 128
	maxShortNameLen = 64
)

type usersRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByTgUserID(ctx context.Context, tgUserID int64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateColumns(ctx context.Context, id uuid.UUID, values map[string]any) error
	SetSystemRole(ctx context.Context, id uuid.UUID, role enums.SystemRole) error
}

// Service exposes self-service profile operations plus the identity upsert
// used by the Telegram login.
type Service interface {
	Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	Profile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error)
	NotificationSettings(ctx context.Context, userID uuid.UUID) (*NotificationSettingsDTO, error)
	UpdateNotificationSettings(ctx context.Context, userID uuid.UUID, input UpdateNotificationSettingsInput) (*NotificationSettingsDTO, error)
	UpsertTelegram(ctx context.Context, identity TelegramIdentity, superAdmin bool) (*models.User, error)
	SetSystemRole(ctx context.Context, lookup string, role enums.SystemRole) (*UserDTO, error)
}

type service struct {
	repo usersRepository
	logg *logger.Logger
}

func NewService(repo usersRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, db.MapError(err, "user")
	}
	return user, nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profileFromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error) {
	values := map[string]any{}
	if input.FullName != nil {
		value, err := optionalName(*input.FullName, maxFullNameLen, "full_name")
		if err != nil {
			return nil, err
		}
		values["full_name"] = value
	}
	if input.ShortName != nil {
		value, err := optionalName(*input.ShortName, maxShortNameLen, "short_name")
		if err != nil {
			return nil, err
		}
		values["short_name"] = value
	}
	if err := s.repo.UpdateColumns(ctx, userID, values); err != nil {
		return nil, db.MapError(err, "user")
	}
	return s.Profile(ctx, userID)
}

func (s *service) NotificationSettings(ctx context.Context, userID uuid.UUID) (*NotificationSettingsDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return settingsFromModel(user), nil
}

func (s *service) UpdateNotificationSettings(ctx context.Context, userID uuid.UUID, input UpdateNotificationSettingsInput) (*NotificationSettingsDTO, error) {
	values := map[string]any{}
	if input.NotifyEnabled != nil {
		values["notify_enabled"] = *input.NotifyEnabled
	}
	if input.NotifyAdjustments != nil {
		values["notify_adjustments"] = *input.NotifyAdjustments
	}
	if input.NotifyShifts != nil {
		values["notify_shifts"] = *input.NotifyShifts
	}
	if err := s.repo.UpdateColumns(ctx, userID, values); err != nil {
		return nil, db.MapError(err, "user")
	}
	return s.NotificationSettings(ctx, userID)
}

// UpsertTelegram creates the user on first login, refreshes the stored
// handle on later logins and promotes allow-listed accounts to SUPER_ADMIN.
func (s *service) UpsertTelegram(ctx context.Context, identity TelegramIdentity, superAdmin bool) (*models.User, error) {
	if identity.TgUserID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "telegram user id required")
	}
	username := NormalizeUsername(identity.Username)

	user, err := s.repo.FindByTgUserID(ctx, identity.TgUserID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = &models.User{TgUserID: identity.TgUserID, SystemRole: enums.SystemRoleNone, NotifyEnabled: true, NotifyAdjustments: true, NotifyShifts: true}
		if username != "" {
			user.TgUsername = &username
		}
		if name := strings.TrimSpace(identity.FullName); name != "" {
			name = truncate(name, maxFullNameLen)
			user.FullName = &name
		}
		if superAdmin {
			user.SystemRole = enums.SystemRoleSuperAdmin
		}
		if err := s.repo.Create(ctx, user); err != nil {
			if db.IsUniqueViolation(err, "ux_users_tg_user_id") {
				// lost a race with a parallel login
				return s.repo.FindByTgUserID(ctx, identity.TgUserID)
			}
			return nil, db.MapError(err, "user")
		}
		s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "user.created")
		return user, nil
	case err != nil:
		return nil, db.MapError(err, "user")
	}

	values := map[string]any{}
	if username != "" && (user.TgUsername == nil || *user.TgUsername != username) {
		values["tg_username"] = username
		user.TgUsername = &username
	}
	if superAdmin && user.SystemRole != enums.SystemRoleSuperAdmin {
		values["system_role"] = enums.SystemRoleSuperAdmin
		user.SystemRole = enums.SystemRoleSuperAdmin
	}
	if err := s.repo.UpdateColumns(ctx, user.ID, values); err != nil {
		return nil, db.MapError(err, "user")
	}
	return user, nil
}

// SetSystemRole accepts either a numeric Telegram id or a @username.
func (s *service) SetSystemRole(ctx context.Context, lookup string, role enums.SystemRole) (*UserDTO, error) {
	if !role.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid system role %q", role)
	}
	lookup = strings.TrimSpace(lookup)
	var (
		user *models.User
		err  error
	)
	if tgID, parseErr := strconv.ParseInt(lookup, 10, 64); parseErr == nil {
		user, err = s.repo.FindByTgUserID(ctx, tgID)
	} else {
		user, err = s.repo.FindByUsername(ctx, NormalizeUsername(lookup))
		if err == nil && user == nil {
			err = gorm.ErrRecordNotFound
		}
	}
	if err != nil {
		return nil, db.MapError(err, "user")
	}
	if err := s.repo.SetSystemRole(ctx, user.ID, role); err != nil {
		return nil, db.MapError(err, "user")
	}
	user.SystemRole = role
	return FromModel(user), nil
}

func optionalName(raw string, max int, field string) (*string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(value) > max {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be at most %d characters", field, max)
	}
	return &value, nil
}

func truncate(value string, max int) string {
	if utf8.RuneCountInString(value) <= max {
		return value
	}
	return string([]rune(value)[:max])
}
