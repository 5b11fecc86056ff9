package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/venueops-backend/api/routes"
	"github.com/angelmondragon/venueops-backend/internal/access"
	"github.com/angelmondragon/venueops-backend/internal/adjustments"
	"github.com/angelmondragon/venueops-backend/internal/auth"
	"github.com/angelmondragon/venueops-backend/internal/memberships"
	"github.com/angelmondragon/venueops-backend/internal/notify"
	"github.com/angelmondragon/venueops-backend/internal/payroll"
	"github.com/angelmondragon/venueops-backend/internal/permissions"
	"github.com/angelmondragon/venueops-backend/internal/positions"
	"github.com/angelmondragon/venueops-backend/internal/reports"
	"github.com/angelmondragon/venueops-backend/internal/scheduling"
	"github.com/angelmondragon/venueops-backend/internal/users"
	"github.com/angelmondragon/venueops-backend/internal/venues"
	"github.com/angelmondragon/venueops-backend/pkg/auth/session"
	"github.com/angelmondragon/venueops-backend/pkg/auth/telegram"
	"github.com/angelmondragon/venueops-backend/pkg/config"
	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
	"github.com/angelmondragon/venueops-backend/pkg/metrics"
	"github.com/angelmondragon/venueops-backend/pkg/redis"
	"github.com/angelmondragon/venueops-backend/pkg/storage/local"
)

// wire builds every service the router needs. redisClient may be nil.
func wire(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, reg prometheus.Registerer) (routes.Dependencies, error) {
	var deps routes.Dependencies
	conn := dbClient.DB()

	loc, err := cfg.App.Location()
	if err != nil {
		return deps, fmt.Errorf("timezone: %w", err)
	}

	store, err := local.New(cfg.Storage, logg)
	if err != nil {
		return deps, fmt.Errorf("storage: %w", err)
	}

	notifier := notify.NewTelegramSender(cfg.Notify, cfg.Telegram,
		notify.WithMetrics(metrics.NewNotifyMetrics(reg)),
		notify.WithLogger(logg),
	)

	permissionsSvc, err := permissions.NewService(dbClient, permissions.NewRepository(conn), logg)
	if err != nil {
		return deps, fmt.Errorf("permissions service: %w", err)
	}
	if cfg.FeatureFlags.SyncPermissionsOnBoot {
		result, err := permissionsSvc.Sync(ctx)
		if err != nil {
			return deps, fmt.Errorf("sync permission registry: %w", err)
		}
		logg.Info(logg.WithFields(ctx, map[string]any{
			"upserted":     result.Upserted,
			"deactivated":  result.Deactivated,
			"matrix_added": result.MatrixAdded,
		}), "permissions.synced")
	}

	grants, err := access.NewResolver(conn, permissionsSvc)
	if err != nil {
		return deps, fmt.Errorf("grant resolver: %w", err)
	}

	usersSvc, err := users.NewService(users.NewRepository(conn), logg)
	if err != nil {
		return deps, fmt.Errorf("users service: %w", err)
	}
	membershipsSvc, err := memberships.NewService(dbClient, memberships.NewRepository(conn), loc, logg)
	if err != nil {
		return deps, fmt.Errorf("memberships service: %w", err)
	}
	venuesSvc, err := venues.NewService(dbClient, venues.NewRepository(conn), membershipsSvc, store, logg)
	if err != nil {
		return deps, fmt.Errorf("venues service: %w", err)
	}
	positionsSvc, err := positions.NewService(dbClient, positions.NewRepository(conn))
	if err != nil {
		return deps, fmt.Errorf("positions service: %w", err)
	}
	schedulingSvc, err := scheduling.NewService(dbClient, scheduling.NewRepository(conn), logg)
	if err != nil {
		return deps, fmt.Errorf("scheduling service: %w", err)
	}
	reportsSvc, err := reports.NewService(dbClient, reports.NewRepository(conn), store, cfg.Storage.MaxUploadBytes(), logg)
	if err != nil {
		return deps, fmt.Errorf("reports service: %w", err)
	}
	payrollSvc, err := payroll.NewService(payroll.NewRepository(conn))
	if err != nil {
		return deps, fmt.Errorf("payroll service: %w", err)
	}
	adjustmentsSvc, err := adjustments.NewService(dbClient, adjustments.NewRepository(conn), notifier, logg)
	if err != nil {
		return deps, fmt.Errorf("adjustments service: %w", err)
	}

	verifier, err := telegram.NewVerifier(cfg.Telegram.BotToken, cfg.Telegram.InitDataMaxAge)
	if err != nil {
		return deps, fmt.Errorf("telegram verifier: %w", err)
	}
	authParams := auth.ServiceParams{
		Verifier:       verifier,
		Users:          usersSvc,
		Invites:        membershipsSvc,
		JWTConfig:      cfg.JWT,
		TelegramConfig: cfg.Telegram,
		Logger:         logg,
	}
	if redisClient != nil {
		sessions, err := session.NewManager(redisClient, cfg.JWT)
		if err != nil {
			return deps, fmt.Errorf("session manager: %w", err)
		}
		authParams.SessionManager = sessions
		deps.Sessions = sessions
		deps.Redis = redisClient
	}
	authSvc, err := auth.NewService(authParams)
	if err != nil {
		return deps, fmt.Errorf("auth service: %w", err)
	}

	deps.DB = dbClient
	deps.Storage = store
	deps.Grants = grants
	deps.Auth = authSvc
	deps.Users = usersSvc
	deps.Venues = venuesSvc
	deps.Memberships = membershipsSvc
	deps.Positions = positionsSvc
	deps.Scheduling = schedulingSvc
	deps.Reports = reportsSvc
	deps.Payroll = payrollSvc
	deps.Adjustments = adjustmentsSvc
	deps.Permissions = permissionsSvc
	return deps, nil
}
