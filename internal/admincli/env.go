package admincli

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/venueops-backend/pkg/config"
	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

// env is the shared bootstrap every subcommand runs against.
type env struct {
	cfg  *config.Config
	logg *logger.Logger
	db   *db.Client
}

func bootstrap(ctx context.Context) (*env, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logg := logger.New(logger.Options{
		ServiceName: "venueops-admin",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	client, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &env{cfg: cfg, logg: logg, db: client}, nil
}

func (e *env) close() {
	if err := e.db.Close(); err != nil {
		e.logg.Error(context.Background(), "error closing database", err)
	}
}
