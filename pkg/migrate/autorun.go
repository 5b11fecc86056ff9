package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/venueops-backend/pkg/config"
	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

// MaybeRunDev brings a dev Postgres up to the embedded migrations when
// AUTO_MIGRATE is on. SQLite is bootstrapped by db.New and is skipped here.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	switch {
	case !cfg.App.IsDev(), !cfg.FeatureFlags.AutoMigrate, cfg.FeatureFlags.UseSQLite:
		return nil
	}

	versions, err := Versions(Embedded(), embeddedDir)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		return fmt.Errorf("no embedded migrations")
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"migrations": len(versions),
		"target":     versions[len(versions)-1],
	})
	logg.Info(ctx, "migrate.dev_autorun_started")
	if err := Run(ctx, sqlDB, "", "up"); err != nil {
		return fmt.Errorf("dev auto-migrate: %w", err)
	}
	logg.Info(ctx, "migrate.dev_autorun_completed")
	return nil
}
