package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/venueops-backend/pkg/config"
	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
	"github.com/angelmondragon/venueops-backend/pkg/migrate"
)

// gooseCommands pass straight through to goose.
var gooseCommands = map[string]bool{
	"up":     true,
	"down":   true,
	"redo":   true,
	"status": true,
}

const usage = "up|down|redo|reset|status|pending|version|create|validate"

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: "+usage)
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory; empty uses the embedded set")
	name := flag.String("name", "", "migration name for -cmd=create (create_<table> scaffolds a table)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	confirm := flag.Bool("yes", false, "required for -cmd=reset")
	flag.Parse()

	cfg, err := config.Load()
	exitOn(context.Background(), logg, "load config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	source := *dir
	if source == "" {
		source = "embedded"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"cmd":    *cmd,
		"source": source,
	})

	switch *cmd {
	case "create":
		if *dir == "" {
			exitOn(ctx, logg, "create", fmt.Errorf("-dir is required for create"))
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		exitOn(ctx, logg, "create migration", err)
		fmt.Println("created migration:", path)
		return
	case "validate":
		fsys, root := migrate.Embedded(), "migrations"
		if *dir != "" {
			fsys, root = os.DirFS(*dir), "."
		}
		exitOn(ctx, logg, "validate migrations", migrate.ValidateFS(fsys, root))
		versions, err := migrate.Versions(fsys, root)
		exitOn(ctx, logg, "list versions", err)
		if len(versions) == 0 {
			exitOn(ctx, logg, "list versions", fmt.Errorf("no migrations found"))
		}
		fmt.Printf("migration validation passed: %d migrations, latest %s\n", len(versions), versions[len(versions)-1])
		return
	case "reset":
		if cfg.App.IsProd() {
			exitOn(ctx, logg, "reset", fmt.Errorf("reset is disabled in %s", cfg.App.Env))
		}
		if !*confirm {
			exitOn(ctx, logg, "reset", fmt.Errorf("reset drops every table; pass -yes to confirm"))
		}
	case "pending":
	case "version":
		if strings.TrimSpace(*version) == "" {
			exitOn(ctx, logg, "version", fmt.Errorf("missing -version"))
		}
	default:
		if !gooseCommands[*cmd] {
			exitOn(ctx, logg, "parse command", fmt.Errorf("unknown -cmd %q (want %s)", *cmd, usage))
		}
	}

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	exitOn(ctx, logg, "bootstrap database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	exitOn(ctx, logg, "open sql handle", err)

	switch *cmd {
	case "pending":
		var pending []string
		pending, err = migrate.Pending(ctx, sqlDB, *dir)
		if err == nil {
			fmt.Printf("%d pending migrations\n", len(pending))
			for _, v := range pending {
				fmt.Println(" ", v)
			}
		}
	case "version":
		err = migrate.MigrateToVersion(ctx, sqlDB, *dir, *version)
	default:
		err = migrate.Run(ctx, sqlDB, *dir, *cmd)
	}
	exitOn(ctx, logg, "goose "+*cmd, err)
	logg.Info(ctx, "migrate finished")
}

func exitOn(ctx context.Context, logg *logger.Logger, step string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "migrate failed: "+step, err)
	fmt.Fprintf(os.Stderr, "%s: %v\n", step, err)
	os.Exit(1)
}
