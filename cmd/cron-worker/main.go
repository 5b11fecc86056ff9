package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/venueops-backend/internal/cron"
	"github.com/angelmondragon/venueops-backend/internal/notify"
	"github.com/angelmondragon/venueops-backend/pkg/config"
	"github.com/angelmondragon/venueops-backend/pkg/db"
	"github.com/angelmondragon/venueops-backend/pkg/instance"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
	"github.com/angelmondragon/venueops-backend/pkg/metrics"
	"github.com/angelmondragon/venueops-backend/pkg/migrate"
	"github.com/angelmondragon/venueops-backend/pkg/redis"
)

const lockName = "cron-worker"

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	only := flag.String("job", "", "with -once, run just this job")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var lock cron.Lock = cron.LocalLock{}
	if redis.Configured(cfg.Redis) {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		redisLock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName, cfg.App.Env), 0)
		if err != nil {
			logg.Error(context.Background(), "failed to create cron lock", err)
			os.Exit(1)
		}
		lock = redisLock
	} else {
		logg.Warn(context.Background(), "redis not configured; running without a distributed lock")
	}

	loc, err := cfg.App.Location()
	if err != nil {
		logg.Error(context.Background(), "invalid timezone", err)
		os.Exit(1)
	}

	jobMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	notifier := notify.NewTelegramSender(cfg.Notify, cfg.Telegram,
		notify.WithMetrics(metrics.NewNotifyMetrics(prometheus.DefaultRegisterer)),
		notify.WithLogger(logg),
	)

	reminders, err := cron.NewShiftRemindersJob(cron.ShiftRemindersJobParams{
		Logger:   logg,
		DB:       dbClient.DB(),
		Notifier: notifier,
		Location: loc,
		Lead:     time.Duration(cfg.Cron.ReminderLeadHours) * time.Hour,
		Window:   time.Duration(cfg.Cron.ReminderWindowMinutes) * time.Minute,
		Metrics:  jobMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reminders job", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(reminders),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Cron.Interval.String(),
		"instance": instance.GetID(),
	})

	if *once {
		run := service.RunOnce
		if *only != "" {
			run = func(ctx context.Context) error { return service.RunJob(ctx, *only) }
		}
		if err := run(ctx); err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
