package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Cookie        CookieConfig
	Telegram      TelegramConfig
	Notify        NotifyConfig
	Storage       StorageConfig
	AuthRateLimit AuthRateLimitConfig
	Cron          CronConfig
	FeatureFlags  FeatureFlagsConfig
}

// Load reads the process environment once. Business packages receive the
// resulting struct (or one of its sections) through their constructors.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvTimezone, err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"VENUEOPS_APP_ENV" required:"true"`
	Port         string   `envconfig:"VENUEOPS_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"VENUEOPS_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"VENUEOPS_LOG_WARN_STACK" default:"false"`
	Timezone     string   `envconfig:"VENUEOPS_TIMEZONE" default:"UTC"`
	CORSOrigins  []string `envconfig:"VENUEOPS_CORS_ORIGINS" default:"http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	switch strings.ToLower(strings.TrimSpace(a.Env)) {
	case AppEnvDev, "development", "local":
		return true
	}
	return false
}

func (a AppConfig) IsProd() bool {
	switch strings.ToLower(strings.TrimSpace(a.Env)) {
	case AppEnvProd, "production":
		return true
	}
	return false
}

// Location resolves the wall-clock zone venues operate in. Shift start times
// are interpreted in this zone.
func (a AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

type DBConfig struct {
	DSN        string `envconfig:"VENUEOPS_DB_DSN"`
	Driver     string `envconfig:"VENUEOPS_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"VENUEOPS_SQLITE_PATH" default:"venueops.db"`

	LegacyHost     string `envconfig:"VENUEOPS_DB_HOST"`
	LegacyPort     int    `envconfig:"VENUEOPS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VENUEOPS_DB_USER"`
	LegacyPassword string `envconfig:"VENUEOPS_DB_PASSWORD"`
	LegacyName     string `envconfig:"VENUEOPS_DB_NAME"`
	LegacySSLMode  string `envconfig:"VENUEOPS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VENUEOPS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VENUEOPS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VENUEOPS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VENUEOPS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"VENUEOPS_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VENUEOPS_REDIS_URL"`
	Address      string        `envconfig:"VENUEOPS_REDIS_ADDR"`
	Password     string        `envconfig:"VENUEOPS_REDIS_PASSWORD"`
	DB           int           `envconfig:"VENUEOPS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VENUEOPS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VENUEOPS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VENUEOPS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VENUEOPS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VENUEOPS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VENUEOPS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VENUEOPS_JWT_ISSUER" default:"venueops-api"`
	Audience          string `envconfig:"VENUEOPS_JWT_AUDIENCE" default:"venueops-miniapp"`
	ExpirationMinutes int    `envconfig:"VENUEOPS_JWT_EXPIRATION_MINUTES" default:"10080"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// CookieConfig controls the session cookie handed to the Mini App.
type CookieConfig struct {
	Name     string `envconfig:"VENUEOPS_COOKIE_NAME" default:"access_token"`
	Domain   string `envconfig:"VENUEOPS_COOKIE_DOMAIN"`
	Secure   bool   `envconfig:"VENUEOPS_COOKIE_SECURE" default:"true"`
	SameSite string `envconfig:"VENUEOPS_COOKIE_SAMESITE" default:"lax"`
}

type TelegramConfig struct {
	BotToken       string        `envconfig:"VENUEOPS_TELEGRAM_BOT_TOKEN" required:"true"`
	InitDataMaxAge time.Duration `envconfig:"VENUEOPS_TELEGRAM_INIT_DATA_MAX_AGE" default:"24h"`
	SuperAdminIDs  []int64       `envconfig:"VENUEOPS_SUPER_ADMIN_TG_IDS"`
	APIBaseURL     string        `envconfig:"VENUEOPS_TELEGRAM_API_BASE_URL" default:"https://api.telegram.org"`
}

// IsSuperAdmin reports whether the Telegram account is on the bootstrap allow-list.
func (t TelegramConfig) IsSuperAdmin(tgUserID int64) bool {
	for _, id := range t.SuperAdminIDs {
		if id == tgUserID {
			return true
		}
	}
	return false
}

type NotifyConfig struct {
	Enabled       bool          `envconfig:"VENUEOPS_NOTIFY_ENABLED" default:"true"`
	BotServiceURL string        `envconfig:"VENUEOPS_BOT_SERVICE_URL"`
	BotSecret     string        `envconfig:"VENUEOPS_BOT_SECRET"`
	Timeout       time.Duration `envconfig:"VENUEOPS_NOTIFY_TIMEOUT" default:"5s"`
}

type StorageConfig struct {
	UploadDir   string `envconfig:"VENUEOPS_UPLOAD_DIR" default:"./uploads"`
	MaxUploadMB int    `envconfig:"VENUEOPS_MAX_UPLOAD_MB" default:"10"`
}

// MaxUploadBytes converts the configured cap into bytes.
func (s StorageConfig) MaxUploadBytes() int64 {
	if s.MaxUploadMB <= 0 {
		return 0
	}
	return int64(s.MaxUploadMB) << 20
}

type AuthRateLimitConfig struct {
	TelegramWindow    time.Duration `envconfig:"VENUEOPS_AUTH_RATE_LIMIT_TELEGRAM_WINDOW" default:"1m"`
	TelegramIPLimit   int           `envconfig:"VENUEOPS_AUTH_RATE_LIMIT_TELEGRAM_IP_LIMIT" default:"30"`
	TelegramUserLimit int           `envconfig:"VENUEOPS_AUTH_RATE_LIMIT_TELEGRAM_USER_LIMIT" default:"10"`
}

type CronConfig struct {
	Interval              time.Duration `envconfig:"VENUEOPS_CRON_INTERVAL" default:"5m"`
	ReminderLeadHours     int           `envconfig:"VENUEOPS_REMINDER_LEAD_HOURS" default:"18"`
	ReminderWindowMinutes int           `envconfig:"VENUEOPS_REMINDER_WINDOW_MINUTES" default:"15"`
}

type FeatureFlagsConfig struct {
	UseSQLite             bool `envconfig:"VENUEOPS_USE_SQLITE" default:"false"`
	AutoMigrate           bool `envconfig:"VENUEOPS_AUTO_MIGRATE" default:"false"`
	SyncPermissionsOnBoot bool `envconfig:"VENUEOPS_SYNC_PERMISSIONS_ON_BOOT" default:"true"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
