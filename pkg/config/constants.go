package config

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv        = "VENUEOPS_APP_ENV"
	EnvPort          = "VENUEOPS_APP_PORT"
	EnvTimezone      = "VENUEOPS_TIMEZONE"
	EnvDBDSN         = "VENUEOPS_DB_DSN"
	EnvDBHost        = "VENUEOPS_DB_HOST"
	EnvDBUser        = "VENUEOPS_DB_USER"
	EnvDBName        = "VENUEOPS_DB_NAME"
	EnvRedisURL      = "VENUEOPS_REDIS_URL"
	EnvJWTSecret     = "VENUEOPS_JWT_SECRET"
	EnvJWTExpMins    = "VENUEOPS_JWT_EXPIRATION_MINUTES"
	EnvBotToken      = "VENUEOPS_TELEGRAM_BOT_TOKEN"
	EnvSuperAdminIDs = "VENUEOPS_SUPER_ADMIN_TG_IDS"
	EnvUseSQLite     = "VENUEOPS_USE_SQLITE"
	EnvMaxUploadMB   = "VENUEOPS_MAX_UPLOAD_MB"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
