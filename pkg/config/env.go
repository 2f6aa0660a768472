package config

const (
	EnvPrefix = "CHURCHHUB"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "CHURCHHUB_APP_ENV"
	EnvPort     = "CHURCHHUB_APP_PORT"
	EnvLogLevel = "CHURCHHUB_LOG_LEVEL"

	EnvDBDSN  = "CHURCHHUB_DB_DSN"
	EnvDBHost = "CHURCHHUB_DB_HOST"
	EnvDBUser = "CHURCHHUB_DB_USER"
	EnvDBName = "CHURCHHUB_DB_NAME"

	EnvRedisURL               = "CHURCHHUB_REDIS_URL"
	EnvJWTSecret              = "CHURCHHUB_JWT_SECRET"
	EnvJWTIssuer              = "CHURCHHUB_JWT_ISSUER"
	EnvJWTExpMins             = "CHURCHHUB_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "CHURCHHUB_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID           = "CHURCHHUB_GCP_PROJECT_ID"
	EnvGCSBucket              = "CHURCHHUB_GCS_BUCKET_NAME"
	EnvIdentityProjectID      = "CHURCHHUB_IDENTITY_PROJECT_ID"
	EnvAdminSeedEmails        = "CHURCHHUB_ADMIN_SEED_EMAILS"
	EnvCORSAllowedOrigins     = "CHURCHHUB_CORS_ALLOWED_ORIGINS"
	EnvCronRejectedRetention  = "CHURCHHUB_CRON_REJECTED_RETENTION"
	EnvCronPrayerArchiveAfter = "CHURCHHUB_CRON_PRAYER_ARCHIVE_AFTER"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
