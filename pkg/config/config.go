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
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Identity      IdentityConfig
	Admin         AdminConfig
	CORS          CORSConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Media         MediaConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.Identity.ProjectID == "" {
		cfg.Identity.ProjectID = cfg.GCP.ProjectID
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CHURCHHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"CHURCHHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CHURCHHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CHURCHHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"CHURCHHUB_DB_DSN"`
	Driver string `envconfig:"CHURCHHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CHURCHHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"CHURCHHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CHURCHHUB_DB_USER"`
	LegacyPassword string `envconfig:"CHURCHHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"CHURCHHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"CHURCHHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CHURCHHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CHURCHHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CHURCHHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CHURCHHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQueryThreshold logs statements slower than this at warn. Zero disables it.
	SlowQueryThreshold time.Duration `envconfig:"CHURCHHUB_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CHURCHHUB_REDIS_URL" required:"true"`
	KeyPrefix    string        `envconfig:"CHURCHHUB_REDIS_KEY_PREFIX" default:"ch"`
	Address      string        `envconfig:"CHURCHHUB_REDIS_ADDR"`
	Password     string        `envconfig:"CHURCHHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"CHURCHHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CHURCHHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CHURCHHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CHURCHHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CHURCHHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CHURCHHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig covers the access tokens minted for password-based administrators.
type JWTConfig struct {
	Secret                 string `envconfig:"CHURCHHUB_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"CHURCHHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"CHURCHHUB_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"CHURCHHUB_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CHURCHHUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CHURCHHUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CHURCHHUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CHURCHHUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CHURCHHUB_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow             time.Duration `envconfig:"CHURCHHUB_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginCredentialLimit    int           `envconfig:"CHURCHHUB_AUTH_RATE_LIMIT_LOGIN_CREDENTIAL_LIMIT" default:"5"`
	LoginIPLimit            int           `envconfig:"CHURCHHUB_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow          time.Duration `envconfig:"CHURCHHUB_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterCredentialLimit int           `envconfig:"CHURCHHUB_AUTH_RATE_LIMIT_REGISTER_CREDENTIAL_LIMIT" default:"3"`
	RegisterIPLimit         int           `envconfig:"CHURCHHUB_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CHURCHHUB_AUTO_MIGRATE" default:"false"`
}

// IdentityConfig points at the external identity provider whose ID tokens members present.
type IdentityConfig struct {
	ProjectID    string        `envconfig:"CHURCHHUB_IDENTITY_PROJECT_ID"`
	JWKSURL      string        `envconfig:"CHURCHHUB_IDENTITY_JWKS_URL" default:"https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"`
	IssuerPrefix string        `envconfig:"CHURCHHUB_IDENTITY_ISSUER_PREFIX" default:"https://securetoken.google.com/"`
	CacheTTL     time.Duration `envconfig:"CHURCHHUB_IDENTITY_CACHE_TTL" default:"1h"`
	HTTPTimeout  time.Duration `envconfig:"CHURCHHUB_IDENTITY_HTTP_TIMEOUT" default:"5s"`
	Leeway       time.Duration `envconfig:"CHURCHHUB_IDENTITY_LEEWAY" default:"30s"`
}

// Issuer returns the expected "iss" claim for the configured project.
func (i IdentityConfig) Issuer() string {
	return i.IssuerPrefix + i.ProjectID
}

type AdminConfig struct {
	SeedEmails []string `envconfig:"CHURCHHUB_ADMIN_SEED_EMAILS"`
}

// IsSeedEmail reports whether email belongs to the configured administrator seed list.
func (a AdminConfig) IsSeedEmail(email string) bool {
	target := strings.ToLower(strings.TrimSpace(email))
	if target == "" {
		return false
	}
	for _, seed := range a.SeedEmails {
		if strings.ToLower(strings.TrimSpace(seed)) == target {
			return true
		}
	}
	return false
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CHURCHHUB_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CHURCHHUB_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"CHURCHHUB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CHURCHHUB_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string `envconfig:"CHURCHHUB_GCS_BUCKET_NAME" required:"true"`
	PublicBaseURL string `envconfig:"CHURCHHUB_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
}

type MediaConfig struct {
	MaxUploadMB int `envconfig:"CHURCHHUB_MAX_UPLOAD_MB" default:"500"`
}

// MaxUploadBytes returns the upload ceiling in bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 0
	}
	return int64(m.MaxUploadMB) << 20
}

type CronConfig struct {
	Interval           time.Duration `envconfig:"CHURCHHUB_CRON_INTERVAL" default:"1h"`
	LockTTL            time.Duration `envconfig:"CHURCHHUB_CRON_LOCK_TTL" default:"10m"`
	RejectedRetention  time.Duration `envconfig:"CHURCHHUB_CRON_REJECTED_RETENTION" default:"2160h"`
	PrayerArchiveAfter time.Duration `envconfig:"CHURCHHUB_CRON_PRAYER_ARCHIVE_AFTER" default:"720h"`
	BatchSize          int           `envconfig:"CHURCHHUB_CRON_BATCH_SIZE" default:"200"`
	// MetricsAddr is where the worker serves /metrics. Empty disables the listener.
	MetricsAddr string `envconfig:"CHURCHHUB_CRON_METRICS_ADDR" default:":9091"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
